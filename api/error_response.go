package api

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/ByLCY/pagelet/fetch"
)

var (
	ErrInvalidParams = errors.New("invalid request parameters")
	ErrFileScheme    = errors.New("file references are not served over HTTP")
)

type ErrorField struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error  string       `json:"error"`
	Kind   string       `json:"kind,omitempty"`
	Fields []ErrorField `json:"fields,omitempty"`
}

func NewErrorResponse(err error, fields ...ErrorField) ErrorResponse {
	return ErrorResponse{Error: err.Error(), Fields: fields}
}

// newFetchErrorResponse tags the response with the failure kind so clients can tell
// a refused connection from a malformed response.
func newFetchErrorResponse(err error) ErrorResponse {
	resp := NewErrorResponse(err)
	resp.Kind = FetchErrorKind(err)
	return resp
}

// ExtractErrorFields turns validator errors into per-field messages.
func ExtractErrorFields(err error) []ErrorField {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ErrorField{{Field: "body", Message: err.Error()}}
	}
	fields := make([]ErrorField, 0, len(verrs))
	for _, fe := range verrs {
		msg := "failed on " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		fields = append(fields, ErrorField{Field: fe.Field(), Message: msg})
	}
	return fields
}

var fetchKinds = []struct {
	err  error
	kind string
}{
	{fetch.ErrUnsupportedScheme, "unsupported_scheme"},
	{fetch.ErrConnect, "connect"},
	{fetch.ErrTLSHandshake, "tls_handshake"},
	{fetch.ErrMalformedStatus, "malformed_status"},
	{fetch.ErrMalformedHeader, "malformed_header"},
	{fetch.ErrUnsupportedEncoding, "unsupported_encoding"},
	{fetch.ErrFileNotFound, "file_not_found"},
}

// FetchErrorKind 返回抓取错误的类别名，未知错误归为 "fetch"。
func FetchErrorKind(err error) string {
	for _, k := range fetchKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "fetch"
}
