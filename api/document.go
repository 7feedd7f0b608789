package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ByLCY/pagelet/browser"
	"github.com/ByLCY/pagelet/fetch"
	"github.com/ByLCY/pagelet/layout"
	canvasrenderer "github.com/ByLCY/pagelet/renderer/canvas"
)

// CAUTION: "omitempty" must come first so zero values skip the other rules.
type LayoutRequest struct {
	Body   string  `json:"body"`
	Width  float64 `json:"width" binding:"omitempty,gt=0"`
	Height float64 `json:"height" binding:"omitempty,gt=0"`
	Scroll float64 `json:"scroll" binding:"omitempty,gte=0"`
}

type LoadRequest struct {
	URL    string  `json:"url" binding:"required"`
	Width  float64 `json:"width" binding:"omitempty,gt=0"`
	Height float64 `json:"height" binding:"omitempty,gt=0"`
	Scroll float64 `json:"scroll" binding:"omitempty,gte=0"`
}

type RenderQuery struct {
	URL    string  `form:"url" binding:"required"`
	Width  float64 `form:"width" binding:"omitempty,gt=0"`
	Height float64 `form:"height" binding:"omitempty,gt=0"`
	Scroll float64 `form:"scroll" binding:"omitempty,gte=0"`
	Format string  `form:"format" binding:"omitempty,oneof=png pdf"`
}

// FetchErrorHeader 在 /render 抓取失败时携带错误类别，图片本身为空白页。
const FetchErrorHeader = "X-Fetch-Error"

// FrameResponse 是 /layout 与 /load 的返回体。抓取失败时 Frame 为空文档，
// Error 与 Kind 说明原因。
type FrameResponse struct {
	SessionID string        `json:"session_id"`
	Status    int           `json:"status,omitempty"`
	Frame     *layout.Frame `json:"frame"`
	Visible   int           `json:"visible"`
	Error     string        `json:"error,omitempty"`
	Kind      string        `json:"kind,omitempty"`
}

func newFrameResponse(session *browser.Session, doc document) FrameResponse {
	frame := session.Frame()
	resp := FrameResponse{
		SessionID: session.ID.String(),
		Status:    doc.status,
		Frame:     frame,
		Visible:   len(frame.VisibleWords()),
	}
	if doc.err != nil {
		resp.Error = doc.err.Error()
		resp.Kind = FetchErrorKind(doc.err)
	}
	return resp
}

// document 是一次抓取的结果；err 非空时 body 为空，按缺失文档排版。
type document struct {
	body   string
	status int
	err    error
}

func (service *Service) layoutDocument(ctx *gin.Context) {
	var req LayoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, NewErrorResponse(ErrInvalidParams, ExtractErrorFields(err)...))
		return
	}

	service.renderMu.Lock()
	defer service.renderMu.Unlock()

	session, err := service.layoutBody(req.Body, req.Width, req.Height, req.Scroll)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, NewErrorResponse(err))
		return
	}
	ctx.JSON(http.StatusOK, newFrameResponse(session, document{}))
}

func (service *Service) loadDocument(ctx *gin.Context) {
	var req LoadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, NewErrorResponse(ErrInvalidParams, ExtractErrorFields(err)...))
		return
	}

	doc, ok := service.fetchDocument(ctx, req.URL)
	if !ok {
		return
	}

	service.renderMu.Lock()
	defer service.renderMu.Unlock()

	session, err := service.layoutBody(doc.body, req.Width, req.Height, req.Scroll)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, NewErrorResponse(err))
		return
	}
	ctx.JSON(http.StatusOK, newFrameResponse(session, doc))
}

func (service *Service) renderDocument(ctx *gin.Context) {
	var query RenderQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		ctx.JSON(http.StatusBadRequest, NewErrorResponse(ErrInvalidParams, ExtractErrorFields(err)...))
		return
	}
	format := query.Format
	if format == "" {
		format = canvasrenderer.FormatPNG
	}

	doc, ok := service.fetchDocument(ctx, query.URL)
	if !ok {
		return
	}

	service.renderMu.Lock()
	defer service.renderMu.Unlock()

	session, err := service.layoutBody(doc.body, query.Width, query.Height, query.Scroll)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, NewErrorResponse(err))
		return
	}
	data, err := service.renderers[format].Render(session.Frame())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, NewErrorResponse(fmt.Errorf("render failed: %w", err)))
		return
	}
	if doc.err != nil {
		ctx.Header(FetchErrorHeader, FetchErrorKind(doc.err))
	}
	ctx.Data(http.StatusOK, contentType(format), data)
}

// fetchDocument 抓取远端文档。地址不合法时写入 400 并返回 false；
// 抓取失败不算请求错误，返回的 document 带上错误并按空文档处理。
func (service *Service) fetchDocument(ctx *gin.Context, raw string) (document, bool) {
	ref, err := fetch.ParseReference(raw)
	if err != nil {
		resp := newFetchErrorResponse(err)
		resp.Fields = []ErrorField{{Field: "url", Message: err.Error()}}
		ctx.JSON(http.StatusBadRequest, resp)
		return document{}, false
	}
	if ref.Scheme == fetch.SchemeFile {
		ctx.JSON(http.StatusBadRequest, NewErrorResponse(ErrFileScheme, ErrorField{Field: "url", Message: ErrFileScheme.Error()}))
		return document{}, false
	}
	if service.source == nil {
		ctx.JSON(http.StatusServiceUnavailable, NewErrorResponse(errors.New("no document source configured")))
		return document{}, false
	}

	resp, err := service.source.Do(ctx.Request.Context(), ref)
	if err != nil {
		service.logger.Warn().Err(err).Str("ref", ref.String()).Msg("fetch failed, serving empty document")
		return document{err: err}, true
	}
	return document{body: resp.Body, status: resp.Status}, true
}

// layoutBody 在新会话中排版文档并滚动到请求的位置（超出范围时被限制）。
func (service *Service) layoutBody(body string, width, height, scroll float64) (*browser.Session, error) {
	session, err := service.newSession(width, height)
	if err != nil {
		return nil, err
	}
	if err := session.LoadBody(body); err != nil {
		return nil, err
	}
	session.Scroll(scroll)
	return session, nil
}

func contentType(format string) string {
	if format == canvasrenderer.FormatPDF {
		return "application/pdf"
	}
	return "image/png"
}
