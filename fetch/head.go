package fetch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// 响应头的词法规则按顺序匹配：版本号与三位状态码优先于普通字段名，
// Rest 兜底吞掉行内剩余字符。
var (
	headLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Version", Pattern: `HTTP/[0-9]+\.[0-9]+`},
		{Name: "Code", Pattern: `[0-9]{3}\b`},
		{Name: "Field", Pattern: `[!#$%&'*+.^_|~0-9A-Za-z-]+`},
		{Name: "Colon", Pattern: `:`},
		{Name: "Whitespace", Pattern: `[ \t]+`},
		{Name: "Rest", Pattern: `[^\r\n]+`},
	})

	statusParser = participle.MustBuild[statusLine](participle.Lexer(headLexer))
	headerParser = participle.MustBuild[headerLine](participle.Lexer(headLexer))
)

// statusLine 对应 "HTTP/1.0 200 OK"，原因短语可省略。
type statusLine struct {
	Version string `parser:"@Version Whitespace"`
	Code    int    `parser:"@Code"`
	Reason  string `parser:"( Whitespace @( Version | Code | Field | Colon | Whitespace | Rest )* )?"`
}

// headerLine 对应 "Name: value"，值内允许出现冒号与空白。
type headerLine struct {
	Name  string `parser:"@( Field | Code ) Colon Whitespace?"`
	Value string `parser:"@( Version | Code | Field | Colon | Whitespace | Rest )*"`
}

// Response 是解析后的响应。Headers 的键统一转为小写。
type Response struct {
	Version string            `json:"version"`
	Status  int               `json:"status"`
	Reason  string            `json:"reason"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"-"`
}

// parseStatusLine 解析不含行尾的状态行。
func parseStatusLine(line string) (*statusLine, error) {
	st, err := statusParser.ParseString("", line)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedStatus, line, err)
	}
	st.Reason = strings.TrimSpace(st.Reason)
	return st, nil
}

// parseHeaderLine 解析不含行尾的响应头行，返回小写键与去除首尾空白的值。
func parseHeaderLine(line string) (string, string, error) {
	h, err := headerParser.ParseString("", line)
	if err != nil {
		return "", "", fmt.Errorf("%w: %q: %v", ErrMalformedHeader, line, err)
	}
	return strings.ToLower(h.Name), strings.TrimSpace(h.Value), nil
}

// readResponse 读取状态行与响应头，拒绝分块或压缩编码，其余字节作为正文。
func readResponse(br *bufio.Reader) (*Response, error) {
	line, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStatus, err)
	}
	st, err := parseStatusLine(line)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Version: st.Version,
		Status:  st.Code,
		Reason:  st.Reason,
		Headers: map[string]string{},
	}
	for {
		line, err := readLine(br)
		if err != nil {
			return nil, fmt.Errorf("%w: 响应头未结束: %v", ErrMalformedHeader, err)
		}
		if line == "" {
			break
		}
		key, value, err := parseHeaderLine(line)
		if err != nil {
			return nil, err
		}
		resp.Headers[key] = value
	}

	for _, key := range []string{"transfer-encoding", "content-encoding"} {
		if v, ok := resp.Headers[key]; ok {
			return nil, fmt.Errorf("%w: %s: %s", ErrUnsupportedEncoding, key, v)
		}
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取正文失败: %v", ErrConnect, err)
	}
	resp.Body = string(body)
	return resp, nil
}

// readLine 读取一行并去掉 "\r\n" 或 "\n"。到达 EOF 而没有换行符视为错误。
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
