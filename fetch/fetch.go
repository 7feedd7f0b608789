package fetch

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultUserAgent = "pagelet/0.1"
	DefaultTimeout   = 10 * time.Second
)

// Options configures a Fetcher.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	TLSConfig *tls.Config
	Logger    *zerolog.Logger
}

// Fetcher 读取本地文件或通过 HTTP/1.0 抓取文档，每次调用都完整读取后才返回。
// 不做重定向、重试、分块或压缩解码。
type Fetcher struct {
	userAgent string
	timeout   time.Duration
	tlsConfig *tls.Config
	logger    zerolog.Logger
}

// New creates a Fetcher, filling defaults for empty options.
func New(opts Options) *Fetcher {
	f := &Fetcher{
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
		tlsConfig: opts.TLSConfig,
		logger:    zerolog.Nop(),
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if opts.Logger != nil {
		f.logger = *opts.Logger
	}
	return f
}

// Fetch 按地址返回文档文本。
func (f *Fetcher) Fetch(ctx context.Context, raw string) (string, error) {
	ref, err := ParseReference(raw)
	if err != nil {
		return "", err
	}
	if ref.Scheme == SchemeFile {
		return f.readFile(ref)
	}
	resp, err := f.Do(ctx, ref)
	if err != nil {
		return "", err
	}
	return resp.Body, nil
}

// Do 发送一次 GET 请求并解析响应。
func (f *Fetcher) Do(ctx context.Context, ref Reference) (*Response, error) {
	if ref.Scheme != SchemeHTTP && ref.Scheme != SchemeHTTPS {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, ref.Scheme)
	}
	start := time.Now()

	dialer := net.Dialer{Timeout: f.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", ref.Addr())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConnect, ref.Addr(), err)
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(f.timeout)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	if ref.Scheme == SchemeHTTPS {
		tlsConn := tls.Client(conn, f.tlsConfigFor(ref.Host))
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTLSHandshake, ref.Host, err)
		}
		conn = tlsConn
	}

	if _, err := conn.Write([]byte(f.buildRequest(ref))); err != nil {
		return nil, fmt.Errorf("%w: 发送请求失败: %v", ErrConnect, err)
	}

	resp, err := readResponse(bufio.NewReader(conn))
	if err != nil {
		return nil, err
	}
	f.logger.Debug().
		Str("ref", ref.String()).
		Int("status", resp.Status).
		Int("bytes", len(resp.Body)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched document")
	return resp, nil
}

// buildRequest 生成最小的 HTTP/1.0 请求。
func (f *Fetcher) buildRequest(ref Reference) string {
	var b strings.Builder
	fmt.Fprintf(&b, "GET %s HTTP/1.0\r\n", ref.Path)
	for _, h := range [][2]string{
		{"Connection", "close"},
		{"Host", ref.Host},
		{"User-Agent", f.userAgent},
	} {
		fmt.Fprintf(&b, "%s: %s\r\n", h[0], h[1])
	}
	b.WriteString("\r\n")
	return b.String()
}

func (f *Fetcher) tlsConfigFor(host string) *tls.Config {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if f.tlsConfig != nil {
		cfg = f.tlsConfig.Clone()
	}
	if cfg.ServerName == "" {
		cfg.ServerName = host
	}
	return cfg
}

func (f *Fetcher) readFile(ref Reference) (string, error) {
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, ref.Path)
		}
		return "", fmt.Errorf("读取文件 %s 失败: %w", ref.Path, err)
	}
	f.logger.Debug().Str("path", ref.Path).Int("bytes", len(data)).Msg("read document")
	return string(data), nil
}
