package fetch

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// 支持的协议。
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeFile  = "file"
)

// Reference 是解析后的文档地址。file 协议只使用 Path。
type Reference struct {
	Scheme string `json:"scheme"`
	Host   string `json:"host,omitempty"`
	Port   int    `json:"port,omitempty"`
	Path   string `json:"path"`
}

// ParseReference 解析 http://host[:port]/path、https://host[:port]/path 与 file:///abs/path。
// 缺省端口分别为 80 与 443，缺省路径为 "/"。
func ParseReference(raw string) (Reference, error) {
	scheme, rest, ok := strings.Cut(strings.TrimSpace(raw), "://")
	if !ok {
		return Reference{}, fmt.Errorf("%w: %q 缺少 ://", ErrUnsupportedScheme, raw)
	}
	scheme = strings.ToLower(scheme)

	switch scheme {
	case SchemeFile:
		if !strings.HasPrefix(rest, "/") {
			return Reference{}, fmt.Errorf("file 地址必须是绝对路径: %q", raw)
		}
		return Reference{Scheme: scheme, Path: rest}, nil
	case SchemeHTTP, SchemeHTTPS:
	default:
		return Reference{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}

	hostPort, path, found := strings.Cut(rest, "/")
	path = "/" + path
	if !found {
		path = "/"
	}
	ref := Reference{Scheme: scheme, Host: hostPort, Path: path, Port: 80}
	if scheme == SchemeHTTPS {
		ref.Port = 443
	}
	if host, port, ok := strings.Cut(hostPort, ":"); ok {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return Reference{}, fmt.Errorf("端口无效: %q", port)
		}
		ref.Host, ref.Port = host, p
	}
	if ref.Host == "" {
		return Reference{}, fmt.Errorf("地址缺少主机名: %q", raw)
	}
	return ref, nil
}

// Addr 返回拨号使用的 host:port。
func (r Reference) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

func (r Reference) String() string {
	if r.Scheme == SchemeFile {
		return "file://" + r.Path
	}
	return fmt.Sprintf("%s://%s%s", r.Scheme, r.Addr(), r.Path)
}
