package fetch

import "errors"

// 抓取失败的类别，调用方通过 errors.Is 区分。任何一种失败都视为文档缺失。
var (
	ErrUnsupportedScheme   = errors.New("fetch: 不支持的协议")
	ErrConnect             = errors.New("fetch: 连接失败")
	ErrTLSHandshake        = errors.New("fetch: TLS 握手失败")
	ErrMalformedStatus     = errors.New("fetch: 状态行格式错误")
	ErrMalformedHeader     = errors.New("fetch: 响应头格式错误")
	ErrUnsupportedEncoding = errors.New("fetch: 不支持的响应编码")
	ErrFileNotFound        = errors.New("fetch: 文件不存在")
)
