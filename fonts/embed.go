package fonts

import (
	"fmt"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// 内置字体名，对应 Go 字体家族的四种样式。
const (
	Regular    = "Go-Regular"
	Bold       = "Go-Bold"
	Italic     = "Go-Italic"
	BoldItalic = "Go-BoldItalic"
)

var builtin = map[string][]byte{
	Regular:    goregular.TTF,
	Bold:       gobold.TTF,
	Italic:     goitalic.TTF,
	BoldItalic: gobolditalic.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:Go-Bold" 或直接 "Go-Bold"。
func Load(name string) ([]byte, error) {
	name = strings.TrimPrefix(name, "embed:")
	data, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 不存在", name)
	}
	return data, nil
}
