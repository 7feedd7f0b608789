package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/ByLCY/pagelet/fonts"
	"github.com/ByLCY/pagelet/layout"
)

// Config 汇总 CLI 与 HTTP 服务共用的配置，来源为可选的 app.env 与环境变量。
type Config struct {
	Environment       string        `mapstructure:"ENVIRONMENT"`
	HTTPServerAddress string        `mapstructure:"HTTP_SERVER_ADDRESS"`
	ViewportWidth     float64       `mapstructure:"VIEWPORT_WIDTH"`
	ViewportHeight    float64       `mapstructure:"VIEWPORT_HEIGHT"`
	ScrollStep        float64       `mapstructure:"SCROLL_STEP"`
	ScrollbarWidth    float64       `mapstructure:"SCROLLBAR_WIDTH"`
	FontSize          string        `mapstructure:"FONT_SIZE"`
	UserAgent         string        `mapstructure:"USER_AGENT"`
	FetchTimeout      time.Duration `mapstructure:"FETCH_TIMEOUT"`

	// 可选的 TTF 文件，替换对应样式的内置字体
	FontRegular    string `mapstructure:"FONT_REGULAR"`
	FontBold       string `mapstructure:"FONT_BOLD"`
	FontItalic     string `mapstructure:"FONT_ITALIC"`
	FontBoldItalic string `mapstructure:"FONT_BOLD_ITALIC"`
}

var defaults = map[string]any{
	"ENVIRONMENT":         "development",
	"HTTP_SERVER_ADDRESS": "0.0.0.0:8080",
	"VIEWPORT_WIDTH":      800,
	"VIEWPORT_HEIGHT":     600,
	"SCROLL_STEP":         100,
	"SCROLLBAR_WIDTH":     24,
	"FONT_SIZE":           "16pt",
	"USER_AGENT":          "pagelet/0.1",
	"FETCH_TIMEOUT":       "10s",
	"FONT_REGULAR":        "",
	"FONT_BOLD":           "",
	"FONT_ITALIC":         "",
	"FONT_BOLD_ITALIC":    "",
}

// Load 读取 path 目录下的 app.env（可缺省），环境变量优先。
func Load(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("读取配置文件失败: %w", err)
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("解析配置失败: %w", err)
	}
	err = config.Validate()
	return
}

// Validate 检查视口与字号是否可用。
func (config Config) Validate() error {
	if config.ViewportWidth <= 0 || config.ViewportHeight <= 0 {
		return fmt.Errorf("视口尺寸无效: %gx%g", config.ViewportWidth, config.ViewportHeight)
	}
	if config.ScrollStep <= 0 {
		return fmt.Errorf("滚动步长无效: %g", config.ScrollStep)
	}
	if config.FontSizePt() <= 0 {
		return fmt.Errorf("字号无效: %q", config.FontSize)
	}
	for name, path := range config.FontPaths() {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("字体 %s 不可用: %w", name, err)
		}
	}
	return nil
}

// FontPaths 返回已配置的字体覆盖，键为 fonts 包中的内置字体名。
func (config Config) FontPaths() map[string]string {
	paths := map[string]string{}
	for name, path := range map[string]string{
		fonts.Regular:    config.FontRegular,
		fonts.Bold:       config.FontBold,
		fonts.Italic:     config.FontItalic,
		fonts.BoldItalic: config.FontBoldItalic,
	} {
		if path != "" {
			paths[name] = path
		}
	}
	return paths
}

// FontSizePt 将 FONT_SIZE 解析为 pt；无单位的数值按 pt 处理。
func (config Config) FontSizePt() float64 {
	l := layout.ParseLength(config.FontSize)
	if l.Unit == layout.UnitNone {
		return l.Value
	}
	return l.ToPT()
}

// Viewport 返回配置的视口尺寸。
func (config Config) Viewport() layout.Viewport {
	return layout.Viewport{Width: config.ViewportWidth, Height: config.ViewportHeight}
}
