package api

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Establishes HTTP router.
func (service *Service) setupRouter(server *http.Server) {
	router := gin.New()

	router.Use(gin.Recovery(), service.loggerMiddleware(), corsMiddleware())

	router.GET(PingURL, func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "pong")
	})

	router.POST(LayoutURL, service.layoutDocument)
	router.POST(LoadURL, service.loadDocument)
	router.GET(RenderURL, service.renderDocument)

	server.Handler = router
	service.router = router
}

// RegisterTagNames makes validation errors report json/form field names.
func RegisterTagNames() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, key := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return ""
		})
	}
}

func (service *Service) loggerMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		service.logger.Info().
			Str("method", ctx.Request.Method).
			Str("path", ctx.Request.URL.Path).
			Int("status", ctx.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("handled request")
	}
}

// the service is a read-only rendering API, every origin is allowed
func corsMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Header("Access-Control-Allow-Origin", "*")
		ctx.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		ctx.Header("Access-Control-Allow-Headers", "Content-Type")

		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		ctx.Next()
	}
}
