package proxy

import (
	_ "embed"
	"html/template"
	"net/http"

	"pixgallery/pkg/log"

	"github.com/labstack/echo/v4"
)

var (
	//go:embed swagger.yml
	swaggerSpec []byte

	//go:embed swagger-ui.html
	swaggerUIPage string

	swaggerUI = template.Must(template.New("swagger-ui").Parse(swaggerUIPage))
)

func (s *Server) serveSwaggerUI(ctx echo.Context) error {
	data := struct {
		Title       string
		SwaggerPath string
		Version     string
	}{
		Title:       "Gallery Proxy API Documentation",
		SwaggerPath: "/swagger.yml",
		Version:     s.version,
	}

	ctx.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	ctx.Response().WriteHeader(http.StatusOK)
	if err := swaggerUI.Execute(ctx.Response().Writer, data); err != nil {
		log.Error().Err(err).Msg("Failed to render swagger UI")
		return err
	}
	return nil
}

func serveSwaggerSpec(ctx echo.Context) error {
	return ctx.Blob(http.StatusOK, "application/yaml", swaggerSpec)
}
