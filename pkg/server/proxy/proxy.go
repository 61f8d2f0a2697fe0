// Package proxy exposes the upstream API to the gallery client: it attaches the
// credential, performs exactly one upstream call per request and answers with
// a normalized JSON envelope.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pixgallery/pkg/log"
	"pixgallery/pkg/normalize"
	"pixgallery/pkg/upstream"

	"github.com/labstack/echo/v4"
)

const maxRequestBody = 8 << 20

// Upstream is the outbound side of the proxy.
type Upstream interface {
	Do(ctx context.Context, call upstream.Call) (normalize.Response, error)
	BaseURL() string
}

// Proxy holds the endpoint handlers.
type Proxy struct {
	upstream Upstream
	version  string
	started  time.Time
}

// NewProxy creates the handler set.
func NewProxy(client Upstream, version string) *Proxy {
	return &Proxy{upstream: client, version: version, started: time.Now()}
}

type shapeFunc func(normalize.Response) normalize.Result

// forward performs the upstream call and writes the normalized result.
func (p *Proxy) forward(ctx echo.Context, call upstream.Call, shape shapeFunc) error {
	result, err := p.call(ctx, call, shape)
	if err != nil {
		return upstreamFailure(ctx, err)
	}
	return ctx.JSON(result.StatusCode(), result.Envelope())
}

func (p *Proxy) call(ctx echo.Context, call upstream.Call, shape shapeFunc) (normalize.Result, error) {
	resp, err := p.upstream.Do(ctx.Request().Context(), call)
	if err != nil {
		return nil, err
	}

	result := shape(resp)
	logResult(call, result)
	return result, nil
}

func logResult(call upstream.Call, result normalize.Result) {
	switch r := result.(type) {
	case normalize.JSONEnvelope:
		log.Debug().Str("path", call.Path).Msg("Upstream JSON")
	case normalize.RawText:
		log.Info().Str("path", call.Path).Str("content_type", r.ContentType).Msg("Upstream returned non-JSON content")
	case normalize.HTMLReceived:
		log.Warn().Str("path", call.Path).Bool("authenticated", call.Credential != "").Msg("Upstream returned an HTML page, credential likely rejected")
	case normalize.HTTPError:
		log.Warn().Str("path", call.Path).Int("status", r.Status).Str("error", r.Error()).Msg("Upstream returned an error")
	case normalize.ParseError:
		log.Warn().Err(r.Err).Str("path", call.Path).Msg("Upstream JSON could not be parsed")
	}
}

// bindJSON decodes a JSON request body into dst.
func bindJSON(ctx echo.Context, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxRequestBody))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	return nil
}

func encodeBody(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding upstream body: %w", err)
	}
	return data, nil
}

func escapeID(id string) string {
	return url.PathEscape(strings.TrimSpace(id))
}

// PassthroughHandler forwards ?path= with the request method and body.
// GET|POST|PUT|DELETE /api/proxy?path=&apiKey=.
func (p *Proxy) PassthroughHandler(ctx echo.Context) error {
	path := strings.TrimSpace(ctx.QueryParam("path"))
	if path == "" {
		return missingParameter(ctx, "Missing path parameter")
	}

	var body []byte
	if ctx.Request().Method != http.MethodGet {
		data, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxRequestBody))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedBody, err)
		}
		body = data
	}

	return p.forward(ctx, upstream.Call{
		Method:      ctx.Request().Method,
		Path:        path,
		Body:        body,
		ContentType: ctx.Request().Header.Get(echo.HeaderContentType),
		Credential:  ctx.QueryParam("apiKey"),
	}, normalize.Normalize)
}

// HealthHandler reports the proxy version, upstream root and uptime.
// GET /api/health.
func (p *Proxy) HealthHandler(ctx echo.Context) error {
	uptime := time.Since(p.started)
	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"success":        true,
		"version":        p.version,
		"upstream":       p.upstream.BaseURL(),
		"uptime":         uptime.Truncate(time.Second).String(),
		"uptime_seconds": int64(uptime.Seconds()),
	})
}
