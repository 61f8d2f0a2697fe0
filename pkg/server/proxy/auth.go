package proxy

import (
	"net/http"
	"strings"

	"pixgallery/pkg/models"
	"pixgallery/pkg/normalize"
	"pixgallery/pkg/upstream"

	"github.com/labstack/echo/v4"
)

const authSuccessMessage = "Authentication successful"

// AuthHandler checks a credential against the account endpoint.
// POST /api/auth {apiKey}.
func (p *Proxy) AuthHandler(ctx echo.Context) error {
	var req models.AuthRequest
	if err := bindJSON(ctx, &req); err != nil {
		return err
	}

	if strings.TrimSpace(req.APIKey) == "" {
		return missingParameter(ctx, errNoCredential.Error())
	}

	result, err := p.call(ctx, upstream.Call{
		Method:     http.MethodGet,
		Path:       "/user",
		Credential: req.APIKey,
	}, normalize.Normalize)
	if err != nil {
		return upstreamFailure(ctx, err)
	}

	switch r := result.(type) {
	case normalize.JSONEnvelope:
		return ctx.JSON(http.StatusOK, map[string]interface{}{
			"success": true,
			"message": authSuccessMessage,
			"user":    r.Value,
		})
	case normalize.RawText:
		return ctx.JSON(http.StatusOK, map[string]interface{}{
			"success": true,
			"message": authSuccessMessage,
		})
	default:
		return ctx.JSON(result.StatusCode(), result.Envelope())
	}
}
