package proxy

import (
	"net/http"
	"strings"

	"pixgallery/pkg/models"
	"pixgallery/pkg/normalize"
	"pixgallery/pkg/upstream"

	"github.com/labstack/echo/v4"
)

// FilesHandler lists the user's files.
// GET /api/files?apiKey=.
func (p *Proxy) FilesHandler(ctx echo.Context) error {
	apiKey := ctx.QueryParam("apiKey")
	if apiKey == "" {
		return missingParameter(ctx, errNoCredential.Error())
	}

	return p.forward(ctx, upstream.Call{
		Method:     http.MethodGet,
		Path:       "/user/files",
		Credential: apiKey,
	}, normalize.Normalize)
}

// DeleteFileHandler deletes one file.
// POST /api/delete-file {apiKey, fileId}.
func (p *Proxy) DeleteFileHandler(ctx echo.Context) error {
	var req models.DeleteFileRequest
	if err := bindJSON(ctx, &req); err != nil {
		return err
	}

	if req.APIKey == "" {
		return missingParameter(ctx, errNoCredential.Error())
	}
	if strings.TrimSpace(req.FileID) == "" {
		return missingParameter(ctx, "File ID is required")
	}

	return p.forward(ctx, upstream.Call{
		Method:     http.MethodDelete,
		Path:       "/file/" + escapeID(req.FileID),
		Credential: req.APIKey,
	}, normalize.Normalize)
}
