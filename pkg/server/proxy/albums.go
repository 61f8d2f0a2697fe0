package proxy

import (
	"net/http"
	"strings"

	"pixgallery/pkg/models"
	"pixgallery/pkg/normalize"
	"pixgallery/pkg/upstream"

	"github.com/labstack/echo/v4"
)

// AlbumsHandler lists the user's albums.
// GET /api/albums?apiKey=.
func (p *Proxy) AlbumsHandler(ctx echo.Context) error {
	apiKey := ctx.QueryParam("apiKey")
	if apiKey == "" {
		return missingParameter(ctx, errNoCredential.Error())
	}

	return p.forward(ctx, upstream.Call{
		Method:     http.MethodGet,
		Path:       "/user/lists",
		Credential: apiKey,
	}, normalize.NormalizeAlbums)
}

// AlbumHandler fetches one album with its files.
// GET /api/albums/:id?apiKey=.
func (p *Proxy) AlbumHandler(ctx echo.Context) error {
	apiKey := ctx.QueryParam("apiKey")
	if apiKey == "" {
		return missingParameter(ctx, errNoCredential.Error())
	}
	albumID := ctx.Param("id")
	if strings.TrimSpace(albumID) == "" {
		return missingParameter(ctx, "Album ID is required")
	}

	return p.forward(ctx, upstream.Call{
		Method:     http.MethodGet,
		Path:       "/list/" + escapeID(albumID),
		Credential: apiKey,
	}, normalize.NormalizeAlbums)
}

// CreateAlbumHandler creates an album.
// POST /api/albums {apiKey, title, description, files}.
func (p *Proxy) CreateAlbumHandler(ctx echo.Context) error {
	var req models.AlbumRequest
	if err := bindJSON(ctx, &req); err != nil {
		return err
	}

	if req.APIKey == "" {
		return missingParameter(ctx, errNoCredential.Error())
	}
	if strings.TrimSpace(req.Title) == "" {
		return missingParameter(ctx, "Album title is required")
	}

	body, err := encodeBody(req.UpstreamBody())
	if err != nil {
		return err
	}

	return p.forward(ctx, upstream.Call{
		Method:     http.MethodPost,
		Path:       "/list",
		Body:       body,
		Credential: req.APIKey,
	}, normalize.Normalize)
}

// UpdateAlbumHandler replaces an album's title, description and files.
// PUT /api/albums/:id {apiKey, title, description, files}.
func (p *Proxy) UpdateAlbumHandler(ctx echo.Context) error {
	var req models.AlbumRequest
	if err := bindJSON(ctx, &req); err != nil {
		return err
	}

	if req.APIKey == "" {
		return missingParameter(ctx, errNoCredential.Error())
	}
	albumID := ctx.Param("id")
	if strings.TrimSpace(albumID) == "" {
		return missingParameter(ctx, "Album ID is required")
	}

	body, err := encodeBody(req.UpstreamBody())
	if err != nil {
		return err
	}

	return p.forward(ctx, upstream.Call{
		Method:     http.MethodPut,
		Path:       "/list/" + escapeID(albumID),
		Body:       body,
		Credential: req.APIKey,
	}, normalize.Normalize)
}

// DeleteAlbumHandler deletes an album; the files themselves stay.
// DELETE /api/albums/:id?apiKey=.
func (p *Proxy) DeleteAlbumHandler(ctx echo.Context) error {
	apiKey := ctx.QueryParam("apiKey")
	if apiKey == "" {
		return missingParameter(ctx, errNoCredential.Error())
	}
	albumID := ctx.Param("id")
	if strings.TrimSpace(albumID) == "" {
		return missingParameter(ctx, "Album ID is required")
	}

	return p.forward(ctx, upstream.Call{
		Method:     http.MethodDelete,
		Path:       "/list/" + escapeID(albumID),
		Credential: apiKey,
	}, normalize.Normalize)
}
