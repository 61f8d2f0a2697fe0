// Package gallery is the client side of the media gallery: it talks to the
// proxy, keeps the fetched library in view state and decides how files are
// previewed and rendered.
package gallery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"pixgallery/pkg/log"
	"pixgallery/pkg/models"
	"pixgallery/pkg/normalize"
)

const maxReplyBytes = 32 << 20

// Client calls the gallery proxy. It never talks to the upstream API directly.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu         sync.RWMutex
	credential string
}

// NewClient creates a client for the proxy at proxyURL.
func NewClient(proxyURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(proxyURL, "/"))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid proxy url %q", proxyURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: parsed.String(), httpClient: httpClient}, nil
}

// SetCredential replaces the API key attached to subsequent calls.
func (c *Client) SetCredential(credential string) {
	c.mu.Lock()
	c.credential = strings.TrimSpace(credential)
	c.mu.Unlock()
}

// Credential returns the API key in use.
func (c *Client) Credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credential
}

func (c *Client) requireCredential() (string, error) {
	credential := c.Credential()
	if credential == "" {
		return "", ErrNotAuthenticated
	}
	return credential, nil
}

// Reply is a decoded successful proxy answer.
type Reply struct {
	Status int
	// Body is the JSON value relayed from upstream. Empty when NonJSON is set.
	Body json.RawMessage
	// NonJSON marks a relayed plain-text answer carried in Text.
	NonJSON     bool
	Text        string
	ContentType string
}

// envelopeFields are the proxy's own envelope keys.
type envelopeFields struct {
	Success     *bool          `json:"success"`
	Code        normalize.Code `json:"code"`
	Error       string         `json:"error"`
	Message     string         `json:"message"`
	Value       string         `json:"value"`
	Text        string         `json:"text"`
	ContentType string         `json:"contentType"`
	Details     string         `json:"details"`
	RawText     string         `json:"rawText"`
}

// interpret classifies a proxy answer by its envelope code.
func interpret(status int, body []byte) (Reply, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return Reply{}, fmt.Errorf("%w: status %d with a non-JSON body", ErrProxyUnreachable, status)
	}

	var env envelopeFields
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return Reply{}, fmt.Errorf("%w: %w", ErrProxyUnreachable, err)
		}
	}

	switch env.Code {
	case normalize.CodeMissingParameter,
		normalize.CodeUpstreamHTTPError,
		normalize.CodeUpstreamJSONParseError,
		normalize.CodeUpstreamHTMLReceived,
		normalize.CodeInternalProxyError:
		detail := env.Details
		if detail == "" {
			detail = env.RawText
		}
		return Reply{}, &APIError{Status: status, Code: env.Code, Message: env.Error, Detail: detail}
	case normalize.CodeUpstreamNonJSONContent:
		return Reply{Status: status, NonJSON: true, Text: env.Text, ContentType: env.ContentType}, nil
	}

	// Plain upstream JSON. The upstream reports some failures inside a 2xx.
	failed := env.Success != nil && !*env.Success
	if status < 200 || status >= 300 || failed {
		message := env.Error
		if message == "" {
			message = env.Message
		}
		if message == "" {
			message = env.Value
		}
		return Reply{}, &APIError{Status: status, Message: message}
	}

	return Reply{Status: status, Body: json.RawMessage(trimmed)}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (Reply, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Reply{}, fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}
	return c.send(ctx, method, path, query, payload)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload io.Reader) (Reply, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return Reply{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %s %s: %w", ErrProxyUnreachable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return Reply{}, fmt.Errorf("%w: read %s: %w", ErrProxyUnreachable, path, err)
	}

	reply, err := interpret(resp.StatusCode, data)
	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Bool("ok", err == nil).
		Msg("Proxy call")
	return reply, err
}

func decodeInto(reply Reply, v interface{}) error {
	if reply.NonJSON {
		return fmt.Errorf("%w: %s", ErrUnexpectedContent, reply.ContentType)
	}
	if err := json.Unmarshal(reply.Body, v); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}

func keyQuery(credential string) url.Values {
	return url.Values{"apiKey": {credential}}
}

type authReply struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

// Authenticate checks credential against the upstream account endpoint and,
// on success, keeps it for subsequent calls. The user is nil when the
// upstream answered without account details.
func (c *Client) Authenticate(ctx context.Context, credential string) (*models.User, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, ErrNotAuthenticated
	}

	reply, err := c.do(ctx, http.MethodPost, "/api/auth", nil, models.AuthRequest{APIKey: credential})
	if err != nil {
		return nil, err
	}

	var out authReply
	if err := decodeInto(reply, &out); err != nil {
		return nil, err
	}

	c.SetCredential(credential)
	return out.User, nil
}

// ListFiles returns the user's files with defaults applied.
func (c *Client) ListFiles(ctx context.Context) ([]models.FileRecord, error) {
	credential, err := c.requireCredential()
	if err != nil {
		return nil, err
	}

	reply, err := c.do(ctx, http.MethodGet, "/api/files", keyQuery(credential), nil)
	if err != nil {
		return nil, err
	}

	var out models.FileListResponse
	if err := decodeInto(reply, &out); err != nil {
		return nil, err
	}
	for i := range out.Files {
		out.Files[i].ApplyDefaults()
	}
	if out.Files == nil {
		out.Files = []models.FileRecord{}
	}
	return out.Files, nil
}

type albumsReply struct {
	Albums []models.AlbumRecord `json:"albums"`
	Lists  []models.AlbumRecord `json:"lists"`
}

func (r albumsReply) records() []models.AlbumRecord {
	albums := r.Albums
	if albums == nil {
		albums = r.Lists
	}
	if albums == nil {
		albums = []models.AlbumRecord{}
	}
	for i := range albums {
		albums[i].Reconcile()
	}
	return albums
}

// ListAlbums returns the user's albums. The upstream summary has no files,
// so file counts are zero until an album is fetched on its own.
func (c *Client) ListAlbums(ctx context.Context) ([]models.AlbumRecord, error) {
	credential, err := c.requireCredential()
	if err != nil {
		return nil, err
	}

	reply, err := c.do(ctx, http.MethodGet, "/api/albums", keyQuery(credential), nil)
	if err != nil {
		return nil, err
	}

	var out albumsReply
	if err := decodeInto(reply, &out); err != nil {
		return nil, err
	}
	return out.records(), nil
}

// GetAlbum returns one album with its files.
func (c *Client) GetAlbum(ctx context.Context, albumID string) (models.AlbumRecord, error) {
	credential, err := c.requireCredential()
	if err != nil {
		return models.AlbumRecord{}, err
	}

	reply, err := c.do(ctx, http.MethodGet, "/api/albums/"+url.PathEscape(albumID), keyQuery(credential), nil)
	if err != nil {
		return models.AlbumRecord{}, err
	}

	var out albumsReply
	if err := decodeInto(reply, &out); err != nil {
		return models.AlbumRecord{}, err
	}
	albums := out.records()
	if len(albums) == 0 {
		return models.AlbumRecord{}, fmt.Errorf("%w: %s", ErrAlbumNotFound, albumID)
	}
	return albums[0], nil
}

// CreateAlbum creates an album holding fileIDs and returns its id.
func (c *Client) CreateAlbum(ctx context.Context, title, description string, fileIDs []string) (string, error) {
	credential, err := c.requireCredential()
	if err != nil {
		return "", err
	}

	reply, err := c.do(ctx, http.MethodPost, "/api/albums", nil, models.AlbumRequest{
		APIKey:      credential,
		Title:       title,
		Description: description,
		Files:       fileRefs(fileIDs),
	})
	if err != nil {
		return "", err
	}

	var out models.AlbumCreated
	if err := decodeInto(reply, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// UpdateAlbum replaces an album's title, description and file list.
func (c *Client) UpdateAlbum(ctx context.Context, album models.AlbumRecord) error {
	credential, err := c.requireCredential()
	if err != nil {
		return err
	}

	refs := make([]models.AlbumFileRef, 0, len(album.Files))
	for _, file := range album.Files {
		refs = append(refs, models.AlbumFileRef{ID: file.ID, Description: file.Description})
	}

	_, err = c.do(ctx, http.MethodPut, "/api/albums/"+url.PathEscape(album.ID), nil, models.AlbumRequest{
		APIKey:      credential,
		Title:       album.Title,
		Description: album.Description,
		Files:       refs,
	})
	return err
}

// AddFileToAlbum appends a file to an album. The album is read and written
// back, two proxy calls. Adding a file already present is a no-op.
func (c *Client) AddFileToAlbum(ctx context.Context, albumID, fileID string) error {
	album, err := c.GetAlbum(ctx, albumID)
	if err != nil {
		return err
	}
	for _, file := range album.Files {
		if file.ID == fileID {
			return nil
		}
	}

	album.Files = append(album.Files, models.FileRecord{ID: fileID})
	album.Reconcile()
	return c.UpdateAlbum(ctx, album)
}

// RemoveFileFromAlbum drops a file from an album. Removing a file that is not
// in the album is a no-op.
func (c *Client) RemoveFileFromAlbum(ctx context.Context, albumID, fileID string) error {
	album, err := c.GetAlbum(ctx, albumID)
	if err != nil {
		return err
	}

	kept := make([]models.FileRecord, 0, len(album.Files))
	for _, file := range album.Files {
		if file.ID != fileID {
			kept = append(kept, file)
		}
	}
	if len(kept) == len(album.Files) {
		return nil
	}

	album.Files = kept
	album.Reconcile()
	return c.UpdateAlbum(ctx, album)
}

// DeleteAlbum deletes an album. Its files are kept.
func (c *Client) DeleteAlbum(ctx context.Context, albumID string) error {
	credential, err := c.requireCredential()
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodDelete, "/api/albums/"+url.PathEscape(albumID), keyQuery(credential), nil)
	return err
}

// DeleteFile deletes a file from the account.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	credential, err := c.requireCredential()
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPost, "/api/delete-file", nil, models.DeleteFileRequest{APIKey: credential, FileID: fileID})
	return err
}

// Passthrough sends an arbitrary call through the generic proxy route. The
// credential is attached when one is set.
func (c *Client) Passthrough(ctx context.Context, method, path string, body []byte) (Reply, error) {
	query := url.Values{"path": {path}}
	if credential := c.Credential(); credential != "" {
		query.Set("apiKey", credential)
	}

	var payload io.Reader
	if len(body) > 0 {
		payload = bytes.NewReader(body)
	}
	return c.send(ctx, method, "/api/proxy", query, payload)
}

// Health is the proxy's self description.
type Health struct {
	Version  string `json:"version"`
	Upstream string `json:"upstream"`
}

// Health asks the proxy for its version and upstream root.
func (c *Client) Health(ctx context.Context) (Health, error) {
	reply, err := c.do(ctx, http.MethodGet, "/api/health", nil, nil)
	if err != nil {
		return Health{}, err
	}
	var out Health
	if err := decodeInto(reply, &out); err != nil {
		return Health{}, err
	}
	return out, nil
}

func fileRefs(ids []string) []models.AlbumFileRef {
	refs := make([]models.AlbumFileRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, models.AlbumFileRef{ID: id})
	}
	return refs
}
