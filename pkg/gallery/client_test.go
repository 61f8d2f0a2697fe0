package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"pixgallery/pkg/config"
	"pixgallery/pkg/normalize"
	"pixgallery/pkg/server/proxy"

	"github.com/stretchr/testify/suite"
)

// ClientTestSuite runs the client against the real proxy in front of a mock upstream.
type ClientTestSuite struct {
	suite.Suite
	ctx          context.Context
	mockUpstream *httptest.Server
	proxyServer  *httptest.Server
	client       *Client

	mu     sync.Mutex
	album  map[string]interface{}
	puts   []string
	lists  string
	calls  []string
	userCT string
	user   string
}

func (s *ClientTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.album = map[string]interface{}{
		"id":    "L1",
		"title": "Trip",
		"files": []interface{}{map[string]interface{}{"id": "f1", "name": "a.png"}},
	}
	s.puts = nil
	s.calls = nil
	s.lists = `{"lists":[{"id":"L1","title":"T"}]}`
	s.userCT = "application/json"
	s.user = `{"username":"alice"}`

	s.mockUpstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.calls = append(s.calls, r.Method+" "+r.URL.Path)

		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"authentication required"}`))
			return
		}

		switch {
		case r.URL.Path == "/api/user":
			w.Header().Set("Content-Type", s.userCT)
			w.Write([]byte(s.user))
		case r.URL.Path == "/api/user/files":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"files":[{"id":"f1","name":"a.png","size":10,"mime_type":"image/png"},{"id":"f2","size":-5}]}`))
		case r.URL.Path == "/api/user/lists":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(s.lists))
		case r.URL.Path == "/api/list/L1" && r.Method == http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(s.album)
		case r.URL.Path == "/api/list/L1" && r.Method == http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			s.puts = append(s.puts, string(body))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success":true}`))
		case r.URL.Path == "/api/list" && r.Method == http.MethodPost:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success":true,"id":"L9"}`))
		case r.URL.Path == "/api/list/missing":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"success":false,"value":"not_found","message":"The list could not be found"}`))
		case r.URL.Path == "/api/ping":
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("pong"))
		default:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success":true}`))
		}
	}))

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.UpstreamBaseURL = s.mockUpstream.URL + "/api"
	srv, err := proxy.NewServer(cfg, "test")
	s.Require().NoError(err)
	s.proxyServer = httptest.NewServer(srv.Handler())

	s.client, err = NewClient(s.proxyServer.URL, s.proxyServer.Client())
	s.Require().NoError(err)
	s.client.SetCredential("secret")
}

func (s *ClientTestSuite) TearDownTest() {
	s.proxyServer.Close()
	s.mockUpstream.Close()
}

func (s *ClientTestSuite) putBodies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.puts...)
}

func (s *ClientTestSuite) setUpstream(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *ClientTestSuite) upstreamCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *ClientTestSuite) TestListAlbumsFromListsSummary() {
	albums, err := s.client.ListAlbums(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(albums, 1)
	s.Equal("L1", albums[0].ID)
	s.Equal("T", albums[0].Title)
	s.Equal(0, albums[0].FileCount)
	s.NotNil(albums[0].Files)
}

func (s *ClientTestSuite) TestListAlbumsFromBareArray() {
	s.setUpstream(func() {
		s.lists = `[{"id":"A"},{"id":"B","title":"Named","files":[{"id":"x"}],"file_count":7}]`
	})

	albums, err := s.client.ListAlbums(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(albums, 2)
	s.Equal("Untitled album", albums[0].Title)
	s.Equal(1, albums[1].FileCount)
}

func (s *ClientTestSuite) TestListFilesAppliesDefaults() {
	files, err := s.client.ListFiles(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(files, 2)
	s.Equal("a.png", files[0].Name)
	s.Equal("Unnamed file", files[1].Name)
	s.Zero(files[1].Size)
}

func (s *ClientTestSuite) TestNoCredential() {
	s.client.SetCredential("")

	_, err := s.client.ListFiles(s.ctx)
	s.ErrorIs(err, ErrNotAuthenticated)
	s.Empty(s.upstreamCalls())
}

func (s *ClientTestSuite) TestAuthenticate() {
	s.client.SetCredential("")

	user, err := s.client.Authenticate(s.ctx, " secret ")
	s.Require().NoError(err)
	s.Require().NotNil(user)
	s.Equal("alice", user.Username)
	s.Equal("secret", s.client.Credential())
}

func (s *ClientTestSuite) TestAuthenticateHTMLIsCredentialRejected() {
	s.setUpstream(func() {
		s.userCT = "text/html"
		s.user = "<!DOCTYPE html><html>login</html>"
	})
	s.client.SetCredential("")

	_, err := s.client.Authenticate(s.ctx, "wrong")
	s.Require().Error(err)
	s.ErrorIs(err, ErrCredentialRejected)

	var apiErr *APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(normalize.CodeUpstreamHTMLReceived, apiErr.Code)
	s.Equal(http.StatusInternalServerError, apiErr.Status)
	s.Empty(s.client.Credential())
}

func (s *ClientTestSuite) TestUnauthorizedPassthrough() {
	s.client.SetCredential("")

	_, err := s.client.Passthrough(s.ctx, http.MethodGet, "/user/files", nil)
	s.Require().Error(err)
	s.ErrorIs(err, ErrCredentialRejected)

	var apiErr *APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusUnauthorized, apiErr.Status)
	s.True(strings.HasPrefix(apiErr.Message, "API error: 401 - "))
}

func (s *ClientTestSuite) TestPassthroughNonJSON() {
	reply, err := s.client.Passthrough(s.ctx, http.MethodGet, "/ping", nil)
	s.Require().NoError(err)
	s.True(reply.NonJSON)
	s.Equal("pong", reply.Text)
	s.Equal("text/plain", reply.ContentType)
}

func (s *ClientTestSuite) TestGetAlbumNotFound() {
	_, err := s.client.GetAlbum(s.ctx, "missing")

	var apiErr *APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusNotFound, apiErr.Status)
	s.Equal("API error: 404 - The list could not be found", apiErr.Message)
	s.NotErrorIs(err, ErrCredentialRejected)
}

func (s *ClientTestSuite) TestCreateAlbum() {
	id, err := s.client.CreateAlbum(s.ctx, "New", "desc", []string{"f1", "f2"})
	s.Require().NoError(err)
	s.Equal("L9", id)
}

func (s *ClientTestSuite) TestAddFileReadsThenWrites() {
	s.Require().NoError(s.client.AddFileToAlbum(s.ctx, "L1", "f2"))

	s.Equal([]string{"GET /api/list/L1", "PUT /api/list/L1"}, s.upstreamCalls())
	puts := s.putBodies()
	s.Require().Len(puts, 1)
	s.JSONEq(`{"title":"Trip","anonymous":false,"files":[{"id":"f1"},{"id":"f2"}]}`, puts[0])
}

func (s *ClientTestSuite) TestAddExistingFileIsNoop() {
	s.Require().NoError(s.client.AddFileToAlbum(s.ctx, "L1", "f1"))
	s.Empty(s.putBodies())
}

func (s *ClientTestSuite) TestRemoveFile() {
	s.Require().NoError(s.client.RemoveFileFromAlbum(s.ctx, "L1", "f1"))
	puts := s.putBodies()
	s.Require().Len(puts, 1)
	s.JSONEq(`{"title":"Trip","anonymous":false,"files":[]}`, puts[0])

	s.Require().NoError(s.client.RemoveFileFromAlbum(s.ctx, "L1", "nope"))
	s.Len(s.putBodies(), 1)
}

func (s *ClientTestSuite) TestDeletes() {
	s.Require().NoError(s.client.DeleteAlbum(s.ctx, "L1"))
	s.Require().NoError(s.client.DeleteFile(s.ctx, "f1"))

	s.Equal([]string{"DELETE /api/list/L1", "DELETE /api/file/f1"}, s.upstreamCalls())
}

func (s *ClientTestSuite) TestHealth() {
	health, err := s.client.Health(s.ctx)
	s.Require().NoError(err)
	s.Equal("test", health.Version)
	s.Equal(s.mockUpstream.URL+"/api", health.Upstream)
}

func (s *ClientTestSuite) TestProxyDown() {
	s.proxyServer.Close()

	_, err := s.client.ListFiles(s.ctx)
	s.ErrorIs(err, ErrProxyUnreachable)
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func TestInterpret(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, reply Reply, err error)
	}{
		{"plain json", 200, `{"files":[]}`, func(t *testing.T, reply Reply, err error) {
			if err != nil || string(reply.Body) != `{"files":[]}` {
				t.Fatalf("got %v %s", err, reply.Body)
			}
		}},
		{"array", 200, `[1]`, func(t *testing.T, reply Reply, err error) {
			if err != nil || string(reply.Body) != `[1]` {
				t.Fatalf("got %v %s", err, reply.Body)
			}
		}},
		{"success false in 2xx", 200, `{"success":false,"value":"nope"}`, func(t *testing.T, _ Reply, err error) {
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Message != "nope" {
				t.Fatalf("got %v", err)
			}
		}},
		{"missing parameter", 400, `{"success":false,"code":"missing_parameter","error":"Missing path parameter"}`, func(t *testing.T, _ Reply, err error) {
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Code != normalize.CodeMissingParameter {
				t.Fatalf("got %v", err)
			}
		}},
		{"garbage", 502, `<html>bad gateway</html>`, func(t *testing.T, _ Reply, err error) {
			if !errors.Is(err, ErrProxyUnreachable) {
				t.Fatalf("got %v", err)
			}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reply, err := interpret(tc.status, []byte(tc.body))
			tc.check(t, reply, err)
		})
	}
}
