package normalize

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/suite"
)

// NormalizeTestSuite covers the upstream response classification.
type NormalizeTestSuite struct {
	suite.Suite
}

func jsonResp(status int, body string) Response {
	return Response{Status: status, ContentType: "application/json", Body: []byte(body)}
}

// roundTrip serializes an envelope the way the proxy does and decodes it back.
func (s *NormalizeTestSuite) roundTrip(v any) any {
	data, err := json.Marshal(v)
	s.Require().NoError(err)
	var out any
	s.Require().NoError(json.Unmarshal(data, &out))
	return out
}

func (s *NormalizeTestSuite) TestSuccessfulJSONUnchanged() {
	bodies := []string{
		`{"files":[{"id":"a","size":12345678901234}]}`,
		`[1,2,3]`,
		`{"nested":{"x":[true,null,"y"]}}`,
		`  {"padded":1}  `,
	}

	for _, body := range bodies {
		res := Normalize(jsonResp(http.StatusOK, body))
		env, ok := res.(JSONEnvelope)
		s.Require().True(ok, body)
		s.Equal(http.StatusOK, res.StatusCode())

		var want any
		s.Require().NoError(json.Unmarshal([]byte(body), &want))
		s.Equal(want, s.roundTrip(env.Envelope()), body)
	}
}

func (s *NormalizeTestSuite) TestLargeNumbersKeptVerbatim() {
	res := Normalize(jsonResp(http.StatusOK, `{"size":12345678901234567890}`))
	out, err := json.Marshal(res.Envelope())
	s.Require().NoError(err)
	s.JSONEq(`{"size":12345678901234567890}`, string(out))
}

func (s *NormalizeTestSuite) TestMislabelledJSON() {
	res := Normalize(Response{Status: http.StatusOK, ContentType: "text/plain", Body: []byte(`{"ok":true}`)})
	env, ok := res.(JSONEnvelope)
	s.Require().True(ok)
	s.Equal(map[string]any{"ok": true}, env.Value)
}

func (s *NormalizeTestSuite) TestJSONParseError() {
	body := `{"broken": ` + strings.Repeat("x", 2000)
	res := Normalize(jsonResp(http.StatusOK, body))

	perr, ok := res.(ParseError)
	s.Require().True(ok)
	s.Equal(http.StatusInternalServerError, res.StatusCode())
	s.Len(perr.RawText, MaxRawText)
	s.Equal(body[:MaxRawText], perr.RawText)

	env := res.Envelope().(map[string]any)
	s.Equal(false, env["success"])
	s.Equal(CodeUpstreamJSONParseError, env["code"])
	s.Contains(env["error"], "Failed to parse JSON response")
}

func (s *NormalizeTestSuite) TestTrailingGarbageIsParseError() {
	res := Normalize(jsonResp(http.StatusOK, `{"a":1} trailing`))
	_, ok := res.(ParseError)
	s.True(ok)
}

func (s *NormalizeTestSuite) TestEmptyBodyLabelledJSON() {
	res := Normalize(jsonResp(http.StatusOK, ""))
	_, ok := res.(ParseError)
	s.True(ok)
}

func (s *NormalizeTestSuite) TestHTMLReceived() {
	pages := []Response{
		{Status: http.StatusOK, ContentType: "text/html", Body: []byte("<!DOCTYPE html><html><body>Login</body></html>")},
		{Status: http.StatusOK, ContentType: "text/html", Body: []byte("<html><head></head></html>")},
		{Status: http.StatusOK, ContentType: "", Body: []byte("\n  <!doctype html>\n<title>x</title>")},
		// JSON label on an HTML page still reports the HTML page.
		{Status: http.StatusOK, ContentType: "application/json", Body: []byte("<!DOCTYPE html><html></html>")},
	}

	for _, page := range pages {
		res := Normalize(page)
		_, ok := res.(HTMLReceived)
		s.Require().True(ok, string(page.Body))
		s.Equal(http.StatusInternalServerError, res.StatusCode())

		env := res.Envelope().(map[string]any)
		s.Equal(false, env["success"])
		s.Equal(CodeUpstreamHTMLReceived, env["code"])
		s.Contains(env["error"], "HTML")
	}
}

func (s *NormalizeTestSuite) TestNonJSONText() {
	body := strings.Repeat("plain text ", 200)
	res := Normalize(Response{Status: http.StatusOK, ContentType: "text/plain; charset=utf-8", Body: []byte(body)})

	raw, ok := res.(RawText)
	s.Require().True(ok)
	s.Equal(http.StatusOK, res.StatusCode())
	s.Equal(body[:MaxRawText], raw.Text)

	env := res.Envelope().(map[string]any)
	s.Equal(true, env["success"])
	s.Equal(CodeUpstreamNonJSONContent, env["code"])
	s.Equal("text/plain; charset=utf-8", env["contentType"])
	s.Equal(body[:MaxRawText], env["text"])
}

func (s *NormalizeTestSuite) TestShortNonJSONTextKeptWhole() {
	res := Normalize(Response{Status: http.StatusOK, ContentType: "text/plain", Body: []byte("pong")})
	s.Equal(RawText{Text: "pong", ContentType: "text/plain"}, res)
}

func (s *NormalizeTestSuite) TestHTTPErrorWithJSON() {
	cases := []struct {
		body string
		want string
	}{
		{`{"error":"invalid api key"}`, "API error: 401 - invalid api key"},
		{`{"message":"authentication required"}`, "API error: 401 - authentication required"},
		{`{"error":"first","message":"second"}`, "API error: 401 - first"},
		{`{"success":false,"value":"unauthenticated"}`, "API error: 401 - Unauthorized"},
		{`["not","an","object"]`, "API error: 401 - Unauthorized"},
	}

	for _, tc := range cases {
		res := Normalize(jsonResp(http.StatusUnauthorized, tc.body))
		herr, ok := res.(HTTPError)
		s.Require().True(ok, tc.body)
		s.Equal(http.StatusUnauthorized, res.StatusCode())
		s.Equal(tc.want, herr.Error())
		s.Empty(herr.Details)

		env := res.Envelope().(map[string]any)
		s.Equal(false, env["success"])
		s.Equal(CodeUpstreamHTTPError, env["code"])
		s.Equal(tc.want, env["error"])
	}
}

func (s *NormalizeTestSuite) TestHTTPErrorWithTextBody() {
	body := strings.Repeat("e", 900)
	res := Normalize(Response{Status: http.StatusBadGateway, StatusText: "Bad Gateway", ContentType: "text/html", Body: []byte(body)})

	herr, ok := res.(HTTPError)
	s.Require().True(ok)
	s.Equal(http.StatusBadGateway, herr.StatusCode())
	s.Equal("API error: 502 - Bad Gateway", herr.Error())
	s.Len(herr.Details, MaxErrorDetail)

	env := res.Envelope().(map[string]any)
	s.Equal("Bad Gateway", env["statusText"])
	s.Equal(body[:MaxErrorDetail], env["details"])
}

func (s *NormalizeTestSuite) TestFailureStatusNeverSucceeds() {
	bodies := []string{`{"success":true}`, "<html></html>", "ok", "", `[]`}
	for status := 400; status < 600; status += 7 {
		for _, body := range bodies {
			res := Normalize(jsonResp(status, body))
			env, ok := res.Envelope().(map[string]any)
			s.Require().True(ok)
			s.Equal(false, env["success"], "status %d body %q", status, body)
		}
	}
}

func (s *NormalizeTestSuite) TestStatusTextFallsBackToStandard() {
	res := Normalize(Response{Status: http.StatusNotFound, Body: []byte("nope")})
	s.Equal("API error: 404 - Not Found", res.(HTTPError).Error())
}

func (s *NormalizeTestSuite) TestTruncateKeepsRunesWhole() {
	s.Equal("", Truncate("abc", 0))
	s.Equal("ab", Truncate("abc", 2))
	s.Equal("abc", Truncate("abc", 10))

	text := strings.Repeat("é", 20)
	cut := Truncate(text, 5)
	s.True(utf8.ValidString(cut))
	s.Equal(5, utf8.RuneCountInString(cut))
}

func (s *NormalizeTestSuite) TestAlbumShapes() {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"bare array", `[{"id":"a"}]`, `{"albums":[{"id":"a"}]}`},
		{"single album", `{"id":"a","title":"x"}`, `{"albums":[{"id":"a","title":"x"}]}`},
		{"title only", `{"title":"x","files":[]}`, `{"albums":[{"title":"x","files":[]}]}`},
		{"already wrapped", `{"albums":[{"id":"a"}]}`, `{"albums":[{"id":"a"}],"success":true}`},
		{"wrapped with success", `{"albums":[],"success":false}`, `{"albums":[],"success":false}`},
		{"error object", `{"error":"nope","id":"a"}`, `{"error":"nope","id":"a"}`},
		{"lists summary", `{"lists":[{"id":"L1","title":"T"}]}`, `{"lists":[{"id":"L1","title":"T"}],"success":true}`},
		{"null albums", `{"albums":null,"id":"a"}`, `{"albums":[{"albums":null,"id":"a"}]}`},
		{"empty albums array counts", `{"albums":[],"id":"a"}`, `{"albums":[],"id":"a","success":true}`},
		{"empty error ignored", `{"error":"","id":"a"}`, `{"albums":[{"error":"","id":"a"}]}`},
		{"false error ignored", `{"error":false,"title":"x"}`, `{"albums":[{"error":false,"title":"x"}]}`},
		{"empty id and title", `{"id":"","title":""}`, `{"id":"","title":"","success":true}`},
		{"zero id", `{"id":0,"name":"n"}`, `{"id":0,"name":"n","success":true}`},
		{"numeric id", `{"id":5}`, `{"albums":[{"id":5}]}`},
		{"scalar", `42`, `{"success":true,"data":42}`},
		{"null", `null`, `{"success":true}`},
	}

	for _, tc := range cases {
		res := NormalizeAlbums(jsonResp(http.StatusOK, tc.body))
		_, ok := res.(JSONEnvelope)
		s.Require().True(ok, tc.name)

		out, err := json.Marshal(res.Envelope())
		s.Require().NoError(err)
		s.JSONEq(tc.want, string(out), tc.name)
	}
}

func (s *NormalizeTestSuite) TestAlbumShapeLeavesFailuresAlone() {
	res := NormalizeAlbums(jsonResp(http.StatusForbidden, `{"message":"forbidden"}`))
	_, ok := res.(HTTPError)
	s.True(ok)

	res = NormalizeAlbums(Response{Status: http.StatusOK, ContentType: "text/html", Body: []byte("<html>")})
	_, ok = res.(HTMLReceived)
	s.True(ok)
}

func (s *NormalizeTestSuite) TestShapeAlbumsDoesNotMutateInput() {
	in := map[string]any{"albums": []any{}}
	out := ShapeAlbums(in).(map[string]any)
	s.NotContains(in, "success")
	s.Equal(true, out["success"])
}

func (s *NormalizeTestSuite) TestFailure() {
	env := Failure(CodeMissingParameter, "Missing path parameter")
	s.Equal(false, env["success"])
	s.Equal(CodeMissingParameter, env["code"])
	s.Equal("Missing path parameter", env["error"])
}

func TestNormalizeSuite(t *testing.T) {
	suite.Run(t, new(NormalizeTestSuite))
}
