package gallery

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"pixgallery/pkg/models"
	"pixgallery/pkg/normalize"
	"pixgallery/pkg/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stamp(t *testing.T, value string) models.Timestamp {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return models.Timestamp{Time: parsed}
}

func sampleFiles(t *testing.T) []models.FileRecord {
	return []models.FileRecord{
		{ID: "b", Name: "beta.png", Size: 300, MimeType: "image/png", DateUpload: stamp(t, "2026-01-02T00:00:00Z")},
		{ID: "a", Name: "Alpha.mp4", Size: 100, MimeType: "video/mp4", DateUpload: stamp(t, "2026-01-03T00:00:00Z")},
		{ID: "c", Name: "gamma.zip", Size: 200, MimeType: "application/zip", DateUpload: stamp(t, "2026-01-01T00:00:00Z")},
	}
}

func ids(files []models.FileRecord) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.ID
	}
	return out
}

func TestSortFiles(t *testing.T) {
	files := sampleFiles(t)

	assert.Equal(t, []string{"a", "b", "c"}, ids(SortFiles(files, settings.SortByName, settings.OrderAsc)))
	assert.Equal(t, []string{"c", "b", "a"}, ids(SortFiles(files, settings.SortByName, settings.OrderDesc)))
	assert.Equal(t, []string{"a", "c", "b"}, ids(SortFiles(files, settings.SortBySize, settings.OrderAsc)))
	assert.Equal(t, []string{"a", "b", "c"}, ids(SortFiles(files, settings.SortByDate, settings.OrderDesc)))

	// Input order is untouched.
	assert.Equal(t, []string{"b", "a", "c"}, ids(files))
}

func TestSortAlbums(t *testing.T) {
	in := []models.AlbumRecord{
		{ID: "1", Title: "zoo", FileCount: 1, DateCreated: stamp(t, "2025-01-01T00:00:00Z")},
		{ID: "2", Title: "Art", FileCount: 5, DateCreated: stamp(t, "2025-06-01T00:00:00Z")},
	}

	byName := SortAlbums(in, settings.SortByName, settings.OrderAsc)
	assert.Equal(t, "2", byName[0].ID)
	bySize := SortAlbums(in, settings.SortBySize, settings.OrderDesc)
	assert.Equal(t, "2", bySize[0].ID)
	byDate := SortAlbums(in, settings.SortByDate, settings.OrderAsc)
	assert.Equal(t, "1", byDate[0].ID)
	assert.Equal(t, "1", in[0].ID)
}

func renderString(t *testing.T, snap Snapshot, view View) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, Render(&out, snap, view))
	return out.String()
}

func TestRenderList(t *testing.T) {
	now := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	album := models.AlbumRecord{ID: "L1", Title: "Trip", Files: sampleFiles(t)[:1]}
	album.Reconcile()

	snap := Snapshot{
		Files:      sampleFiles(t),
		Albums:     []models.AlbumRecord{album},
		Expanded:   map[string]bool{"L1": true},
		LastUpdate: now.Add(-2 * time.Minute),
		Refreshing: true,
	}
	out := renderString(t, snap, View{Settings: settings.Defaults(), Now: now})

	assert.Contains(t, out, "Gallery: 3 files, 1 album")
	assert.Contains(t, out, "Refreshing...")
	assert.Contains(t, out, "Last updated 2 minutes ago")
	assert.Contains(t, out, "- Trip")
	assert.Contains(t, out, "(1 file, L1)")
	assert.Contains(t, out, "[img] beta.png")
	assert.Contains(t, out, "Downloads")
	assert.Contains(t, out, "300 B")
	assert.NotContains(t, out, "Error:")
}

func TestRenderWithoutDetails(t *testing.T) {
	s := settings.Defaults()
	s.ShowDetails = false
	s.ShowThumbnails = false

	out := renderString(t, Snapshot{Files: sampleFiles(t)}, View{Settings: s})
	assert.NotContains(t, out, "Downloads")
	assert.NotContains(t, out, "[vid]")
	assert.Contains(t, out, "No albums yet.")
}

func TestRenderGrid(t *testing.T) {
	s := settings.Defaults()
	s.ViewMode = settings.ViewGrid
	s.Theme = settings.ThemeDark

	out := renderString(t, Snapshot{Files: sampleFiles(t)}, View{Settings: s})
	assert.Contains(t, out, "Alpha.mp4")
	assert.Contains(t, out, "video")
	assert.Contains(t, out, "╭")
}

func TestRenderLoadingAndErrors(t *testing.T) {
	out := renderString(t, Snapshot{Loading: true}, View{Settings: settings.Defaults()})
	assert.Contains(t, out, "Loading...")
	assert.NotContains(t, out, "Albums")

	rejected := &APIError{Status: 500, Code: normalize.CodeUpstreamHTMLReceived, Message: "html"}
	out = renderString(t, Snapshot{Err: rejected}, View{Settings: settings.Defaults()})
	assert.Contains(t, out, "The API key was rejected")

	out = renderString(t, Snapshot{Err: errors.New("disk on fire")}, View{Settings: settings.Defaults()})
	assert.Contains(t, out, "Error: disk on fire "+DefaultRetryHint)
	assert.Contains(t, out, "No files yet.")

	out = renderString(t, Snapshot{Err: errors.New("disk on fire")}, View{Settings: settings.Defaults(), RetryHint: "Press r to retry."})
	assert.Contains(t, out, "Error: disk on fire Press r to retry.")
	assert.NotContains(t, out, DefaultRetryHint)
}

func TestRenderPreview(t *testing.T) {
	set := NewPreviewSet(NewMedia("https://h/api"))
	set.Open(models.FileRecord{ID: "v", Name: "clip", MimeType: "video/mp4"})
	set.Loaded("v")
	p, _ := set.Get("v")

	var out bytes.Buffer
	require.NoError(t, RenderPreview(&out, []Preview{p}))
	assert.Contains(t, out.String(), "ready")
	assert.Contains(t, out.String(), "controls, autoplay")
}

func TestHint(t *testing.T) {
	assert.Empty(t, Hint(nil))
	assert.Contains(t, Hint(&APIError{Status: 403}), "rejected")
	assert.Contains(t, Hint(ErrNotAuthenticated), "login")
	assert.Equal(t, "API error: 404 - nope", Hint(&APIError{Status: 404, Message: "API error: 404 - nope"}))
}
