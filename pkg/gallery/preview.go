package gallery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"pixgallery/pkg/models"
)

// Kind selects the inline viewer for a file.
type Kind int

const (
	KindGeneric Kind = iota
	KindImage
	KindVideo
	KindAudio
	KindPDF
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindPDF:
		return "pdf"
	}
	return "generic"
}

// KindFor dispatches on the MIME type alone.
func KindFor(mimeType string) Kind {
	mimeType = baseMIME(mimeType)
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return KindImage
	case strings.HasPrefix(mimeType, "video/"):
		return KindVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return KindAudio
	case mimeType == "application/pdf":
		return KindPDF
	}
	return KindGeneric
}

// Media builds direct media URLs on the upstream.
type Media struct {
	base string
}

// NewMedia roots media URLs at the upstream API base.
func NewMedia(upstreamBase string) Media {
	return Media{base: strings.TrimRight(upstreamBase, "/")}
}

// FileURL serves the file inline.
func (m Media) FileURL(id string) string {
	return m.base + "/file/" + url.PathEscape(id)
}

// DownloadURL serves the file as an attachment.
func (m Media) DownloadURL(id string) string {
	return m.FileURL(id) + "?download"
}

// ThumbnailURL is the upstream-generated thumbnail.
func (m Media) ThumbnailURL(id string) string {
	return m.FileURL(id) + "/thumbnail"
}

// PreviewState is the per-file viewer state.
type PreviewState int

const (
	StateLoading PreviewState = iota
	StateReady
	StateErrored
)

func (s PreviewState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateErrored:
		return "errored"
	}
	return "loading"
}

// Preview is the viewer for one file: Loading, then Ready or Errored.
// Errored is terminal and carries the direct download fallback.
type Preview struct {
	File     models.FileRecord
	Kind     Kind
	State    PreviewState
	Source   string
	Controls bool
	Autoplay bool

	// Thumbnail is empty once the thumbnail failed; Icon is used instead.
	Thumbnail string
	Icon      string

	Fallback string
	Err      string
}

// NewPreview prepares the viewer for file.
func NewPreview(file models.FileRecord, media Media) *Preview {
	kind := KindFor(file.MimeType)
	p := &Preview{
		File:      file,
		Kind:      kind,
		State:     StateLoading,
		Source:    media.FileURL(file.ID),
		Thumbnail: media.ThumbnailURL(file.ID),
		Icon:      IconFor(file.MimeType),
		Fallback:  media.DownloadURL(file.ID),
	}

	switch kind {
	case KindVideo:
		p.Controls = true
		p.Autoplay = true
	case KindAudio:
		p.Controls = true
	case KindGeneric:
		// The generic card has nothing to load.
		p.State = StateReady
	}
	return p
}

// Loaded moves a loading preview to Ready.
func (p *Preview) Loaded() {
	if p.State == StateLoading {
		p.State = StateReady
	}
}

// Failed moves the preview to Errored from any state.
func (p *Preview) Failed(err error) {
	if p.State == StateErrored {
		return
	}
	p.State = StateErrored
	p.Err = "could not be displayed"
	if err != nil {
		p.Err = err.Error()
	}
}

// ThumbnailFailed drops the thumbnail so the icon is shown.
func (p *Preview) ThumbnailFailed() {
	p.Thumbnail = ""
}

// Describe is a one-line summary of what the viewer shows.
func (p *Preview) Describe() string {
	switch p.State {
	case StateErrored:
		return fmt.Sprintf("%s: %s, download directly: %s", p.File.Name, p.Err, p.Fallback)
	case StateLoading:
		return fmt.Sprintf("%s: loading %s", p.File.Name, p.Kind)
	}

	switch p.Kind {
	case KindImage:
		return fmt.Sprintf("image %s", p.Source)
	case KindVideo:
		return fmt.Sprintf("video %s (controls, autoplay)", p.Source)
	case KindAudio:
		return fmt.Sprintf("audio %s (controls)", p.Source)
	case KindPDF:
		return fmt.Sprintf("document %s", p.Source)
	}

	visual := p.Thumbnail
	if visual == "" {
		visual = Glyph(p.Icon)
	}
	return fmt.Sprintf("%s %s, download directly: %s", visual, p.File.Name, p.Fallback)
}

// PreviewSet keeps one independent preview per file id.
type PreviewSet struct {
	media Media

	mu       sync.Mutex
	previews map[string]*Preview
}

// NewPreviewSet creates an empty set.
func NewPreviewSet(media Media) *PreviewSet {
	return &PreviewSet{media: media, previews: make(map[string]*Preview)}
}

// Open returns the preview for file, creating it on first use.
func (s *PreviewSet) Open(file models.FileRecord) Preview {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.previews[file.ID]
	if !ok {
		p = NewPreview(file, s.media)
		s.previews[file.ID] = p
	}
	return *p
}

// Get returns a copy of the preview for id.
func (s *PreviewSet) Get(id string) (Preview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.previews[id]
	if !ok {
		return Preview{}, false
	}
	return *p, true
}

// Loaded reports a successful media load for id.
func (s *PreviewSet) Loaded(id string) {
	s.update(id, func(p *Preview) { p.Loaded() })
}

// Failed reports a media load or playback error for id. Other files are untouched.
func (s *PreviewSet) Failed(id string, err error) {
	s.update(id, func(p *Preview) { p.Failed(err) })
}

// ThumbnailFailed reports a broken thumbnail for id.
func (s *PreviewSet) ThumbnailFailed(id string) {
	s.update(id, func(p *Preview) { p.ThumbnailFailed() })
}

func (s *PreviewSet) update(id string, fn func(*Preview)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.previews[id]; ok {
		fn(p)
	}
}

// Probe fetches the headers of the media behind id and settles its state the
// way a media element would: Loaded on success, Failed otherwise. A generic
// card only checks its thumbnail.
func (s *PreviewSet) Probe(ctx context.Context, client *http.Client, id string) error {
	p, ok := s.Get(id)
	if !ok {
		return fmt.Errorf("no preview open for %s", id)
	}

	if p.Kind == KindGeneric {
		if err := head(ctx, client, p.Thumbnail); err != nil {
			s.ThumbnailFailed(id)
		}
		return nil
	}

	if err := head(ctx, client, p.Source); err != nil {
		s.Failed(id, err)
		return err
	}
	s.Loaded(id)
	return nil
}

func head(ctx context.Context, client *http.Client, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("media request: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("media request: unexpected status %d", resp.StatusCode)
	}
	return nil
}
