package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"pixgallery/pkg/gallery"
	"pixgallery/pkg/log"
	"pixgallery/pkg/settings"
	"pixgallery/pkg/upstream"
)

// session is everything a command needs: the local store, the preferences
// read from it and a proxy client carrying the stored credential.
type session struct {
	store      *settings.Store
	prefs      settings.Settings
	client     *gallery.Client
	httpClient *http.Client
	closed     bool
}

func openSession(ctx context.Context) (*session, error) {
	if err := ensureStateDir(*dbPath); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	store, err := settings.NewStore(ctx, *dbPath)
	if err != nil {
		return nil, err
	}

	prefs, err := store.LoadSettings(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	credential, err := store.LoadCredential(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	httpClient := &http.Client{}
	client, err := gallery.NewClient(*proxyURL, httpClient)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	client.SetCredential(credential)

	return &session{
		store:      store,
		prefs:      prefs,
		client:     client,
		httpClient: httpClient,
	}, nil
}

func (s *session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if err := s.store.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close local store")
	}
}

// mediaBase resolves the upstream root used for direct media links.
func (s *session) mediaBase(ctx context.Context) gallery.Media {
	if *upstreamURL != "" {
		return gallery.NewMedia(*upstreamURL)
	}
	health, err := s.client.Health(ctx)
	if err != nil || health.Upstream == "" {
		log.Debug().Err(err).Msg("Proxy did not report its upstream, using the default")
		return gallery.NewMedia(upstream.DefaultBaseURL)
	}
	return gallery.NewMedia(health.Upstream)
}

func (s *session) view() gallery.View {
	return gallery.View{Settings: s.prefs}
}

func (s *session) render(snap gallery.Snapshot, view gallery.View) error {
	return gallery.Render(os.Stdout, snap, view)
}
