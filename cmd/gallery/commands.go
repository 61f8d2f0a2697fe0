package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"pixgallery/pkg/gallery"
	"pixgallery/pkg/log"
	"pixgallery/pkg/models"
	"pixgallery/pkg/settings"

	"github.com/dustin/go-humanize"
)

func (s *session) login(ctx context.Context, key string) error {
	if key == "" {
		prompted, err := promptCredential()
		if err != nil {
			return err
		}
		key = prompted
	}

	user, err := s.client.Authenticate(ctx, key)
	if err != nil {
		return err
	}
	if err := s.store.SaveCredential(ctx, s.client.Credential()); err != nil {
		return err
	}

	if user != nil && user.Username != "" {
		fmt.Printf("Logged in as %s (%s used)\n", user.Username, humanize.Bytes(uint64(user.StorageSpaceUsed)))
	} else {
		fmt.Println("Authentication successful")
	}
	return nil
}

func (s *session) logout(ctx context.Context) error {
	s.client.SetCredential("")
	if err := s.store.ClearCredential(ctx); err != nil {
		return err
	}
	fmt.Println("API key removed")
	return nil
}

func (s *session) show(ctx context.Context, grid, list bool) error {
	library := gallery.NewLibrary(s.client)
	if err := library.Load(ctx); err != nil && !gallery.IsCanceled(err) {
		log.Debug().Err(err).Msg("Initial load failed")
	}

	view := s.view()
	view.RetryHint = showRetryHint
	switch {
	case grid:
		view.Settings.ViewMode = settings.ViewGrid
	case list:
		view.Settings.ViewMode = settings.ViewList
	}

	snap := library.Snapshot()
	if err := s.render(snap, view); err != nil {
		return err
	}
	return snap.Err
}

func (s *session) watch(ctx context.Context, interval time.Duration) error {
	library := gallery.NewLibrary(s.client)
	view := s.view()
	view.RetryHint = watchRetryHint

	// Retries and background refreshes redraw from different goroutines.
	var drawMu sync.Mutex
	redraw := func(snap gallery.Snapshot) {
		if snap.Loading {
			return
		}
		drawMu.Lock()
		defer drawMu.Unlock()
		fmt.Print("\033[H\033[2J")
		view.Now = time.Now()
		if err := s.render(snap, view); err != nil {
			log.Warn().Err(err).Msg("Render failed")
		}
	}

	unsubscribe := library.Subscribe(redraw)
	defer unsubscribe()

	if err := library.Load(ctx); err != nil && !gallery.IsCanceled(err) {
		log.Debug().Err(err).Msg("Initial load failed")
	}

	go retryOnInput(ctx, os.Stdin, library)

	if !s.prefs.AutoRefresh {
		fmt.Fprintln(os.Stderr, "auto_refresh is off, press r and Enter to reload")
		<-ctx.Done()
		return nil
	}

	refresher := gallery.NewRefresher(library, interval)
	refresher.Start(ctx)
	<-ctx.Done()
	refresher.Stop()
	return nil
}

const (
	showRetryHint  = "Run gallery show again to retry."
	watchRetryHint = "Press r and Enter to retry."
)

// retryOnInput runs a foreground retry for every "r" or "retry" line read
// from in, until in is exhausted or ctx is done.
func retryOnInput(ctx context.Context, in io.Reader, library *gallery.Library) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "r", "retry":
			if err := library.Retry(ctx); err != nil && !gallery.IsCanceled(err) {
				log.Debug().Err(err).Msg("Retry failed")
			}
		}
	}
}

func (s *session) albumShow(ctx context.Context, albumID string) error {
	if albumID == "" {
		picked, err := s.pickAlbum(ctx, "Album to show")
		if err != nil {
			return err
		}
		albumID = picked
	}

	album, err := s.client.GetAlbum(ctx, albumID)
	if err != nil {
		return err
	}

	snap := gallery.Snapshot{
		Files:    album.Files,
		Albums:   []models.AlbumRecord{album},
		Expanded: map[string]bool{album.ID: true},
	}
	return s.render(snap, s.view())
}

func (s *session) albumCreate(ctx context.Context, title, description string, fileIDs []string) error {
	if strings.TrimSpace(title) == "" {
		prompted, err := promptText("Album title", true)
		if err != nil {
			return err
		}
		title = prompted
	}

	if len(fileIDs) == 0 && interactive() {
		files, err := s.client.ListFiles(ctx)
		if err != nil {
			return err
		}
		fileIDs, err = pickFiles("Files to put in the album", files)
		if err != nil {
			return err
		}
	}

	id, err := s.client.CreateAlbum(ctx, title, description, fileIDs)
	if err != nil {
		return err
	}
	fmt.Printf("Created album %q (%s) with %d files\n", title, id, len(fileIDs))
	return nil
}

func (s *session) albumAdd(ctx context.Context, albumID, fileID string) error {
	albumID, fileID, err := s.albumAndFile(ctx, albumID, fileID, nil)
	if err != nil {
		return err
	}
	if err := s.client.AddFileToAlbum(ctx, albumID, fileID); err != nil {
		return err
	}
	fmt.Printf("Added %s to album %s\n", fileID, albumID)
	return nil
}

func (s *session) albumRemove(ctx context.Context, albumID, fileID string) error {
	albumID, fileID, err := s.albumAndFile(ctx, albumID, fileID, func(ctx context.Context, id string) ([]models.FileRecord, error) {
		album, err := s.client.GetAlbum(ctx, id)
		return album.Files, err
	})
	if err != nil {
		return err
	}
	if err := s.client.RemoveFileFromAlbum(ctx, albumID, fileID); err != nil {
		return err
	}
	fmt.Printf("Removed %s from album %s\n", fileID, albumID)
	return nil
}

type fileLister func(ctx context.Context, albumID string) ([]models.FileRecord, error)

// albumAndFile fills in missing ids with pickers. candidates narrows the file
// choice to the album; nil offers every file.
func (s *session) albumAndFile(ctx context.Context, albumID, fileID string, candidates fileLister) (string, string, error) {
	if albumID == "" {
		picked, err := s.pickAlbum(ctx, "Album")
		if err != nil {
			return "", "", err
		}
		albumID = picked
	}

	if fileID == "" {
		if !interactive() {
			return "", "", errors.New("file id is required")
		}
		var (
			files []models.FileRecord
			err   error
		)
		if candidates != nil {
			files, err = candidates(ctx, albumID)
		} else {
			files, err = s.client.ListFiles(ctx)
		}
		if err != nil {
			return "", "", err
		}
		fileID, err = pickFile("File", files)
		if err != nil {
			return "", "", err
		}
	}
	return albumID, fileID, nil
}

func (s *session) albumDelete(ctx context.Context, albumID string, yes bool) error {
	if albumID == "" {
		picked, err := s.pickAlbum(ctx, "Album to delete")
		if err != nil {
			return err
		}
		albumID = picked
	}

	if s.prefs.ConfirmDelete && !yes {
		ok, err := confirm(fmt.Sprintf("Delete album %s? The files stay in your account.", albumID))
		if err != nil || !ok {
			return err
		}
	}

	if err := s.client.DeleteAlbum(ctx, albumID); err != nil {
		return err
	}
	fmt.Printf("Deleted album %s\n", albumID)
	return nil
}

func (s *session) deleteFile(ctx context.Context, fileID string, yes bool) error {
	if fileID == "" {
		if !interactive() {
			return errors.New("file id is required")
		}
		files, err := s.client.ListFiles(ctx)
		if err != nil {
			return err
		}
		if fileID, err = pickFile("File to delete", files); err != nil {
			return err
		}
	}

	if s.prefs.ConfirmDelete && !yes {
		ok, err := confirm(fmt.Sprintf("Delete file %s permanently?", fileID))
		if err != nil || !ok {
			return err
		}
	}

	if err := s.client.DeleteFile(ctx, fileID); err != nil {
		return err
	}
	fmt.Printf("Deleted file %s\n", fileID)
	return nil
}

func (s *session) preview(ctx context.Context, ids []string) error {
	files, err := s.client.ListFiles(ctx)
	if err != nil {
		return err
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	set := gallery.NewPreviewSet(s.mediaBase(ctx))
	var previews []gallery.Preview
	for _, file := range gallery.SortFiles(files, s.prefs.SortKey, s.prefs.SortOrder) {
		if len(wanted) > 0 && !wanted[file.ID] {
			continue
		}
		set.Open(file)
		if err := set.Probe(ctx, s.httpClient, file.ID); err != nil {
			log.Debug().Err(err).Str("file", file.ID).Msg("Preview failed")
		}
		p, _ := set.Get(file.ID)
		previews = append(previews, p)
	}

	if len(previews) == 0 {
		return errors.New("no matching files")
	}
	return gallery.RenderPreview(os.Stdout, previews)
}

func (s *session) settingsShow() error {
	for _, field := range settings.Fields() {
		value, err := s.prefs.Get(field)
		if err != nil {
			return err
		}
		fmt.Printf("%-16s %s\n", field, value)
	}
	return nil
}

func (s *session) settingsSet(ctx context.Context, field, value string) error {
	if value == "" {
		picked, err := pickSetting(field, s.prefs)
		if err != nil {
			return err
		}
		value = picked
	}

	if err := s.prefs.Set(field, value); err != nil {
		return err
	}
	if err := s.store.SaveSettings(ctx, s.prefs); err != nil {
		return err
	}
	return s.settingsShow()
}

func (s *session) settingsReset(ctx context.Context) error {
	s.prefs = settings.Defaults()
	if err := s.store.SaveSettings(ctx, s.prefs); err != nil {
		return err
	}
	return s.settingsShow()
}

func (s *session) raw(ctx context.Context, method, path, data string) error {
	reply, err := s.client.Passthrough(ctx, method, path, []byte(data))
	if err != nil {
		return err
	}
	if reply.NonJSON {
		fmt.Printf("%d %s\n%s\n", reply.Status, reply.ContentType, reply.Text)
		return nil
	}
	fmt.Printf("%d %s\n%s\n", reply.Status, http.StatusText(reply.Status), reply.Body)
	return nil
}

func (s *session) pickAlbum(ctx context.Context, title string) (string, error) {
	if !interactive() {
		return "", errors.New("album id is required")
	}
	albums, err := s.client.ListAlbums(ctx)
	if err != nil {
		return "", err
	}
	return pickAlbum(title, gallery.SortAlbums(albums, settings.SortByName, settings.OrderAsc))
}
