package gallery

import (
	"context"
	"errors"
	"sync"
	"time"

	"pixgallery/pkg/log"
	"pixgallery/pkg/models"

	"golang.org/x/sync/errgroup"
)

// Source is where the library fetches from; *Client satisfies it.
type Source interface {
	ListFiles(ctx context.Context) ([]models.FileRecord, error)
	ListAlbums(ctx context.Context) ([]models.AlbumRecord, error)
}

// Snapshot is a copy of the library state for rendering.
type Snapshot struct {
	Files      []models.FileRecord
	Albums     []models.AlbumRecord
	Expanded   map[string]bool
	Loading    bool
	Refreshing bool
	LastUpdate time.Time
	Err        error
}

// Library holds the fetched files and albums together with the loading,
// refresh and error state around them.
type Library struct {
	source Source
	now    func() time.Time

	mu          sync.Mutex
	files       []models.FileRecord
	albums      []models.AlbumRecord
	expanded    map[string]struct{}
	loading     bool
	refreshing  bool
	lastUpdate  time.Time
	err         error
	generation  uint64
	subscribers map[int]func(Snapshot)
	nextSubID   int

	// foregroundPending is set from the start of a foreground fetch until any
	// fetch lands; the one that lands reports to the user.
	foregroundPending bool
}

// NewLibrary creates an empty library over source.
func NewLibrary(source Source) *Library {
	return &Library{
		source:      source,
		now:         time.Now,
		files:       []models.FileRecord{},
		albums:      []models.AlbumRecord{},
		expanded:    make(map[string]struct{}),
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Load fetches files and albums with the loading indicator on. A failure is
// kept as the library error; data from earlier fetches stays.
func (l *Library) Load(ctx context.Context) error {
	return l.fetch(ctx, true)
}

// Retry repeats the foreground fetch after an error.
func (l *Library) Retry(ctx context.Context) error {
	return l.fetch(ctx, true)
}

// Refresh fetches in the background without the loading indicator. A failed
// refresh leaves both the data and the previous error as they were, unless it
// superseded a foreground fetch: then its failure is kept as the library error.
func (l *Library) Refresh(ctx context.Context) error {
	return l.fetch(ctx, false)
}

func (l *Library) fetch(ctx context.Context, foreground bool) error {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	if foreground {
		l.loading = true
		l.foregroundPending = true
	} else {
		l.refreshing = true
	}
	l.mu.Unlock()
	l.notify()

	files, albums, err := l.fetchAll(ctx)

	l.mu.Lock()
	if gen != l.generation {
		l.mu.Unlock()
		log.Debug().Uint64("generation", gen).Msg("Discarding superseded library fetch")
		return ErrSuperseded
	}

	// A refresh that superseded a load answers for it, failures included.
	userVisible := foreground || l.foregroundPending
	l.foregroundPending = false
	l.loading = false
	l.refreshing = false
	switch {
	case err == nil:
		l.setCollections(files, albums)
		l.lastUpdate = l.now()
		l.err = nil
	case userVisible:
		l.err = err
	}
	l.mu.Unlock()
	l.notify()

	if err != nil {
		log.Warn().Err(err).Bool("foreground", foreground).Msg("Library fetch failed")
	}
	return err
}

// fetchAll issues the files and albums listings concurrently as one fetch.
func (l *Library) fetchAll(ctx context.Context) ([]models.FileRecord, []models.AlbumRecord, error) {
	var (
		files  []models.FileRecord
		albums []models.AlbumRecord
	)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		files, err = l.source.ListFiles(gctx)
		return err
	})
	group.Go(func() error {
		var err error
		albums, err = l.source.ListAlbums(gctx)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	return files, albums, nil
}

// setCollections must be called with mu held.
func (l *Library) setCollections(files []models.FileRecord, albums []models.AlbumRecord) {
	wasEmpty := len(l.albums) == 0

	if files == nil {
		files = []models.FileRecord{}
	}
	if albums == nil {
		albums = []models.AlbumRecord{}
	}
	l.files = files
	l.albums = albums

	if wasEmpty && len(albums) > 0 {
		l.expanded = map[string]struct{}{albums[0].ID: {}}
	}
}

// Toggle flips an album between expanded and collapsed and reports the new state.
func (l *Library) Toggle(albumID string) bool {
	l.mu.Lock()
	_, open := l.expanded[albumID]
	if open {
		delete(l.expanded, albumID)
	} else {
		l.expanded[albumID] = struct{}{}
	}
	l.mu.Unlock()
	l.notify()
	return !open
}

// IsExpanded reports whether the album is expanded.
func (l *Library) IsExpanded(albumID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, open := l.expanded[albumID]
	return open
}

// IsRefreshing reports whether a background refresh is in flight.
func (l *Library) IsRefreshing() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refreshing
}

// LastUpdate is when a fetch last succeeded.
func (l *Library) LastUpdate() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastUpdate
}

// Err is the error shown in the banner, nil when the last foreground fetch succeeded.
func (l *Library) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Snapshot copies the current state.
func (l *Library) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Library) snapshotLocked() Snapshot {
	files := make([]models.FileRecord, len(l.files))
	copy(files, l.files)
	albums := make([]models.AlbumRecord, len(l.albums))
	copy(albums, l.albums)
	expanded := make(map[string]bool, len(l.expanded))
	for id := range l.expanded {
		expanded[id] = true
	}

	return Snapshot{
		Files:      files,
		Albums:     albums,
		Expanded:   expanded,
		Loading:    l.loading,
		Refreshing: l.refreshing,
		LastUpdate: l.lastUpdate,
		Err:        l.err,
	}
}

// Subscribe registers fn to receive a snapshot after every state change. The
// returned func removes it.
func (l *Library) Subscribe(fn func(Snapshot)) func() {
	l.mu.Lock()
	id := l.nextSubID
	l.nextSubID++
	l.subscribers[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.subscribers, id)
		l.mu.Unlock()
	}
}

func (l *Library) notify() {
	l.mu.Lock()
	if len(l.subscribers) == 0 {
		l.mu.Unlock()
		return
	}
	snap := l.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(l.subscribers))
	for _, fn := range l.subscribers {
		subs = append(subs, fn)
	}
	l.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// IsCanceled reports whether err came from a cancelled or superseded fetch.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, ErrSuperseded)
}
