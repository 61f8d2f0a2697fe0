package models

// UntitledAlbum is shown for albums without a title.
const UntitledAlbum = "Untitled album"

// AlbumRecord is a user album ("list" on the hosting service).
type AlbumRecord struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	DateCreated Timestamp    `json:"date_created"`
	Files       []FileRecord `json:"files"`
	CanEdit     bool         `json:"can_edit"`

	// FileCount is derived from Files. Call Reconcile after Files changes.
	FileCount int `json:"file_count"`
}

// Reconcile applies defaults and recomputes FileCount from Files. A count
// reported by the upstream is discarded when it disagrees with the files.
func (a *AlbumRecord) Reconcile() {
	if a.Title == "" {
		a.Title = UntitledAlbum
	}
	if a.Files == nil {
		a.Files = []FileRecord{}
	}
	for i := range a.Files {
		a.Files[i].ApplyDefaults()
	}
	a.FileCount = len(a.Files)
}

// FileIDs returns the ids of the album files in order.
func (a *AlbumRecord) FileIDs() []string {
	ids := make([]string, len(a.Files))
	for i, f := range a.Files {
		ids[i] = f.ID
	}
	return ids
}

// AlbumFileRef references a file inside an album write request.
type AlbumFileRef struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
}

// AlbumBody is what the upstream expects when creating or replacing an album.
type AlbumBody struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Anonymous   bool           `json:"anonymous"`
	Files       []AlbumFileRef `json:"files"`
}

// AlbumCreated is returned by the upstream after an album is created.
type AlbumCreated struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}
