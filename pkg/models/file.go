package models

// UnnamedFile is shown for files the upstream returns without a name.
const UnnamedFile = "Unnamed file"

// FileRecord is a file owned by the user on the hosting service.
type FileRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Size         Count     `json:"size"`
	Views        Count     `json:"views"`
	Downloads    Count     `json:"downloads"`
	DateUpload   Timestamp `json:"date_upload"`
	DateLastView Timestamp `json:"date_last_view"`
	MimeType     string    `json:"mime_type"`
	HashSHA256   string    `json:"hash_sha256"`
	CanEdit      bool      `json:"can_edit"`
	Description  string    `json:"description,omitempty"`
}

// ApplyDefaults fills the gaps the upstream is known to leave.
func (f *FileRecord) ApplyDefaults() {
	if f.Name == "" {
		f.Name = UnnamedFile
	}
	if f.Size < 0 {
		f.Size = 0
	}
	if f.Views < 0 {
		f.Views = 0
	}
	if f.Downloads < 0 {
		f.Downloads = 0
	}
}

// FileListResponse is the body of the files listing.
type FileListResponse struct {
	Files []FileRecord `json:"files"`
}
