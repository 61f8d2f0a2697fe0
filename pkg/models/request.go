package models

// AuthRequest is the body of the authentication check.
type AuthRequest struct {
	APIKey string `json:"apiKey"`
}

// DeleteFileRequest is the body of the file delete call.
type DeleteFileRequest struct {
	APIKey string `json:"apiKey"`
	FileID string `json:"fileId"`
}

// AlbumRequest is the body of album create and update calls.
type AlbumRequest struct {
	APIKey      string         `json:"apiKey"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Files       []AlbumFileRef `json:"files"`
}

// UpstreamBody strips the credential off the request.
func (r AlbumRequest) UpstreamBody() AlbumBody {
	files := r.Files
	if files == nil {
		files = []AlbumFileRef{}
	}
	return AlbumBody{
		Title:       r.Title,
		Description: r.Description,
		Files:       files,
	}
}
