package gallery

import (
	"sort"
	"strings"

	"pixgallery/pkg/models"
	"pixgallery/pkg/settings"
)

// SortFiles returns a sorted copy of files. Unknown keys fall back to date.
func SortFiles(files []models.FileRecord, key, order string) []models.FileRecord {
	out := make([]models.FileRecord, len(files))
	copy(out, files)

	var less func(a, b models.FileRecord) bool
	switch key {
	case settings.SortByName:
		less = func(a, b models.FileRecord) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case settings.SortBySize:
		less = func(a, b models.FileRecord) bool { return a.Size < b.Size }
	default:
		less = func(a, b models.FileRecord) bool { return a.DateUpload.Before(b.DateUpload.Time) }
	}

	sort.SliceStable(out, func(i, j int) bool {
		if order == settings.OrderDesc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// SortAlbums returns a sorted copy of albums. Size sorts by file count.
func SortAlbums(albums []models.AlbumRecord, key, order string) []models.AlbumRecord {
	out := make([]models.AlbumRecord, len(albums))
	copy(out, albums)

	var less func(a, b models.AlbumRecord) bool
	switch key {
	case settings.SortByName:
		less = func(a, b models.AlbumRecord) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case settings.SortBySize:
		less = func(a, b models.AlbumRecord) bool { return a.FileCount < b.FileCount }
	default:
		less = func(a, b models.AlbumRecord) bool { return a.DateCreated.Before(b.DateCreated.Time) }
	}

	sort.SliceStable(out, func(i, j int) bool {
		if order == settings.OrderDesc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}
