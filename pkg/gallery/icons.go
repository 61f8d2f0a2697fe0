package gallery

import "strings"

// Icon names, one per MIME category.
const (
	IconImage       = "file-image"
	IconVideo       = "file-video"
	IconAudio       = "file-audio"
	IconPDF         = "file-pdf"
	IconText        = "file-text"
	IconCode        = "file-code"
	IconArchive     = "file-archive"
	IconSpreadsheet = "file-spreadsheet"
	IconDocument    = "file-document"
	IconGeneric     = "file"
)

var exactIcons = map[string]string{
	"application/pdf":              IconPDF,
	"application/json":             IconCode,
	"application/javascript":       IconCode,
	"application/xml":              IconCode,
	"application/zip":              IconArchive,
	"application/gzip":             IconArchive,
	"application/x-tar":            IconArchive,
	"application/x-7z-compressed":  IconArchive,
	"application/x-rar-compressed": IconArchive,
	"application/vnd.rar":          IconArchive,
	"application/vnd.ms-excel":     IconSpreadsheet,
	"application/msword":           IconDocument,
	"text/csv":                     IconSpreadsheet,
}

var prefixIcons = []struct {
	prefix string
	icon   string
}{
	{"image/", IconImage},
	{"video/", IconVideo},
	{"audio/", IconAudio},
	{"application/vnd.openxmlformats-officedocument.spreadsheetml", IconSpreadsheet},
	{"application/vnd.openxmlformats-officedocument.wordprocessingml", IconDocument},
	{"text/", IconText},
}

// IconFor maps a MIME type to an icon name, IconGeneric when nothing matches.
func IconFor(mimeType string) string {
	mimeType = baseMIME(mimeType)
	if icon, ok := exactIcons[mimeType]; ok {
		return icon
	}
	for _, entry := range prefixIcons {
		if strings.HasPrefix(mimeType, entry.prefix) {
			return entry.icon
		}
	}
	return IconGeneric
}

// Glyph is the terminal stand-in for an icon.
func Glyph(icon string) string {
	switch icon {
	case IconImage:
		return "[img]"
	case IconVideo:
		return "[vid]"
	case IconAudio:
		return "[aud]"
	case IconPDF:
		return "[pdf]"
	case IconText:
		return "[txt]"
	case IconCode:
		return "[src]"
	case IconArchive:
		return "[zip]"
	case IconSpreadsheet:
		return "[tbl]"
	case IconDocument:
		return "[doc]"
	}
	return "[---]"
}

// baseMIME lowercases and drops parameters such as charset.
func baseMIME(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
