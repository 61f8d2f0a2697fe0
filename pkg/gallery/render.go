package gallery

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"pixgallery/pkg/models"
	"pixgallery/pkg/settings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

const gridColumns = 3

// DefaultRetryHint follows the error banner when the view names no retry action.
const DefaultRetryHint = "Reload to retry."

// View carries what rendering needs besides the library state.
type View struct {
	Settings settings.Settings
	Now      time.Time
	// RetryHint tells the user how to trigger a retry from the error banner.
	RetryHint string
}

type palette struct {
	title  lipgloss.Style
	muted  lipgloss.Style
	alert  lipgloss.Style
	card   lipgloss.Style
	header lipgloss.Style
}

func newPalette(w io.Writer, theme string) palette {
	r := lipgloss.NewRenderer(w)
	switch theme {
	case settings.ThemeDark:
		r.SetHasDarkBackground(true)
	case settings.ThemeLight:
		r.SetHasDarkBackground(false)
	}

	accent := lipgloss.AdaptiveColor{Light: "#5A3FC0", Dark: "#B7A6FF"}
	subtle := lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#9A9A9A"}
	warn := lipgloss.AdaptiveColor{Light: "#B3261E", Dark: "#FF8A80"}

	return palette{
		title:  r.NewStyle().Bold(true).Foreground(accent),
		muted:  r.NewStyle().Foreground(subtle),
		alert:  r.NewStyle().Bold(true).Foreground(warn),
		card:   r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(subtle).Padding(0, 1).Width(28),
		header: r.NewStyle().Bold(true),
	}
}

// Render writes the library as the terminal gallery screen.
func Render(w io.Writer, snap Snapshot, view View) error {
	if view.Now.IsZero() {
		view.Now = time.Now()
	}
	pal := newPalette(w, view.Settings.Theme)

	var b strings.Builder
	b.WriteString(pal.title.Render("Gallery: "+plural(len(snap.Files), "file")+", "+plural(len(snap.Albums), "album")))
	b.WriteString("\n")

	if status := statusLine(snap, view.Now); status != "" {
		b.WriteString(pal.muted.Render(status))
		b.WriteString("\n")
	}
	if snap.Err != nil {
		retry := view.RetryHint
		if retry == "" {
			retry = DefaultRetryHint
		}
		b.WriteString(pal.alert.Render("Error: " + Hint(snap.Err) + " " + retry))
		b.WriteString("\n")
	}
	if snap.Loading {
		b.WriteString("Loading...\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("\n")
	renderAlbums(&b, pal, snap, view)
	b.WriteString("\n")

	files := SortFiles(snap.Files, view.Settings.SortKey, view.Settings.SortOrder)
	switch {
	case len(files) == 0:
		b.WriteString(pal.muted.Render("No files yet."))
		b.WriteString("\n")
	case view.Settings.ViewMode == settings.ViewGrid:
		renderGrid(&b, pal, files, view)
	default:
		renderList(&b, pal, files, view)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func statusLine(snap Snapshot, now time.Time) string {
	var parts []string
	if snap.Refreshing {
		parts = append(parts, "Refreshing...")
	}
	if !snap.LastUpdate.IsZero() {
		parts = append(parts, "Last updated "+humanize.RelTime(snap.LastUpdate, now, "ago", "from now"))
	}
	return strings.Join(parts, " ")
}

func renderAlbums(b *strings.Builder, pal palette, snap Snapshot, view View) {
	b.WriteString(pal.header.Render("Albums"))
	b.WriteString("\n")
	if len(snap.Albums) == 0 {
		b.WriteString(pal.muted.Render("  No albums yet."))
		b.WriteString("\n")
		return
	}

	for _, album := range SortAlbums(snap.Albums, view.Settings.SortKey, view.Settings.SortOrder) {
		marker := "+"
		if snap.Expanded[album.ID] {
			marker = "-"
		}
		fmt.Fprintf(b, "  %s %s %s\n", marker, album.Title, pal.muted.Render(fmt.Sprintf("(%s, %s)", plural(album.FileCount, "file"), album.ID)))

		if !snap.Expanded[album.ID] {
			continue
		}
		if album.Description != "" {
			fmt.Fprintf(b, "      %s\n", pal.muted.Render(album.Description))
		}
		for _, file := range album.Files {
			fmt.Fprintf(b, "      %s %s\n", Glyph(IconFor(file.MimeType)), file.Name)
		}
	}
}

func renderList(b *strings.Builder, pal palette, files []models.FileRecord, view View) {
	headers := []string{"Name"}
	if view.Settings.ShowThumbnails {
		headers = append([]string{""}, headers...)
	}
	headers = append(headers, "Size")
	if view.Settings.ShowDetails {
		headers = append(headers, "Views", "Downloads", "Uploaded", "ID")
	}

	rows := make([][]string, 0, len(files))
	for _, file := range files {
		row := []string{file.Name}
		if view.Settings.ShowThumbnails {
			row = append([]string{Glyph(IconFor(file.MimeType))}, row...)
		}
		row = append(row, humanize.Bytes(uint64(file.Size)))
		if view.Settings.ShowDetails {
			row = append(row,
				humanize.Comma(int64(file.Views)),
				humanize.Comma(int64(file.Downloads)),
				uploaded(file, view.Now),
				file.ID,
			)
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(pal.muted).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return pal.header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...)

	b.WriteString(t.String())
	b.WriteString("\n")
}

func renderGrid(b *strings.Builder, pal palette, files []models.FileRecord, view View) {
	cards := make([]string, 0, len(files))
	for _, file := range files {
		lines := []string{pal.header.Render(file.Name)}
		if view.Settings.ShowThumbnails {
			lines = append(lines, Glyph(IconFor(file.MimeType))+" "+pal.muted.Render(KindFor(file.MimeType).String()))
		}
		lines = append(lines, humanize.Bytes(uint64(file.Size)))
		if view.Settings.ShowDetails {
			lines = append(lines,
				pal.muted.Render(plural(int(file.Views), "view")+", "+plural(int(file.Downloads), "download")),
				pal.muted.Render(uploaded(file, view.Now)),
			)
		}
		cards = append(cards, pal.card.Render(strings.Join(lines, "\n")))
	}

	for start := 0; start < len(cards); start += gridColumns {
		end := start + gridColumns
		if end > len(cards) {
			end = len(cards)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards[start:end]...))
		b.WriteString("\n")
	}
}

func uploaded(file models.FileRecord, now time.Time) string {
	if file.DateUpload.IsZero() {
		return "unknown"
	}
	return humanize.RelTime(file.DateUpload.Time, now, "ago", "from now")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

// RenderPreview writes one preview line per file.
func RenderPreview(w io.Writer, previews []Preview) error {
	for _, p := range previews {
		if _, err := fmt.Fprintf(w, "%-8s %s\n", p.State, p.Describe()); err != nil {
			return err
		}
	}
	return nil
}
