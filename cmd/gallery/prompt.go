package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"pixgallery/pkg/gallery"
	"pixgallery/pkg/models"
	"pixgallery/pkg/settings"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
)

var errNotInteractive = errors.New("interactive input requires a terminal")

func interactive() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}

func required(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("a value is required")
	}
	return nil
}

func promptCredential() (string, error) {
	if !interactive() {
		return "", fmt.Errorf("%w: pass --key instead", errNotInteractive)
	}

	var key string
	err := huh.NewInput().
		Title("API key").
		Description("Found in the account settings of the hosting service.").
		EchoMode(huh.EchoModePassword).
		Validate(required).
		Value(&key).
		Run()
	if err != nil {
		return "", fmt.Errorf("read API key: %w", err)
	}
	return strings.TrimSpace(key), nil
}

func promptText(title string, mandatory bool) (string, error) {
	if !interactive() {
		return "", fmt.Errorf("%w: %s", errNotInteractive, strings.ToLower(title))
	}

	input := huh.NewInput().Title(title)
	if mandatory {
		input = input.Validate(required)
	}
	var value string
	if err := input.Value(&value).Run(); err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(title), err)
	}
	return strings.TrimSpace(value), nil
}

func confirm(question string) (bool, error) {
	if !interactive() {
		return false, fmt.Errorf("%w: pass --yes to skip the confirmation", errNotInteractive)
	}

	var ok bool
	err := huh.NewConfirm().
		Title(question).
		Affirmative("Delete").
		Negative("Cancel").
		Value(&ok).
		Run()
	if err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	return ok, nil
}

func fileLabel(file models.FileRecord) string {
	return fmt.Sprintf("%s %s (%s, %s)", gallery.Glyph(gallery.IconFor(file.MimeType)), file.Name, humanize.Bytes(uint64(file.Size)), file.ID)
}

func albumLabel(album models.AlbumRecord) string {
	return fmt.Sprintf("%s (%s)", album.Title, album.ID)
}

func pickFile(title string, files []models.FileRecord) (string, error) {
	if len(files) == 0 {
		return "", errors.New("no files to choose from")
	}

	options := make([]huh.Option[string], 0, len(files))
	for _, file := range files {
		options = append(options, huh.NewOption(fileLabel(file), file.ID))
	}

	var picked string
	err := huh.NewSelect[string]().
		Title(title).
		Options(options...).
		Value(&picked).
		Run()
	if err != nil {
		return "", fmt.Errorf("select file: %w", err)
	}
	return picked, nil
}

func pickFiles(title string, files []models.FileRecord) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	options := make([]huh.Option[string], 0, len(files))
	for _, file := range files {
		options = append(options, huh.NewOption(fileLabel(file), file.ID))
	}

	var picked []string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title(title).
				Description("Use x/space to toggle, / to filter.").
				Options(options...).
				Value(&picked),
		),
	).Run()
	if err != nil {
		return nil, fmt.Errorf("select files: %w", err)
	}
	return picked, nil
}

func pickAlbum(title string, albums []models.AlbumRecord) (string, error) {
	if len(albums) == 0 {
		return "", errors.New("no albums to choose from")
	}

	options := make([]huh.Option[string], 0, len(albums))
	for _, album := range albums {
		options = append(options, huh.NewOption(albumLabel(album), album.ID))
	}

	var picked string
	err := huh.NewSelect[string]().
		Title(title).
		Options(options...).
		Value(&picked).
		Run()
	if err != nil {
		return "", fmt.Errorf("select album: %w", err)
	}
	return picked, nil
}

// settingChoices lists the values offered for field, booleans included.
func settingChoices(field string) []string {
	if choices := settings.Choices(field); choices != nil {
		return choices
	}
	return []string{"true", "false"}
}

func pickSetting(field string, current settings.Settings) (string, error) {
	if !interactive() {
		return "", fmt.Errorf("%w: pass the value as an argument", errNotInteractive)
	}

	value, err := current.Get(field)
	if err != nil {
		return "", err
	}

	options := make([]huh.Option[string], 0, 3)
	for _, choice := range settingChoices(field) {
		options = append(options, huh.NewOption(choice, choice).Selected(choice == value))
	}

	err = huh.NewSelect[string]().
		Title(field).
		Options(options...).
		Value(&value).
		Run()
	if err != nil {
		return "", fmt.Errorf("select %s: %w", field, err)
	}
	return value, nil
}
