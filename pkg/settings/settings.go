// Package settings holds the gallery client's display preferences and the
// local store that keeps them, together with the credential, between runs.
package settings

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"

	ViewList = "list"
	ViewGrid = "grid"

	SortByName = "name"
	SortByDate = "date"
	SortBySize = "size"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Settings is the persisted preference blob.
type Settings struct {
	Theme          string `json:"theme"`
	ViewMode       string `json:"view_mode"`
	SortKey        string `json:"sort_key"`
	SortOrder      string `json:"sort_order"`
	ShowThumbnails bool   `json:"show_thumbnails"`
	ShowDetails    bool   `json:"show_details"`
	AutoRefresh    bool   `json:"auto_refresh"`
	ConfirmDelete  bool   `json:"confirm_delete"`
}

var choices = map[string][]string{
	"theme":      {ThemeSystem, ThemeLight, ThemeDark},
	"view_mode":  {ViewList, ViewGrid},
	"sort_key":   {SortByName, SortByDate, SortBySize},
	"sort_order": {OrderAsc, OrderDesc},
}

// Defaults returns the value every field falls back to.
func Defaults() Settings {
	return Settings{
		Theme:          ThemeSystem,
		ViewMode:       ViewList,
		SortKey:        SortByDate,
		SortOrder:      OrderDesc,
		ShowThumbnails: true,
		ShowDetails:    true,
		AutoRefresh:    true,
		ConfirmDelete:  true,
	}
}

// Merge decodes a stored blob over the defaults. Each field is decoded on its
// own: missing fields and fields of the wrong type keep their defaults, and
// enum fields holding unknown values are reset. A blob that is not a JSON
// object yields the defaults.
func Merge(blob []byte) Settings {
	merged := Defaults()
	if len(strings.TrimSpace(string(blob))) == 0 {
		return merged
	}

	var stored map[string]json.RawMessage
	if err := json.Unmarshal(blob, &stored); err != nil {
		return merged
	}
	for field, raw := range stored {
		target := merged.field(field)
		if target == nil {
			continue
		}
		// A value of the wrong type leaves the target untouched.
		_ = json.Unmarshal(raw, target)
	}
	merged.normalize()
	return merged
}

// field returns a pointer to the named field, nil for unknown names.
func (s *Settings) field(name string) interface{} {
	switch name {
	case "theme":
		return &s.Theme
	case "view_mode":
		return &s.ViewMode
	case "sort_key":
		return &s.SortKey
	case "sort_order":
		return &s.SortOrder
	case "show_thumbnails":
		return &s.ShowThumbnails
	case "show_details":
		return &s.ShowDetails
	case "auto_refresh":
		return &s.AutoRefresh
	case "confirm_delete":
		return &s.ConfirmDelete
	}
	return nil
}

func (s *Settings) normalize() {
	def := Defaults()
	if !valid("theme", s.Theme) {
		s.Theme = def.Theme
	}
	if !valid("view_mode", s.ViewMode) {
		s.ViewMode = def.ViewMode
	}
	if !valid("sort_key", s.SortKey) {
		s.SortKey = def.SortKey
	}
	if !valid("sort_order", s.SortOrder) {
		s.SortOrder = def.SortOrder
	}
}

func valid(field, value string) bool {
	for _, choice := range choices[field] {
		if value == choice {
			return true
		}
	}
	return false
}

// Fields lists the settable field names in display order.
func Fields() []string {
	return []string{
		"theme", "view_mode", "sort_key", "sort_order",
		"show_thumbnails", "show_details", "auto_refresh", "confirm_delete",
	}
}

// Choices returns the allowed values of an enum field, nil for booleans.
func Choices(field string) []string {
	return choices[field]
}

// Set assigns one field from its textual form.
func (s *Settings) Set(field, value string) error {
	value = strings.TrimSpace(value)

	if _, isEnum := choices[field]; isEnum {
		value = strings.ToLower(value)
		if !valid(field, value) {
			return fmt.Errorf("%w: %s=%q, want one of %s", ErrInvalidValue, field, value, strings.Join(choices[field], "|"))
		}
		switch field {
		case "theme":
			s.Theme = value
		case "view_mode":
			s.ViewMode = value
		case "sort_key":
			s.SortKey = value
		case "sort_order":
			s.SortOrder = value
		}
		return nil
	}

	var target *bool
	switch field {
	case "show_thumbnails":
		target = &s.ShowThumbnails
	case "show_details":
		target = &s.ShowDetails
	case "auto_refresh":
		target = &s.AutoRefresh
	case "confirm_delete":
		target = &s.ConfirmDelete
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidValue, field, value)
	}
	*target = parsed
	return nil
}

// Get returns one field in its textual form.
func (s Settings) Get(field string) (string, error) {
	switch field {
	case "theme":
		return s.Theme, nil
	case "view_mode":
		return s.ViewMode, nil
	case "sort_key":
		return s.SortKey, nil
	case "sort_order":
		return s.SortOrder, nil
	case "show_thumbnails":
		return strconv.FormatBool(s.ShowThumbnails), nil
	case "show_details":
		return strconv.FormatBool(s.ShowDetails), nil
	case "auto_refresh":
		return strconv.FormatBool(s.AutoRefresh), nil
	case "confirm_delete":
		return strconv.FormatBool(s.ConfirmDelete), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
}
