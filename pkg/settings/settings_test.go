package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergePartialBlob(t *testing.T) {
	got := Merge([]byte(`{"theme":"dark"}`))

	want := Defaults()
	want.Theme = ThemeDark
	assert.Equal(t, want, got)
}

func TestMergeKeepsStoredBooleans(t *testing.T) {
	got := Merge([]byte(`{"show_thumbnails":false,"confirm_delete":false}`))

	assert.False(t, got.ShowThumbnails)
	assert.False(t, got.ConfirmDelete)
	assert.True(t, got.ShowDetails)
	assert.True(t, got.AutoRefresh)
}

func TestMergeResetsInvalidEnums(t *testing.T) {
	got := Merge([]byte(`{"theme":"neon","view_mode":"grid","sort_key":"colour","sort_order":""}`))

	assert.Equal(t, ThemeSystem, got.Theme)
	assert.Equal(t, ViewGrid, got.ViewMode)
	assert.Equal(t, SortByDate, got.SortKey)
	assert.Equal(t, OrderDesc, got.SortOrder)
}

func TestMergeKeepsFieldsAroundMistypedOne(t *testing.T) {
	got := Merge([]byte(`{"theme":"dark","view_mode":"grid","show_details":"yes","auto_refresh":false,"sort_key":7,"extra":1}`))

	want := Defaults()
	want.Theme = ThemeDark
	want.ViewMode = ViewGrid
	want.AutoRefresh = false
	assert.Equal(t, want, got)
}

func TestMergeNullFieldKeepsDefault(t *testing.T) {
	got := Merge([]byte(`{"theme":null,"confirm_delete":null,"sort_order":"asc"}`))

	want := Defaults()
	want.SortOrder = OrderAsc
	assert.Equal(t, want, got)
}

func TestMergeGarbage(t *testing.T) {
	for _, blob := range []string{"", "   ", "not json", `[1,2]`, `{"theme":`, `null`, `"dark"`} {
		assert.Equal(t, Defaults(), Merge([]byte(blob)), blob)
	}
}

func TestSetAndGet(t *testing.T) {
	s := Defaults()

	require.NoError(t, s.Set("view_mode", "GRID"))
	require.NoError(t, s.Set("sort_key", "size"))
	require.NoError(t, s.Set("auto_refresh", "false"))

	assert.Equal(t, ViewGrid, s.ViewMode)
	assert.Equal(t, SortBySize, s.SortKey)
	assert.False(t, s.AutoRefresh)

	value, err := s.Get("auto_refresh")
	require.NoError(t, err)
	assert.Equal(t, "false", value)

	for _, field := range Fields() {
		_, err := s.Get(field)
		assert.NoError(t, err, field)
	}
}

func TestSetRejects(t *testing.T) {
	s := Defaults()

	assert.ErrorIs(t, s.Set("theme", "neon"), ErrInvalidValue)
	assert.ErrorIs(t, s.Set("show_details", "maybe"), ErrInvalidValue)
	assert.ErrorIs(t, s.Set("font", "mono"), ErrUnknownField)
	_, err := s.Get("font")
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Equal(t, Defaults(), s)
}

func TestChoices(t *testing.T) {
	assert.Equal(t, []string{ThemeSystem, ThemeLight, ThemeDark}, Choices("theme"))
	assert.Nil(t, Choices("show_details"))
}
