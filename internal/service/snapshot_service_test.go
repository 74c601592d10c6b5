package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/plotline/internal/model"
)

func TestBuildSnapshotContent(t *testing.T) {
	plot := &model.Plot{
		ID:          "plot-1",
		Title:       "title",
		Description: "desc",
		Tags:        []string{"fantasy"},
		Version:     3,
	}
	sections := []model.Section{
		{ID: "sec-1", Title: "one", Content: `{"type":"doc"}`, OrderIndex: 0, Version: 4},
		{ID: "sec-2", Title: "two", Content: "", OrderIndex: 1, Version: 1},
	}

	content := BuildSnapshotContent(plot, sections)
	require.NotNil(t, content.Plot.Title)
	require.Equal(t, "title", *content.Plot.Title)
	require.NotNil(t, content.Plot.Tags)
	require.Equal(t, []string{"fantasy"}, *content.Plot.Tags)
	require.Len(t, content.Sections, 2)
	require.Equal(t, json.RawMessage(`{"type":"doc"}`), content.Sections[0].Content)
	require.Equal(t, json.RawMessage(`null`), content.Sections[1].Content)

	// the payload must round-trip through JSON intact
	serialized, err := json.Marshal(content)
	require.NoError(t, err)
	var decoded model.SnapshotContent
	require.NoError(t, json.Unmarshal(serialized, &decoded))
	require.Equal(t, "sec-1", decoded.Sections[0].ID)
	require.Equal(t, 4, decoded.Sections[0].Version)
}

func TestBuildSnapshotContentNilTags(t *testing.T) {
	plot := &model.Plot{ID: "plot-1", Title: "t"}
	content := BuildSnapshotContent(plot, nil)
	require.NotNil(t, content.Plot.Tags)
	require.Equal(t, []string{}, *content.Plot.Tags)
	require.Empty(t, content.Sections)
}

func TestSnapshotPlotMetaAbsentFieldsDecodeNil(t *testing.T) {
	var meta model.SnapshotPlotMeta
	require.NoError(t, json.Unmarshal([]byte(`{"title":"only title"}`), &meta))
	require.NotNil(t, meta.Title)
	require.Nil(t, meta.Description)
	require.Nil(t, meta.Tags)
}
