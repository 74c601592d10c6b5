package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractTextFlattensRichDocument(t *testing.T) {
	doc := `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"hello"}]},{"type":"paragraph","content":[{"type":"text","text":"world"}]}]}`
	require.Equal(t, "hello\nworld", ExtractText(doc))
}

func TestExtractTextStructureIndependence(t *testing.T) {
	flat := `{"type":"doc","content":[{"type":"text","text":"a"},{"type":"text","text":"b"}]}`
	nested := `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"a"},{"type":"blockquote","content":[{"type":"text","text":"b"}]}]}]}`
	require.Equal(t, ExtractText(flat), ExtractText(nested))
}

func TestExtractTextEmptyAndInvalid(t *testing.T) {
	require.Equal(t, "", ExtractText(""))
	require.Equal(t, "not json", ExtractText("not json"))
}

func TestExtractTextCanonicalFallback(t *testing.T) {
	a := `{"b":1,"a":2}`
	b := `{"a":2,"b":1}`
	require.Equal(t, ExtractText(a), ExtractText(b))
}

func TestComputeDiffIdentical(t *testing.T) {
	additions, deletions := ComputeDiff("line1\nline2", "line1\nline2")
	require.Empty(t, additions)
	require.Empty(t, deletions)
}

func TestComputeDiffReplacedLine(t *testing.T) {
	additions, deletions := ComputeDiff("line1\nline2", "line1\nline3")
	require.Equal(t, []DiffEntry{{Start: 1, End: 2, Text: "line2"}}, deletions)
	require.Equal(t, []DiffEntry{{Start: 1, End: 2, Text: "line3"}}, additions)
}

func TestComputeDiffInsertAndDelete(t *testing.T) {
	additions, deletions := ComputeDiff("a\nb\nc", "a\nc\nd")
	require.Equal(t, []DiffEntry{{Start: 1, End: 2, Text: "b"}}, deletions)
	require.Equal(t, []DiffEntry{{Start: 2, End: 3, Text: "d"}}, additions)
}

func TestComputeDiffFromEmpty(t *testing.T) {
	additions, deletions := ComputeDiff("", "a\nb")
	require.Empty(t, deletions)
	require.Len(t, additions, 2)
	require.Equal(t, "a", additions[0].Text)
	require.Equal(t, "b", additions[1].Text)
}
