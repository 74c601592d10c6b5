package service

import (
	"encoding/json"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

type DiffEntry struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

type DiffResult struct {
	FromVersion int         `json:"fromVersion"`
	ToVersion   int         `json:"toVersion"`
	Additions   []DiffEntry `json:"additions"`
	Deletions   []DiffEntry `json:"deletions"`
}

// ExtractText flattens a rich document (tiptap-style JSON) into plain text
// for diffing. Text leaves are collected depth-first in document order and
// joined by newlines. Documents with no text-bearing structure fall back to
// a canonical re-serialization so that comparison always has something
// deterministic to work with; two structurally different documents with the
// same flattened text extract to equal strings.
func ExtractText(content string) string {
	if content == "" {
		return ""
	}
	var doc interface{}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return content
	}
	texts := make([]string, 0)
	walkTextNodes(doc, &texts)
	if len(texts) > 0 {
		return strings.Join(texts, "\n")
	}
	// encoding/json writes map keys in sorted order, which is exactly the
	// canonical form we need.
	canonical, err := json.Marshal(doc)
	if err != nil {
		return content
	}
	return string(canonical)
}

func walkTextNodes(node interface{}, texts *[]string) {
	switch v := node.(type) {
	case []interface{}:
		for _, item := range v {
			walkTextNodes(item, texts)
		}
	case map[string]interface{}:
		if text, ok := v["text"].(string); ok {
			*texts = append(*texts, text)
		}
		if children, ok := v["content"]; ok {
			walkTextNodes(children, texts)
		}
	}
}

// splitLines treats the empty string as zero lines, not one empty line, so
// diffing against empty content yields pure insertions or deletions.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return difflib.SplitLines(text)
}

// ComputeDiff runs a line-level longest-common-subsequence diff. Lines in
// delete/replace runs on the source side become deletions, lines in
// insert/replace runs on the destination side become additions. Indices are
// line positions within the respective line arrays.
func ComputeDiff(fromText, toText string) ([]DiffEntry, []DiffEntry) {
	additions := make([]DiffEntry, 0)
	deletions := make([]DiffEntry, 0)
	if fromText == toText {
		return additions, deletions
	}

	fromLines := splitLines(fromText)
	toLines := splitLines(toText)

	matcher := difflib.NewMatcher(fromLines, toLines)
	for _, op := range matcher.GetOpCodes() {
		if op.Tag == 'd' || op.Tag == 'r' {
			for idx := op.I1; idx < op.I2; idx++ {
				deletions = append(deletions, DiffEntry{
					Start: idx,
					End:   idx + 1,
					Text:  strings.TrimSuffix(fromLines[idx], "\n"),
				})
			}
		}
		if op.Tag == 'i' || op.Tag == 'r' {
			for idx := op.J1; idx < op.J2; idx++ {
				additions = append(additions, DiffEntry{
					Start: idx,
					End:   idx + 1,
					Text:  strings.TrimSuffix(toLines[idx], "\n"),
				})
			}
		}
	}
	return additions, deletions
}
