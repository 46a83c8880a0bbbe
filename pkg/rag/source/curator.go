package source

import (
	"fmt"
	"strings"

	"doc-assistant-be/internal/constant"
	"doc-assistant-be/internal/dto"
)

// Source is one curated evidence record. Two sources are the same
// exactly when file, page and text all match.
type Source struct {
	File string
	Page string
	Text string
}

// Curate extracts sources from retrieved chunks and removes duplicates.
// The first occurrence wins and the relative order of first occurrences
// is preserved. Missing metadata degrades to "-" placeholders.
func Curate(chunks []dto.ChunkResult) []Source {
	seen := make(map[Source]struct{}, len(chunks))
	curated := make([]Source, 0, len(chunks))

	for _, chunk := range chunks {
		s := Source{
			File: metadataValue(chunk.DocMetadata, constant.MetadataFileNameKey),
			Page: metadataValue(chunk.DocMetadata, constant.MetadataPageLabelKey),
			Text: chunk.Text,
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		curated = append(curated, s)
	}

	return curated
}

// FormatBlock renders curated sources as the single search-mode output:
// one 1-indexed entry per source, entries separated by two blank lines.
func FormatBlock(sources []Source) string {
	entries := make([]string, len(sources))
	for i, s := range sources {
		entries[i] = fmt.Sprintf("%d. **%s (page %s)**\n %s", i+1, s.File, s.Page, s.Text)
	}
	return strings.Join(entries, "\n\n\n")
}

// FormatFootnotes renders the compact citation list appended after a
// generated answer. Each (file, page) pair appears once, numbered by its
// position in the curated list, so indices can be sparse when one file
// contributed several snippets.
func FormatFootnotes(sources []Source) string {
	var b strings.Builder
	used := make(map[string]struct{}, len(sources))
	for i, s := range sources {
		key := s.File + "-" + s.Page
		if _, dup := used[key]; dup {
			continue
		}
		used[key] = struct{}{}
		b.WriteString(fmt.Sprintf("%d. %s (page %s) \n\n", i+1, s.File, s.Page))
	}
	return b.String()
}

func metadataValue(metadata map[string]interface{}, key string) string {
	if metadata == nil {
		return constant.MetadataMissingValue
	}
	if v, ok := metadata[key].(string); ok && v != "" {
		return v
	}
	return constant.MetadataMissingValue
}
