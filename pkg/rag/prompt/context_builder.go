package prompt

import (
	"strings"

	"doc-assistant-be/internal/constant"
	"doc-assistant-be/internal/dto"
)

// ContextBuilder renders retrieved chunks into the reference block that
// precedes a contextual generation call.
type ContextBuilder struct {
	chunks []dto.ChunkResult
}

func NewContextBuilder(chunks []dto.ChunkResult) *ContextBuilder {
	return &ContextBuilder{chunks: chunks}
}

// Build produces the system message content carrying the document
// context. Empty when nothing was retrieved.
func (b *ContextBuilder) Build() string {
	if len(b.chunks) == 0 {
		return ""
	}

	var prompt strings.Builder

	prompt.WriteString("<reference_material>\n")
	for _, chunk := range b.chunks {
		prompt.WriteString("--- ")
		prompt.WriteString(fileLabel(chunk))
		prompt.WriteString(" ---\n")
		prompt.WriteString(chunk.Text)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</reference_material>\n\n")

	prompt.WriteString("Answer the user's question using only the reference material above.\n")
	prompt.WriteString("If the material does not contain the answer, say so honestly.")

	return prompt.String()
}

func fileLabel(chunk dto.ChunkResult) string {
	file := constant.MetadataMissingValue
	page := constant.MetadataMissingValue
	if chunk.DocMetadata != nil {
		if v, ok := chunk.DocMetadata[constant.MetadataFileNameKey].(string); ok && v != "" {
			file = v
		}
		if v, ok := chunk.DocMetadata[constant.MetadataPageLabelKey].(string); ok && v != "" {
			page = v
		}
	}
	return file + ", page " + page
}
