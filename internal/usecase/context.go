package usecase

import (
	"strings"

	"lexrag/internal/domain"
)

// FormatPassageHeader renders the citation line for one passage. Field order
// is fixed: title, chapter, section, article. The section is dropped when it
// merely repeats the chapter, which the chunker produces for chapters that
// have no named sections.
func FormatPassageHeader(p domain.Passage) string {
	var sb strings.Builder
	sb.WriteString("--- ")
	if p.Title != "" {
		sb.WriteString(p.Title)
	} else {
		sb.WriteString("Unknown")
	}
	if p.Chapter != "" {
		sb.WriteString(" | ")
		sb.WriteString(p.Chapter)
	}
	if p.Section != "" && p.Section != p.Chapter {
		sb.WriteString(" | ")
		sb.WriteString(p.Section)
	}
	if p.Article != "" {
		sb.WriteString(" | Article ")
		sb.WriteString(p.Article)
	}
	sb.WriteString(" ---")
	return sb.String()
}

// BuildContext assembles the context bundle handed to generation: one
// citation-headed block per passage, in rank order, separated by a single
// blank line.
func BuildContext(passages []domain.ScoredPassage) string {
	blocks := make([]string, 0, len(passages))
	for _, sp := range passages {
		blocks = append(blocks, FormatPassageHeader(sp.Passage)+"\n"+sp.Passage.Content)
	}
	return strings.Join(blocks, "\n\n")
}
