package rag

import (
	"strings"

	"github.com/campusqa/courseqa/internal/extract"
)

// Segment is one embeddable excerpt with its positional metadata. Page is
// set for pdf segments; Start/End for transcript segments.
type Segment struct {
	Content string
	Page    int
	Start   float64
	End     float64
}

// ChunkPages splits each page's text into segments of roughly budget
// characters with an overlap tail carried between consecutive segments of
// the same page. Paragraph boundaries are preserved; a single paragraph
// larger than the budget stays whole rather than being dropped or cut
// mid-concept. Pure function of its input.
func ChunkPages(pages []extract.Page, budget, overlap int) []Segment {
	var segments []Segment
	for _, page := range pages {
		for _, content := range splitText(page.Text, budget, overlap) {
			segments = append(segments, Segment{Content: content, Page: page.Number})
		}
	}
	return segments
}

func splitText(text string, budget, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= budget {
		return []string{text}
	}

	paragraphs := splitParagraphs(text)
	var out []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		out = append(out, strings.Join(current, "\n\n"))
		// Carry a tail of trailing paragraphs as overlap so a concept split
		// across the boundary still lands whole in one of the segments.
		var carried []string
		carriedLen := 0
		for i := len(current) - 1; i >= 0; i-- {
			if carriedLen+len(current[i]) > overlap {
				break
			}
			carriedLen += len(current[i])
			carried = append([]string{current[i]}, carried...)
		}
		if len(carried) == len(current) {
			carried = nil
			carriedLen = 0
		}
		current = carried
		currentLen = carriedLen
	}

	for _, para := range paragraphs {
		if currentLen > 0 && currentLen+len(para) > budget {
			flush()
		}
		current = append(current, para)
		currentLen += len(para)
		if currentLen > budget {
			// Oversized single paragraph: keep it whole, no overlap carry.
			out = append(out, strings.Join(current, "\n\n"))
			current = nil
			currentLen = 0
		}
	}
	if len(current) > 0 {
		joined := strings.Join(current, "\n\n")
		if len(out) == 0 || !strings.HasSuffix(out[len(out)-1], joined) {
			out = append(out, joined)
		}
	}
	return out
}

func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ChunkCues merges consecutive transcript cues into segments, flushing when
// the covered span reaches window seconds, the text exceeds budget
// characters, or a silence gap longer than gap seconds separates two cues.
// Each segment records the min start and max end across its merged cues.
func ChunkCues(cues []extract.Cue, window, gap float64, budget int) []Segment {
	var segments []Segment
	var texts []string
	start, end := 0.0, 0.0

	flush := func() {
		if len(texts) == 0 {
			return
		}
		segments = append(segments, Segment{
			Content: strings.Join(texts, " "),
			Start:   start,
			End:     end,
		})
		texts = nil
	}

	textLen := 0
	for _, cue := range cues {
		if len(texts) > 0 && cue.Start-end > gap {
			flush()
			textLen = 0
		}
		if len(texts) == 0 {
			start = cue.Start
		}
		texts = append(texts, cue.Text)
		textLen += len(cue.Text)
		if cue.End > end || len(texts) == 1 {
			end = cue.End
		}
		if end-start >= window || textLen >= budget {
			flush()
			textLen = 0
		}
	}
	flush()
	return segments
}
