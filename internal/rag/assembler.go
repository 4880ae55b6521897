package rag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/campusqa/courseqa/internal/model"
)

// RetrievedChunk is a ranked document-chunk match handed to the assembler.
type RetrievedChunk struct {
	Content    string
	FileName   string
	Kind       string
	Page       int
	Start      float64
	End        float64
	Similarity float64
}

// RetrievedAnswer is a ranked TA-verified answer match.
type RetrievedAnswer struct {
	Question   string
	Answer     string
	Similarity float64
}

// ContextItem is one rendered context entry. Tag is the source label
// ("S1", "S2", ...) the prompt instructs the model to cite with and the
// parser resolves back into Citation.
type ContextItem struct {
	Tag        string
	Body       string
	Citation   model.Citation
	Similarity float64
}

// Context is the assembled, budget-bounded material for one generation
// request. Tags maps every emitted tag back to its citation, which is the
// only set of tags the parser will accept.
type Context struct {
	Items []ContextItem
	Tags  map[string]model.Citation
}

// Assemble orders retrieved material into a bounded context block. Verified
// answers come first (higher trust), then chunks by descending similarity.
// When the combined size exceeds budget, the lowest-similarity chunks are
// dropped first; verified answers go last. Deterministic for identical
// inputs.
func Assemble(chunks []RetrievedChunk, answers []RetrievedAnswer, budget int) Context {
	sortedChunks := make([]RetrievedChunk, len(chunks))
	copy(sortedChunks, chunks)
	sort.SliceStable(sortedChunks, func(i, j int) bool {
		return sortedChunks[i].Similarity > sortedChunks[j].Similarity
	})
	sortedAnswers := make([]RetrievedAnswer, len(answers))
	copy(sortedAnswers, answers)
	sort.SliceStable(sortedAnswers, func(i, j int) bool {
		return sortedAnswers[i].Similarity > sortedAnswers[j].Similarity
	})

	var items []ContextItem
	for _, va := range sortedAnswers {
		items = append(items, ContextItem{
			Body:       fmt.Sprintf("TA-verified answer\nQ: %s\nA: %s", va.Question, va.Answer),
			Citation:   model.Citation{Type: model.CitationTypeVerified, Question: va.Question},
			Similarity: va.Similarity,
		})
	}
	for _, ch := range sortedChunks {
		items = append(items, ContextItem{
			Body:       fmt.Sprintf("%s\n%s", chunkHeader(ch), ch.Content),
			Citation:   chunkCitation(ch),
			Similarity: ch.Similarity,
		})
	}

	items = enforceBudget(items, budget)

	tags := make(map[string]model.Citation, len(items))
	for i := range items {
		items[i].Tag = fmt.Sprintf("S%d", i+1)
		tags[items[i].Tag] = items[i].Citation
	}
	return Context{Items: items, Tags: tags}
}

// enforceBudget drops trailing items until the combined size fits. The item
// order (verified first, then chunks by descending similarity) makes the
// last item always the least valuable one, so lowest-similarity chunks go
// first and verified answers only once no chunks remain.
func enforceBudget(items []ContextItem, budget int) []ContextItem {
	total := 0
	for _, it := range items {
		total += len(it.Body)
	}
	for len(items) > 1 && total > budget {
		total -= len(items[len(items)-1].Body)
		items = items[:len(items)-1]
	}
	return items
}

func chunkHeader(ch RetrievedChunk) string {
	switch ch.Kind {
	case model.DocumentKindTranscript:
		return fmt.Sprintf("Source: %s, timestamp %.0fs", ch.FileName, ch.Start)
	default:
		return fmt.Sprintf("Source: %s, page %d", ch.FileName, ch.Page)
	}
}

func chunkCitation(ch RetrievedChunk) model.Citation {
	switch ch.Kind {
	case model.DocumentKindTranscript:
		ts := ch.Start
		return model.Citation{
			Type:             model.CitationTypeTranscript,
			FileName:         ch.FileName,
			TimestampSeconds: &ts,
		}
	default:
		page := ch.Page
		return model.Citation{
			Type:     model.CitationTypePDF,
			FileName: ch.FileName,
			Page:     &page,
		}
	}
}

// Render produces the context block the prompt embeds, one tagged entry per
// item.
func (c Context) Render() string {
	if len(c.Items) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, item := range c.Items {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("[")
		sb.WriteString(item.Tag)
		sb.WriteString("] ")
		sb.WriteString(item.Body)
	}
	return sb.String()
}
