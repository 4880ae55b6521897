package rag

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/campusqa/courseqa/internal/model"
)

// ParsedAnswer is the normalized result of one generation output.
// Confidence is nil when the model emitted nothing parseable: absent is
// reported as absent, never defaulted to a fabricated number.
type ParsedAnswer struct {
	Answer     string
	Citations  []model.Citation
	Confidence *float64
}

var (
	citeRegex       = regexp.MustCompile(`\[cite:\s*(S\d+)\s*\]`)
	confidenceRegex = regexp.MustCompile(`(?mi)^\s*CONFIDENCE:\s*([0-9]*\.?[0-9]+)\s*$`)
)

// ParseAnswer extracts citations and the confidence estimate from raw model
// output. It never fails: malformed citation syntax is skipped, tags not in
// the supplied tag table are dropped rather than fabricated into citations,
// and in the worst case the raw text comes back untouched with no citations
// and nil confidence.
func ParseAnswer(raw string, tags map[string]model.Citation) ParsedAnswer {
	answer := raw
	var confidence *float64

	if m := confidenceRegex.FindStringSubmatch(answer); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= 0 && v <= 1 {
			confidence = &v
		}
		// The confidence line is protocol, not answer text.
		answer = confidenceRegex.ReplaceAllString(answer, "")
	}

	var citations []model.Citation
	seen := make(map[string]bool)
	for _, m := range citeRegex.FindAllStringSubmatch(answer, -1) {
		tag := m[1]
		if seen[tag] {
			continue
		}
		seen[tag] = true
		citation, ok := tags[tag]
		if !ok {
			continue
		}
		citations = append(citations, citation)
	}

	return ParsedAnswer{
		Answer:     strings.TrimSpace(answer),
		Citations:  citations,
		Confidence: confidence,
	}
}
