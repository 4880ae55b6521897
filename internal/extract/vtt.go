package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	apperr "github.com/campusqa/courseqa/internal/pkg/errors"
)

// Cue is one WebVTT cue: a time span plus its caption text.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// Timestamps look like 00:01:02.500 or 01:02.500 (hours optional).
var vttTimeRegex = regexp.MustCompile(`(?:(\d{1,2}):)?(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(?:(\d{1,2}):)?(\d{2}):(\d{2})\.(\d{3})`)

// ParseVTT parses WebVTT content into cues. Header lines, cue identifiers,
// NOTE blocks and empty cues are skipped. A well-formed file with no cues
// (header only) is an empty transcript and yields zero cues without error;
// content that is not WebVTT at all wraps ErrExtraction.
func ParseVTT(content string) ([]Cue, error) {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	blocks := strings.Split(normalized, "\n\n")

	var cues []Cue
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		for i, line := range lines {
			m := vttTimeRegex.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			start := vttSeconds(m[1], m[2], m[3], m[4])
			end := vttSeconds(m[5], m[6], m[7], m[8])
			text := strings.TrimSpace(strings.Join(lines[i+1:], " "))
			if text != "" {
				cues = append(cues, Cue{Start: start, End: end, Text: text})
			}
			break
		}
	}
	if len(cues) == 0 {
		if strings.HasPrefix(strings.TrimSpace(normalized), "WEBVTT") {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: no cues found in vtt", apperr.ErrExtraction)
	}
	return cues, nil
}

func vttSeconds(hours, minutes, seconds, millis string) float64 {
	h := 0
	if hours != "" {
		h, _ = strconv.Atoi(hours)
	}
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)
	ms, _ := strconv.Atoi(millis)
	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000
}
