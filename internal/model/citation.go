package model

import "fmt"

const (
	CitationTypePDF        = "pdf"
	CitationTypeTranscript = "transcript"
	CitationTypeVerified   = "verified"
)

// Citation points from a generated answer back to the source that justified
// it. The populated fields depend on Type: pdf carries FileName+Page,
// transcript carries FileName+TimestampSeconds, verified carries the
// original question only.
type Citation struct {
	Type             string   `json:"type"`
	FileName         string   `json:"file_name,omitempty"`
	Page             *int     `json:"page,omitempty"`
	TimestampSeconds *float64 `json:"timestamp_seconds,omitempty"`
	Question         string   `json:"question,omitempty"`
}

func (c Citation) Validate() error {
	switch c.Type {
	case CitationTypePDF:
		if c.FileName == "" || c.Page == nil {
			return fmt.Errorf("pdf citation requires file_name and page")
		}
	case CitationTypeTranscript:
		if c.FileName == "" || c.TimestampSeconds == nil {
			return fmt.Errorf("transcript citation requires file_name and timestamp_seconds")
		}
	case CitationTypeVerified:
		if c.Question == "" {
			return fmt.Errorf("verified citation requires question")
		}
	default:
		return fmt.Errorf("unknown citation type: %s", c.Type)
	}
	return nil
}
