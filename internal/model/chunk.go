package model

// Chunk is an embeddable excerpt of a source document. Page is set for pdf
// chunks, StartTime/EndTime for transcript chunks. Rows are immutable once
// written; they only disappear with their owning document.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Content    string    `json:"content"`
	Page       *int      `json:"page,omitempty"`
	StartTime  *float64  `json:"start_time,omitempty"`
	EndTime    *float64  `json:"end_time,omitempty"`
	Embedding  []float32 `json:"-"`
	Ctime      int64     `json:"ctime"`
}
