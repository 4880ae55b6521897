package model

const (
	DocumentKindPDF        = "pdf"
	DocumentKindTranscript = "transcript"
	DocumentKindVideo      = "video"
)

// Status transitions are owned by the ingestor: pending -> processing ->
// {completed | failed}. Terminal states never transition again.
const (
	DocumentStatusPending    = "pending"
	DocumentStatusProcessing = "processing"
	DocumentStatusCompleted  = "completed"
	DocumentStatusFailed     = "failed"
)

type Document struct {
	ID          string `json:"id"`
	CourseID    string `json:"course_id"`
	FileName    string `json:"file_name"`
	StoragePath string `json:"storage_path"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}

func ValidDocumentKind(kind string) bool {
	switch kind {
	case DocumentKindPDF, DocumentKindTranscript, DocumentKindVideo:
		return true
	}
	return false
}
