package model

// VerifiedAnswer is a human-authored QA pair created through the correction
// flow. The embedding is of the question text, so retrieval matches
// question-to-question instead of question-to-passage.
type VerifiedAnswer struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Embedding []float32 `json:"-"`
	CreatedBy string    `json:"created_by"`
	Ctime     int64     `json:"ctime"`
}
