package model

const (
	QALogStatusAnswered = "answered"
	QALogStatusFlagged  = "flagged"
	QALogStatusReviewed = "reviewed"
)

const (
	RatingDown = -1
	RatingUp   = 1
)

// QALog records one answered question. UserID is a pointer because logs are
// retained for analytics after the user is gone (the reference nulls out,
// it never cascades).
type QALog struct {
	ID         string     `json:"id"`
	CourseID   string     `json:"course_id"`
	UserID     *string    `json:"user_id"`
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Citations  []Citation `json:"citations"`
	Rating     int        `json:"rating"`
	Status     string     `json:"status"`
	Confidence *float64   `json:"confidence"`
	Ctime      int64      `json:"ctime"`
}
