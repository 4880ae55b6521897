package model

type Course struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	InstructorID string `json:"instructor_id"`
	SystemPrompt string `json:"system_prompt"`
	Ctime        int64  `json:"ctime"`
	Mtime        int64  `json:"mtime"`
}
