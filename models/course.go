package models

type Course struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	CourseCode string `json:"course_code"`
	CreatedAt  *Date  `json:"created_at"`
	Term       *Term  `json:"term,omitempty"`
}

// Term is the enrollment term Canvas attaches with include[]=term.
type Term struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	StartAt *Date  `json:"start_at"`
	EndAt   *Date  `json:"end_at"`
}

type Section struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	CourseID int    `json:"course_id"`
}
