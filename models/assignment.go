package models

type Assignment struct {
	ID                     int      `json:"id"`
	Name                   string   `json:"name"`
	Published              bool     `json:"published"`
	PointsPossible         *float64 `json:"points_possible"`
	GradedSubmissionsExist bool     `json:"graded_submissions_exist"`
}

type Submission struct {
	ID            int      `json:"id"`
	UserID        int      `json:"user_id"`
	AssignmentID  int      `json:"assignment_id"`
	Score         *float64 `json:"score"`
	GraderID      *int     `json:"grader_id"`
	WorkflowState string   `json:"workflow_state"`
}
