package models

type User struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	SortableName string  `json:"sortable_name"`
	SISUserID    *string `json:"sis_user_id"`
}
