package model

type Treatment struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Description     string `json:"description,omitempty"`
}
