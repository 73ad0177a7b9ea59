package models

// HabitRequest is the payload for logging a habit
// @Description A habit entry; it is kept only in the audit trail
type HabitRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255" example:"Caminar"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500" example:"30 minutos"`
}

// HabitRecord echoes a logged habit
type HabitRecord struct {
	Message string       `json:"message" example:"Habit registered"`
	Habit   HabitRequest `json:"habit"`
}
