package models

import "time"

type User struct {
	ID         int64     `json:"id" example:"1"`
	Name       string    `json:"name" example:"Ana Pérez"`
	Phone      string    `json:"phone" example:"+525512345678"`
	TelegramID *string   `json:"telegram_id,omitempty"`
	Email      string    `json:"email" example:"ana@example.com"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UserCreateRequest represents the registration payload
type UserCreateRequest struct {
	Name       string  `json:"name" validate:"required,min=2,max=255"`
	Phone      string  `json:"phone" validate:"required,min=7,max=20"`
	TelegramID *string `json:"telegram_id,omitempty" validate:"omitempty,max=100"`
	Email      string  `json:"email" validate:"required,email,max=255"`
	Password   string  `json:"password" validate:"required,min=6"`
}

// UserUpdateRequest is a partial profile update
type UserUpdateRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	TelegramID *string `json:"telegram_id,omitempty" validate:"omitempty,max=100"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Password   *string `json:"password,omitempty" validate:"omitempty,min=6"`
}
