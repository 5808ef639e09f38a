package models

import (
	"time"
)

// PasswordResetCode is a one-time verification code sent by email
type PasswordResetCode struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Email     string     `json:"email" gorm:"size:255;not null;index"`
	CodeHash  string     `json:"-" gorm:"size:255;not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null;index"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for the PasswordResetCode model
func (PasswordResetCode) TableName() string {
	return "password_reset_codes"
}

// IsExpired checks the code against now
func (c *PasswordResetCode) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// IsUsable checks if the code is neither expired nor consumed
func (c *PasswordResetCode) IsUsable(now time.Time) bool {
	return c.UsedAt == nil && !c.IsExpired(now)
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6,numeric"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=128"`
}
