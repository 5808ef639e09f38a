package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleProvider UserRole = "provider"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"size:100;not null"`
	Age          int       `json:"age" gorm:"not null"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Phone        string    `json:"phone" gorm:"size:30;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Hidden from JSON
	Role         UserRole  `json:"role" gorm:"type:varchar(20);not null;default:'provider';check:role IN ('admin','provider')"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate is a GORM hook that runs before creating a user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleProvider
	}
	return nil
}

// IsValid reports whether r is one of the two known roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleProvider:
		return true
	default:
		return false
	}
}

// IsAdmin checks if the user is a community administrator
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsProvider checks if the user is a service provider
func (u *User) IsProvider() bool {
	return u.Role == RoleProvider
}

// UserRegister is the signup payload
type UserRegister struct {
	Name     string   `json:"name" binding:"required,min=1,max=100"`
	Age      int      `json:"age" binding:"required,min=1,max=150"`
	Email    string   `json:"email" binding:"required,email"`
	Phone    string   `json:"phone" binding:"required,phone"`
	Password string   `json:"password" binding:"required,min=6,max=128"`
	Role     UserRole `json:"role" binding:"omitempty,userrole"`
}

// UserLogin is the login payload
type UserLogin struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserUpdate carries the mutable profile fields; nil fields are left untouched
type UserUpdate struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=100"`
	Age   *int    `json:"age" binding:"omitempty,min=1,max=150"`
	Email *string `json:"email" binding:"omitempty,email"`
	Phone *string `json:"phone" binding:"omitempty,phone"`
}

// UserResponse is a user annotated with service statistics
type UserResponse struct {
	User
	ServiceCount  int64   `json:"service_count"`
	AverageRating float64 `json:"average_rating"`
}
