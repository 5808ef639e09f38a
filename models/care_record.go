package models

import (
	"time"
)

// Appointment is a scheduled visit or service booked for a user
type Appointment struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	UserID  uint      `json:"user_id" gorm:"not null;index"`
	Type    string    `json:"type" gorm:"type:varchar(100);not null"`
	Details string    `json:"details" gorm:"type:text;not null"`
	Date    time.Time `json:"date"`
}

func (Appointment) TableName() string { return "appointments" }

type AppointmentCreate struct {
	UserID  uint       `json:"user_id" binding:"required"`
	Type    string     `json:"type" binding:"required,max=100"`
	Details string     `json:"details" binding:"required"`
	Date    *time.Time `json:"date"`
}

// HealthRecord is one set of vitals captured for a user
type HealthRecord struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UserID        uint      `json:"user_id" gorm:"not null;index"`
	HeartRate     *int      `json:"heart_rate"`
	BloodPressure *string   `json:"blood_pressure" gorm:"type:varchar(20)"` // e.g. "120/80"
	BloodSugar    *float64  `json:"blood_sugar"`
	Weight        *float64  `json:"weight"`
	Steps         *int      `json:"steps"`
	Timestamp     time.Time `json:"timestamp"`
}

func (HealthRecord) TableName() string { return "health_records" }

type HealthRecordCreate struct {
	UserID        uint     `json:"user_id" binding:"required"`
	HeartRate     *int     `json:"heart_rate" binding:"omitempty,min=0,max=300"`
	BloodPressure *string  `json:"blood_pressure" binding:"omitempty,max=20"`
	BloodSugar    *float64 `json:"blood_sugar" binding:"omitempty,min=0"`
	Weight        *float64 `json:"weight" binding:"omitempty,min=0"`
	Steps         *int     `json:"steps" binding:"omitempty,min=0"`
}
