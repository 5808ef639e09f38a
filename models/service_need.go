package models

import (
	"time"
)

// ServiceNeedStatus represents the lifecycle state of a posted need
type ServiceNeedStatus string

const (
	NeedStatusOpen     ServiceNeedStatus = "open"
	NeedStatusAccepted ServiceNeedStatus = "accepted"
	// NeedStatusCompleted is part of the stored vocabulary but is never written:
	// a need stays accepted once its task completes.
	NeedStatusCompleted ServiceNeedStatus = "completed"
)

// ServiceNeed is a request for elder-care service posted by a community admin
type ServiceNeed struct {
	ID          uint              `json:"id" gorm:"primaryKey"`
	Title       string            `json:"title" gorm:"type:varchar(100);not null"`
	Description string            `json:"description" gorm:"type:text;not null"`
	Address     string            `json:"address" gorm:"type:varchar(200);not null"`
	Time        string            `json:"time" gorm:"type:varchar(100);not null"`
	Status      ServiceNeedStatus `json:"status" gorm:"type:varchar(20);not null;default:'open';index"`
	CreatedBy   uint              `json:"created_by" gorm:"not null;index"`
	Creator     *User             `json:"-" gorm:"foreignKey:CreatedBy"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TableName specifies the table name for the ServiceNeed model
func (ServiceNeed) TableName() string {
	return "service_needs"
}

// ServiceNeedCreate is the payload for posting a need
type ServiceNeedCreate struct {
	Title       string `json:"title" binding:"required,max=100"`
	Description string `json:"description" binding:"required"`
	Address     string `json:"address" binding:"required,max=200"`
	Time        string `json:"time" binding:"required,max=100"`
}

// NeedInfo is the need summary embedded in task responses
type NeedInfo struct {
	Title   string `json:"title"`
	Address string `json:"address"`
	Time    string `json:"time"`
}
