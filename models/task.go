package models

import (
	"time"
)

// TaskStatus represents the state of an accepted need
type TaskStatus string

const (
	TaskStatusOngoing   TaskStatus = "ongoing"
	TaskStatusCompleted TaskStatus = "completed"
)

// Task tracks a provider's execution of exactly one need
type Task struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	NeedID      uint         `json:"need_id" gorm:"not null;uniqueIndex"`
	Need        *ServiceNeed `json:"-" gorm:"foreignKey:NeedID"`
	ProviderID  uint         `json:"provider_id" gorm:"not null;index"`
	Provider    *User        `json:"-" gorm:"foreignKey:ProviderID"`
	Status      TaskStatus   `json:"status" gorm:"type:varchar(20);not null;default:'ongoing';index"`
	PhotoURL    *string      `json:"photo_url,omitempty" gorm:"size:500"`
	AcceptedAt  time.Time    `json:"accepted_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// TableName specifies the table name for the Task model
func (Task) TableName() string {
	return "tasks"
}

// IsCompleted reports whether the task reached its terminal state
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// TaskCreate is the payload a provider sends to accept a need
type TaskCreate struct {
	NeedID uint `json:"need_id" binding:"required"`
}

// TaskResponse is a task with its need summary
type TaskResponse struct {
	ID          uint       `json:"id"`
	NeedID      uint       `json:"need_id"`
	ProviderID  uint       `json:"provider_id"`
	Status      TaskStatus `json:"status"`
	PhotoURL    *string    `json:"photo_url,omitempty"`
	AcceptedAt  time.Time  `json:"accepted_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Need        NeedInfo   `json:"need"`
}

// ToResponse flattens a task and its preloaded need
func (t *Task) ToResponse() TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		NeedID:      t.NeedID,
		ProviderID:  t.ProviderID,
		Status:      t.Status,
		PhotoURL:    t.PhotoURL,
		AcceptedAt:  t.AcceptedAt,
		CompletedAt: t.CompletedAt,
	}
	if t.Need != nil {
		resp.Need = NeedInfo{Title: t.Need.Title, Address: t.Need.Address, Time: t.Need.Time}
	}
	return resp
}
