package models

import (
	"time"
)

// Feedback is the rating an admin records for a completed task on behalf of the elder
type Feedback struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TaskID    uint      `json:"task_id" gorm:"not null;uniqueIndex"`
	Task      *Task     `json:"-" gorm:"foreignKey:TaskID"`
	ElderName string    `json:"elder_name" gorm:"type:varchar(50);not null"`
	Comment   string    `json:"comment" gorm:"type:text;not null"`
	Rating    int       `json:"rating" gorm:"type:int;not null;check:rating >= 1 AND rating <= 5"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName sets custom table name
func (Feedback) TableName() string { return "feedbacks" }

// FeedbackCreate is the submission payload
type FeedbackCreate struct {
	ElderName string `json:"elder_name" binding:"required,max=50"`
	Comment   string `json:"comment" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
}

// FeedbackSummary aggregates ratings for reports
type FeedbackSummary struct {
	Total         int64   `json:"total"`
	AverageRating float64 `json:"average_rating"`
	StarCounts    [5]int  `json:"star_counts"` // index 0 is one star
}
