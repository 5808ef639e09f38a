package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"eldercare-server/models"
)

// FeedbackService records at most one rating per completed task
type FeedbackService struct {
	db     *gorm.DB
	events EventPublisher
	now    func() time.Time
}

func NewFeedbackService(db *gorm.DB, events EventPublisher) *FeedbackService {
	if events == nil {
		events = NopPublisher{}
	}
	return &FeedbackService{db: db, events: events, now: utcNow}
}

// Submit records the elder's feedback on a completed task. This is the only
// way feedback is created; it cannot be edited afterwards.
func (s *FeedbackService) Submit(ctx context.Context, actor Actor, taskID uint, input models.FeedbackCreate) (*models.Feedback, error) {
	if err := requireRole(actor, models.RoleAdmin, "only community admins can submit feedback"); err != nil {
		return nil, err
	}

	input.ElderName = strings.TrimSpace(input.ElderName)
	input.Comment = strings.TrimSpace(input.Comment)
	if input.ElderName == "" || input.Comment == "" {
		return nil, invalid("elder_name and comment are required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, invalid("rating must be between 1 and 5")
	}

	var (
		feedback   models.Feedback
		providerID uint
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := lockForUpdate(tx).First(&task, taskID).Error; err != nil {
			return storeError(err, "task not found", "", "failed to load task")
		}
		if !task.IsCompleted() {
			return conflict("task not yet completed")
		}

		var existing int64
		if err := tx.Model(&models.Feedback{}).Where("task_id = ?", task.ID).Count(&existing).Error; err != nil {
			return internal("failed to check feedback", err)
		}
		if existing > 0 {
			return conflict("feedback already exists for this task")
		}

		feedback = models.Feedback{
			TaskID:    task.ID,
			ElderName: input.ElderName,
			Comment:   input.Comment,
			Rating:    input.Rating,
			CreatedAt: s.now(),
		}
		// the unique index on task_id catches a racing insert the count missed
		if err := tx.Create(&feedback).Error; err != nil {
			return storeError(err, "", "feedback already exists for this task", "failed to create feedback")
		}
		providerID = task.ProviderID
		return nil
	})
	if err != nil {
		return nil, err
	}

	emit(ctx, s.events, Event{
		Type:       EventFeedbackSubmitted,
		EntityID:   feedback.ID,
		ProviderID: providerID,
		Data:       feedback,
		OccurredAt: feedback.CreatedAt,
	})
	return &feedback, nil
}

// ListMine returns feedback on the provider's own tasks
func (s *FeedbackService) ListMine(ctx context.Context, actor Actor) ([]models.Feedback, error) {
	if err := requireRole(actor, models.RoleProvider, "only providers can view their feedback"); err != nil {
		return nil, err
	}
	return s.find(ctx, s.byProvider(actor.ID))
}

// ListAll returns every feedback entry
func (s *FeedbackService) ListAll(ctx context.Context, actor Actor) ([]models.Feedback, error) {
	if err := requireRole(actor, models.RoleAdmin, "only community admins can view all feedback"); err != nil {
		return nil, err
	}
	return s.find(ctx, s.db)
}

// ListByProvider returns feedback received by one provider
func (s *FeedbackService) ListByProvider(ctx context.Context, actor Actor, providerID uint) ([]models.Feedback, error) {
	if err := requireRole(actor, models.RoleAdmin, "only community admins can view provider feedback"); err != nil {
		return nil, err
	}
	return s.find(ctx, s.byProvider(providerID))
}

// Summary aggregates all ratings
func (s *FeedbackService) Summary(ctx context.Context, actor Actor) (*models.FeedbackSummary, error) {
	if err := requireRole(actor, models.RoleAdmin, "only community admins can view feedback statistics"); err != nil {
		return nil, err
	}

	var rows []struct {
		Rating int
		Count  int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Feedback{}).
		Select("rating, COUNT(*) AS count").
		Group("rating").
		Scan(&rows).Error; err != nil {
		return nil, internal("failed to summarize feedback", err)
	}

	summary := &models.FeedbackSummary{}
	var sum int64
	for _, r := range rows {
		if r.Rating >= 1 && r.Rating <= 5 {
			summary.StarCounts[r.Rating-1] = int(r.Count)
		}
		summary.Total += r.Count
		sum += int64(r.Rating) * r.Count
	}
	if summary.Total > 0 {
		summary.AverageRating = roundTenth(float64(sum) / float64(summary.Total))
	}
	return summary, nil
}

// ExportRows loads every feedback with its task and need for reporting
func (s *FeedbackService) ExportRows(ctx context.Context, actor Actor) ([]models.Feedback, error) {
	if err := requireRole(actor, models.RoleAdmin, "only community admins can export feedback"); err != nil {
		return nil, err
	}
	var list []models.Feedback
	if err := s.db.WithContext(ctx).Preload("Task.Need").Order("id ASC").Find(&list).Error; err != nil {
		return nil, internal("failed to load feedback", err)
	}
	return list, nil
}

func (s *FeedbackService) byProvider(providerID uint) *gorm.DB {
	tasks := s.db.Model(&models.Task{}).Select("id").Where("provider_id = ?", providerID)
	return s.db.Where("task_id IN (?)", tasks)
}

func (s *FeedbackService) find(ctx context.Context, query *gorm.DB) ([]models.Feedback, error) {
	list := []models.Feedback{}
	if err := query.WithContext(ctx).Order("id ASC").Find(&list).Error; err != nil {
		return nil, internal("failed to list feedback", err)
	}
	return list, nil
}
