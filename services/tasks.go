package services

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eldercare-server/models"
)

// TaskService runs the task lifecycle: open need -> ongoing task -> completed task
type TaskService struct {
	db     *gorm.DB
	events EventPublisher
	now    func() time.Time
}

func NewTaskService(db *gorm.DB, events EventPublisher) *TaskService {
	if events == nil {
		events = NopPublisher{}
	}
	return &TaskService{db: db, events: events, now: utcNow}
}

// Accept turns an open need into an ongoing task owned by the provider.
// The status check and both writes share one transaction, so of two
// concurrent accepts exactly one commits and the other sees Conflict.
func (s *TaskService) Accept(ctx context.Context, actor Actor, needID uint) (*models.TaskResponse, error) {
	if err := requireRole(actor, models.RoleProvider, "only providers can accept tasks"); err != nil {
		return nil, err
	}

	var task models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var need models.ServiceNeed
		if err := lockForUpdate(tx).First(&need, needID).Error; err != nil {
			return storeError(err, "service need not found", "", "failed to load need")
		}
		if need.Status != models.NeedStatusOpen {
			return conflict("service need already accepted")
		}

		// compare-and-swap on status guards stores without row locks
		res := tx.Model(&models.ServiceNeed{}).
			Where("id = ? AND status = ?", need.ID, models.NeedStatusOpen).
			Update("status", models.NeedStatusAccepted)
		if res.Error != nil {
			return internal("failed to update need", res.Error)
		}
		if res.RowsAffected == 0 {
			return conflict("service need already accepted")
		}

		task = models.Task{
			NeedID:     need.ID,
			ProviderID: actor.ID,
			Status:     models.TaskStatusOngoing,
			AcceptedAt: s.now(),
		}
		if err := tx.Create(&task).Error; err != nil {
			return storeError(err, "", "service need already accepted", "failed to create task")
		}
		need.Status = models.NeedStatusAccepted
		task.Need = &need
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := task.ToResponse()
	emit(ctx, s.events, Event{
		Type:       EventTaskAccepted,
		EntityID:   task.ID,
		ProviderID: task.ProviderID,
		Data:       resp,
		OccurredAt: task.AcceptedAt,
	})
	return &resp, nil
}

// Complete moves the provider's own ongoing task to completed. It never reopens.
func (s *TaskService) Complete(ctx context.Context, actor Actor, taskID uint) (*models.TaskResponse, error) {
	if err := requireRole(actor, models.RoleProvider, "only providers can complete tasks"); err != nil {
		return nil, err
	}

	var task models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Preload("Need").First(&task, taskID).Error; err != nil {
			return storeError(err, "task not found", "", "failed to load task")
		}
		if task.ProviderID != actor.ID {
			return forbidden("cannot modify others' tasks")
		}
		if task.IsCompleted() {
			return conflict("task already completed")
		}

		completedAt := s.now()
		res := tx.Model(&models.Task{}).
			Where("id = ? AND status = ?", task.ID, models.TaskStatusOngoing).
			Updates(map[string]interface{}{
				"status":       models.TaskStatusCompleted,
				"completed_at": completedAt,
			})
		if res.Error != nil {
			return internal("failed to complete task", res.Error)
		}
		if res.RowsAffected == 0 {
			return conflict("task already completed")
		}
		task.Status = models.TaskStatusCompleted
		task.CompletedAt = &completedAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := task.ToResponse()
	emit(ctx, s.events, Event{
		Type:       EventTaskCompleted,
		EntityID:   task.ID,
		ProviderID: task.ProviderID,
		Data:       resp,
		OccurredAt: *task.CompletedAt,
	})
	return &resp, nil
}

// ListMine returns the provider's tasks with their need summaries
func (s *TaskService) ListMine(ctx context.Context, actor Actor) ([]models.TaskResponse, error) {
	if err := requireRole(actor, models.RoleProvider, "only providers can view their tasks"); err != nil {
		return nil, err
	}
	return s.list(ctx, s.db.Where("provider_id = ?", actor.ID))
}

// ListCompleted returns every completed task
func (s *TaskService) ListCompleted(ctx context.Context, actor Actor) ([]models.TaskResponse, error) {
	if err := requireRole(actor, models.RoleAdmin, "only community admins can view completed tasks"); err != nil {
		return nil, err
	}
	return s.list(ctx, s.db.Where("status = ?", models.TaskStatusCompleted))
}

// ListByProvider returns every task accepted by one provider
func (s *TaskService) ListByProvider(ctx context.Context, actor Actor, providerID uint) ([]models.TaskResponse, error) {
	if err := requireRole(actor, models.RoleAdmin, "only community admins can view provider tasks"); err != nil {
		return nil, err
	}
	return s.list(ctx, s.db.Where("provider_id = ?", providerID))
}

// GetOwned loads a task the provider owns
func (s *TaskService) GetOwned(ctx context.Context, actor Actor, taskID uint) (*models.Task, error) {
	if err := requireRole(actor, models.RoleProvider, "only providers can modify tasks"); err != nil {
		return nil, err
	}
	var task models.Task
	if err := s.db.WithContext(ctx).Preload("Need").First(&task, taskID).Error; err != nil {
		return nil, storeError(err, "task not found", "", "failed to load task")
	}
	if task.ProviderID != actor.ID {
		return nil, forbidden("cannot modify others' tasks")
	}
	return &task, nil
}

// AttachPhoto records the URL of a completion photo on the provider's task
func (s *TaskService) AttachPhoto(ctx context.Context, actor Actor, taskID uint, url string) (*models.TaskResponse, error) {
	task, err := s.GetOwned(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", task.ID).Update("photo_url", url).Error; err != nil {
		return nil, internal("failed to save photo", err)
	}
	task.PhotoURL = &url
	resp := task.ToResponse()
	return &resp, nil
}

func (s *TaskService) list(ctx context.Context, query *gorm.DB) ([]models.TaskResponse, error) {
	var tasks []models.Task
	if err := query.WithContext(ctx).Preload("Need").Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, internal("failed to list tasks", err)
	}
	out := make([]models.TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, tasks[i].ToResponse())
	}
	return out, nil
}

// lockForUpdate takes a row lock where the dialect supports one
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

