package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"eldercare-server/models"
)

// NeedService is the registry of posted service needs
type NeedService struct {
	db     *gorm.DB
	events EventPublisher
	now    func() time.Time
}

func NewNeedService(db *gorm.DB, events EventPublisher) *NeedService {
	if events == nil {
		events = NopPublisher{}
	}
	return &NeedService{db: db, events: events, now: utcNow}
}

// ListOpen returns every need still waiting for a provider, oldest first
func (s *NeedService) ListOpen(ctx context.Context) ([]models.ServiceNeed, error) {
	needs := []models.ServiceNeed{}
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.NeedStatusOpen).
		Order("created_at ASC, id ASC").
		Find(&needs).Error; err != nil {
		return nil, internal("failed to list needs", err)
	}
	return needs, nil
}

// Create posts a new open need. Only admins may post; titles need not be unique.
func (s *NeedService) Create(ctx context.Context, actor Actor, input models.ServiceNeedCreate) (*models.ServiceNeed, error) {
	if err := requireRole(actor, models.RoleAdmin, "only community admins can post service needs"); err != nil {
		return nil, err
	}

	need := models.ServiceNeed{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Address:     strings.TrimSpace(input.Address),
		Time:        strings.TrimSpace(input.Time),
		Status:      models.NeedStatusOpen,
		CreatedBy:   actor.ID,
		CreatedAt:   s.now(),
	}
	if need.Title == "" || need.Description == "" || need.Address == "" || need.Time == "" {
		return nil, invalid("title, description, address and time are required")
	}

	if err := s.db.WithContext(ctx).Create(&need).Error; err != nil {
		return nil, internal("failed to create need", err)
	}

	emit(ctx, s.events, Event{
		Type:       EventNeedCreated,
		EntityID:   need.ID,
		Data:       need,
		OccurredAt: need.CreatedAt,
	})
	return &need, nil
}

func utcNow() time.Time { return time.Now().UTC() }
