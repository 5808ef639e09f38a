package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"eldercare-server/models"
)

// CareRecordService stores appointments and health readings per user
type CareRecordService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCareRecordService(db *gorm.DB) *CareRecordService {
	return &CareRecordService{db: db, now: utcNow}
}

func (s *CareRecordService) CreateAppointment(ctx context.Context, actor Actor, input models.AppointmentCreate) (*models.Appointment, error) {
	if err := requireSelfOrAdmin(actor, input.UserID, "cannot book appointments for another user"); err != nil {
		return nil, err
	}
	if err := s.ensureUser(ctx, input.UserID); err != nil {
		return nil, err
	}

	appt := models.Appointment{
		UserID:  input.UserID,
		Type:    strings.TrimSpace(input.Type),
		Details: strings.TrimSpace(input.Details),
		Date:    s.now(),
	}
	if input.Date != nil {
		appt.Date = input.Date.UTC()
	}
	if err := s.db.WithContext(ctx).Create(&appt).Error; err != nil {
		return nil, internal("failed to create appointment", err)
	}
	return &appt, nil
}

func (s *CareRecordService) ListAppointments(ctx context.Context, actor Actor, userID uint) ([]models.Appointment, error) {
	if err := requireSelfOrAdmin(actor, userID, "cannot view another user's appointments"); err != nil {
		return nil, err
	}
	list := []models.Appointment{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("date ASC, id ASC").Find(&list).Error; err != nil {
		return nil, internal("failed to list appointments", err)
	}
	return list, nil
}

func (s *CareRecordService) CancelAppointment(ctx context.Context, actor Actor, id uint) error {
	var appt models.Appointment
	if err := s.db.WithContext(ctx).First(&appt, id).Error; err != nil {
		return storeError(err, "appointment not found", "", "failed to load appointment")
	}
	if err := requireSelfOrAdmin(actor, appt.UserID, "cannot cancel another user's appointment"); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&appt).Error; err != nil {
		return internal("failed to cancel appointment", err)
	}
	return nil
}

func (s *CareRecordService) CreateHealthRecord(ctx context.Context, actor Actor, input models.HealthRecordCreate) (*models.HealthRecord, error) {
	if err := requireSelfOrAdmin(actor, input.UserID, "cannot record health data for another user"); err != nil {
		return nil, err
	}
	if err := s.ensureUser(ctx, input.UserID); err != nil {
		return nil, err
	}

	record := models.HealthRecord{
		UserID:        input.UserID,
		HeartRate:     input.HeartRate,
		BloodPressure: input.BloodPressure,
		BloodSugar:    input.BloodSugar,
		Weight:        input.Weight,
		Steps:         input.Steps,
		Timestamp:     s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, internal("failed to save health record", err)
	}
	return &record, nil
}

func (s *CareRecordService) ListHealthRecords(ctx context.Context, actor Actor, userID uint) ([]models.HealthRecord, error) {
	if err := requireSelfOrAdmin(actor, userID, "cannot view another user's health records"); err != nil {
		return nil, err
	}
	list := []models.HealthRecord{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("timestamp DESC, id DESC").Find(&list).Error; err != nil {
		return nil, internal("failed to list health records", err)
	}
	return list, nil
}

func (s *CareRecordService) ensureUser(ctx context.Context, id uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return internal("failed to load user", err)
	}
	if count == 0 {
		return notFound("user not found")
	}
	return nil
}
