package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"gorm.io/gorm"

	"eldercare-server/database"
	"eldercare-server/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

var userSeq int

func createUser(t *testing.T, db *gorm.DB, role models.UserRole, name string) Actor {
	t.Helper()
	userSeq++
	u := models.User{
		Name:         name,
		Age:          40,
		Email:        fmt.Sprintf("%s%d@example.org", name, userSeq),
		Phone:        fmt.Sprintf("555%04d", userSeq),
		PasswordHash: "x",
		Role:         role,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return ActorFromUser(u)
}

func createNeed(t *testing.T, svc *NeedService, admin Actor, title string) *models.ServiceNeed {
	t.Helper()
	need, err := svc.Create(context.Background(), admin, models.ServiceNeedCreate{
		Title:       title,
		Description: "weeding and raking",
		Address:     "12 Elm St",
		Time:        "2pm-4pm",
	})
	if err != nil {
		t.Fatalf("create need: %v", err)
	}
	return need
}

func assertKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}
