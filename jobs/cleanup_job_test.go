package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"eldercare-server/database"
	"eldercare-server/middleware"
	"eldercare-server/models"
	"eldercare-server/services"
)

func TestCleanupJobRunsUntilStopped(t *testing.T) {
	var calls int32
	job := NewCleanupJob("test", 5*time.Millisecond, func(context.Context) error {
		if atomic.AddInt32(&calls, 1) == 2 {
			return errors.New("transient")
		}
		return nil
	})
	job.Start()

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&calls) < 3 {
		if time.Now().After(deadline) {
			t.Fatal("job did not keep running after an error")
		}
		time.Sleep(time.Millisecond)
	}
	job.Stop()
	job.Stop()

	after := atomic.LoadInt32(&calls)
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&calls) != after {
		t.Fatal("job ran after Stop")
	}
}

func TestResetCodeCleanupJob(t *testing.T) {
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	db.Create(&models.PasswordResetCode{Email: "a@example.org", CodeHash: "h", ExpiresAt: past})
	db.Create(&models.PasswordResetCode{Email: "b@example.org", CodeHash: "h", ExpiresAt: future})

	resets := services.NewPasswordResetService(db, services.NewCredentialService("s", time.Minute), services.LogMailer{}, 5*time.Minute)
	NewResetCodeCleanupJob(resets).RunOnce()

	var left []models.PasswordResetCode
	db.Find(&left)
	if len(left) != 1 || left[0].Email != "b@example.org" {
		t.Fatalf("unexpected remaining codes %+v", left)
	}
}

func TestRateLimiterCleanupJobKeepsActive(t *testing.T) {
	rl := middleware.NewRateLimiter()
	rl.GetLimiterWithConfig("GET /api/needs|1.2.3.4", 1, 1)
	NewRateLimiterCleanupJob(rl).RunOnce()
	if rl.Size() != 1 {
		t.Fatalf("active limiter should be kept, size=%d", rl.Size())
	}
}
