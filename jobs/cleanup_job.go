package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"eldercare-server/middleware"
	"eldercare-server/services"
)

const (
	ResetCodeCleanupInterval   = 10 * time.Minute
	RateLimiterCleanupInterval = 15 * time.Minute
	rateLimiterMaxIdle         = time.Hour
)

// CleanupJob runs a maintenance task on a fixed interval
type CleanupJob struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewCleanupJob creates a job that calls task every interval
func NewCleanupJob(name string, interval time.Duration, task func(ctx context.Context) error) *CleanupJob {
	return &CleanupJob{
		name:     name,
		interval: interval,
		task:     task,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// NewResetCodeCleanupJob purges expired and used password reset codes
func NewResetCodeCleanupJob(resets *services.PasswordResetService) *CleanupJob {
	return NewCleanupJob("reset code cleanup", ResetCodeCleanupInterval, func(ctx context.Context) error {
		n, err := resets.PurgeExpired(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		if n > 0 {
			log.Printf("🧹 Purged %d password reset codes", n)
		}
		return nil
	})
}

// NewRateLimiterCleanupJob drops limiters for clients idle over an hour
func NewRateLimiterCleanupJob(rl *middleware.RateLimiter) *CleanupJob {
	return NewCleanupJob("rate limiter cleanup", RateLimiterCleanupInterval, func(context.Context) error {
		if n := rl.Cleanup(rateLimiterMaxIdle); n > 0 {
			log.Printf("🧹 Removed %d idle rate limiters", n)
		}
		return nil
	})
}

// Start begins the job
func (j *CleanupJob) Start() {
	go j.run()
	log.Printf("🚀 %s job started (every %v)", j.name, j.interval)
}

// Stop stops the job and waits for a running pass to finish
func (j *CleanupJob) Stop() {
	j.stopOnce.Do(func() {
		close(j.stopChan)
		<-j.done
		log.Printf("🛑 %s job stopped", j.name)
	})
}

// RunOnce executes a single pass
func (j *CleanupJob) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()
	if err := j.task(ctx); err != nil {
		log.Printf("❌ %s failed: %v", j.name, err)
	}
}

func (j *CleanupJob) run() {
	defer close(j.done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce()
		case <-j.stopChan:
			return
		}
	}
}
