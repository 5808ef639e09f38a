package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"eldercare-server/models"
)

// interleave runs query on the open transaction right before the next
// write to table, standing in for a competing request that committed
// between the status check and the write.
func interleave(t *testing.T, db *gorm.DB, op, table, query string, args ...interface{}) {
	t.Helper()
	fired := false
	fn := func(tx *gorm.DB) {
		if fired || tx.Statement.Table != table {
			return
		}
		fired = true
		if _, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context, query, args...); err != nil {
			t.Errorf("interleaved write on %s: %v", table, err)
		}
	}

	var err error
	switch op {
	case "update":
		err = db.Callback().Update().Before("gorm:update").Register("test:interleave_"+table, fn)
	case "create":
		err = db.Callback().Create().Before("gorm:create").Register("test:interleave_"+table, fn)
	default:
		t.Fatalf("unknown op %s", op)
	}
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
}

func TestAcceptLosesStatusSwap(t *testing.T) {
	ctx := context.Background()
	lc := newLifecycle(t)
	need := createNeed(t, lc.needs, lc.admin, "groceries")

	interleave(t, lc.tasks.db, "update", "service_needs",
		"UPDATE service_needs SET status = 'accepted' WHERE id = ?", need.ID)

	_, err := lc.tasks.Accept(ctx, lc.p1, need.ID)
	assertKind(t, err, KindConflict)

	var count int64
	lc.tasks.db.Model(&models.Task{}).Where("need_id = ?", need.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected no task after a lost swap, got %d", count)
	}
	for _, typ := range lc.events.types() {
		if typ == EventTaskAccepted {
			t.Fatal("a rolled back accept must not emit an event")
		}
	}

	// the interleaved write rolled back with the transaction
	if _, err := lc.tasks.Accept(ctx, lc.p2, need.ID); err != nil {
		t.Fatalf("accept after rollback: %v", err)
	}
}

func TestAcceptHitsUniqueTaskIndex(t *testing.T) {
	ctx := context.Background()
	lc := newLifecycle(t)
	need := createNeed(t, lc.needs, lc.admin, "pharmacy")

	interleave(t, lc.tasks.db, "create", "tasks",
		"INSERT INTO tasks (need_id, provider_id, status, accepted_at) VALUES (?, ?, 'ongoing', ?)",
		need.ID, lc.p2.ID, time.Now().UTC())

	_, err := lc.tasks.Accept(ctx, lc.p1, need.ID)
	assertKind(t, err, KindConflict)
	if MessageOf(err) != "service need already accepted" {
		t.Fatalf("unexpected message %q", MessageOf(err))
	}
}

func TestCompleteLosesStatusSwap(t *testing.T) {
	ctx := context.Background()
	lc := newLifecycle(t)
	need := createNeed(t, lc.needs, lc.admin, "laundry")
	task, err := lc.tasks.Accept(ctx, lc.p1, need.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	interleave(t, lc.tasks.db, "update", "tasks",
		"UPDATE tasks SET status = 'completed' WHERE id = ?", task.ID)

	_, err = lc.tasks.Complete(ctx, lc.p1, task.ID)
	assertKind(t, err, KindConflict)

	var stored models.Task
	lc.tasks.db.First(&stored, task.ID)
	if stored.Status != models.TaskStatusOngoing || stored.CompletedAt != nil {
		t.Fatalf("expected task untouched after a lost swap, got %s", stored.Status)
	}
}

func TestSubmitHitsUniqueFeedbackIndex(t *testing.T) {
	ctx := context.Background()
	lc := newLifecycle(t)
	task := completedTask(t, lc, lc.p1, "yard")

	interleave(t, lc.feedback.db, "create", "feedbacks",
		"INSERT INTO feedbacks (task_id, elder_name, comment, rating, created_at) VALUES (?, 'Mrs. Lee', 'first', 4, ?)",
		task.ID, time.Now().UTC())

	_, err := lc.feedback.Submit(ctx, lc.admin, task.ID, models.FeedbackCreate{ElderName: "Mr. Lee", Comment: "second", Rating: 5})
	assertKind(t, err, KindConflict)
	if MessageOf(err) != "feedback already exists for this task" {
		t.Fatalf("unexpected message %q", MessageOf(err))
	}
}

func TestDuplicateRowsMapToConflict(t *testing.T) {
	lc := newLifecycle(t)
	db := lc.tasks.db
	need := createNeed(t, lc.needs, lc.admin, "bulbs")

	first := models.Task{NeedID: need.ID, ProviderID: lc.p1.ID, Status: models.TaskStatusOngoing, AcceptedAt: time.Now().UTC()}
	if err := db.Create(&first).Error; err != nil {
		t.Fatal(err)
	}
	second := models.Task{NeedID: need.ID, ProviderID: lc.p2.ID, Status: models.TaskStatusOngoing, AcceptedAt: time.Now().UTC()}
	err := storeError(db.Create(&second).Error, "", "service need already accepted", "failed to create task")
	assertKind(t, err, KindConflict)

	fb := models.Feedback{TaskID: first.ID, ElderName: "E", Comment: "c", Rating: 3, CreatedAt: time.Now().UTC()}
	if err := db.Create(&fb).Error; err != nil {
		t.Fatal(err)
	}
	dup := models.Feedback{TaskID: first.ID, ElderName: "E", Comment: "c", Rating: 4, CreatedAt: time.Now().UTC()}
	err = storeError(db.Create(&dup).Error, "", "feedback already exists for this task", "failed to create feedback")
	assertKind(t, err, KindConflict)
}

// race runs call from n goroutines and counts successes and conflicts
func race(t *testing.T, n int, call func(i int) error) (wins, conflicts int) {
	t.Helper()
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := call(i)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case KindOf(err) == KindConflict:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	return wins, conflicts
}

func TestConcurrentCompleteHasOneWinner(t *testing.T) {
	ctx := context.Background()
	lc := newLifecycle(t)
	need := createNeed(t, lc.needs, lc.admin, "dishes")
	task, err := lc.tasks.Accept(ctx, lc.p1, need.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	const n = 6
	wins, conflicts := race(t, n, func(int) error {
		_, err := lc.tasks.Complete(ctx, lc.p1, task.ID)
		return err
	})
	if wins != 1 || conflicts != n-1 {
		t.Fatalf("expected 1 winner and %d conflicts, got %d and %d", n-1, wins, conflicts)
	}
}

func TestConcurrentSubmitHasOneWinner(t *testing.T) {
	ctx := context.Background()
	lc := newLifecycle(t)
	task := completedTask(t, lc, lc.p1, "windows")

	const n = 6
	wins, conflicts := race(t, n, func(i int) error {
		_, err := lc.feedback.Submit(ctx, lc.admin, task.ID, models.FeedbackCreate{
			ElderName: "Mrs. Lee",
			Comment:   "spotless",
			Rating:    1 + i%5,
		})
		return err
	})
	if wins != 1 || conflicts != n-1 {
		t.Fatalf("expected 1 winner and %d conflicts, got %d and %d", n-1, wins, conflicts)
	}

	var count int64
	lc.feedback.db.Model(&models.Feedback{}).Where("task_id = ?", task.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one feedback, got %d", count)
	}
}
