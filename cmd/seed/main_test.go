package main

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"eldercare-server/database"
)

func openSeedDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB
}

func runSeed(t *testing.T, db *sql.DB, opts seedOptions) seedResult {
	t.Helper()
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := seed(ctx, tx, opts, "hash", time.Now().UTC())
	if err != nil {
		tx.Rollback()
		t.Fatalf("seed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	return res
}

func count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestSeedIsRepeatable(t *testing.T) {
	db := openSeedDB(t)
	opts := seedOptions{admins: 1, providers: 2, needs: len(demoNeeds) + 2}

	first := runSeed(t, db, opts)
	if first.usersCreated != 3 || first.needsCreated != len(demoNeeds)+2 {
		t.Fatalf("unexpected first run %+v", first)
	}

	second := runSeed(t, db, opts)
	want := seedResult{usersSkipped: 3, needsSkipped: len(demoNeeds) + 2}
	if second != want {
		t.Fatalf("expected rerun to skip everything, got %+v", second)
	}

	if n := count(t, db, "users"); n != 3 {
		t.Fatalf("expected 3 users, got %d", n)
	}
	if n := count(t, db, "service_needs"); n != len(demoNeeds)+2 {
		t.Fatalf("expected %d needs, got %d", len(demoNeeds)+2, n)
	}
}

func TestSeedSkipsTakenPhone(t *testing.T) {
	db := openSeedDB(t)
	if _, err := db.Exec(
		`INSERT INTO users (name, age, email, phone, password_hash, role, created_at, updated_at)
		 VALUES ('Someone', 50, 'someone@example.org', '+15551000002', 'x', 'provider', ?, ?)`,
		time.Now().UTC(), time.Now().UTC()); err != nil {
		t.Fatal(err)
	}

	res := runSeed(t, db, seedOptions{admins: 1, providers: 3})
	if res.usersCreated != 3 || res.usersSkipped != 1 {
		t.Fatalf("expected provider 2 skipped, got %+v", res)
	}

	var exists int
	err := db.QueryRow(`SELECT 1 FROM users WHERE email = 'provider2@eldercare.local'`).Scan(&exists)
	if err != sql.ErrNoRows {
		t.Fatalf("expected provider2 not inserted, got %v", err)
	}
}
