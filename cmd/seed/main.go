// Command seed inserts demo accounts and open service needs into a migrated
// Postgres database. Accounts whose email or phone is taken and needs with
// the same title and owner are left alone, so reruns are harmless.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"eldercare-server/config"
)

type seedOptions struct {
	dsn       string
	admins    int
	providers int
	needs     int
	password  string
}

var demoNeeds = []struct {
	title       string
	description string
	address     string
	time        string
}{
	{"Grocery run", "Pick up the weekly groceries from the list on the fridge", "14 Maple Ave", "Saturday 10am-12pm"},
	{"Clean yard", "Rake leaves and bag them by the curb", "12 Elm St", "Sunday 2pm-4pm"},
	{"Pharmacy pickup", "Collect the prescription ready at the corner pharmacy", "3 Oak Ln", "Monday 9am-11am"},
	{"Companionship visit", "An afternoon of conversation and a short walk", "88 Birch Rd", "Tuesday 3pm-5pm"},
	{"Light bulb replacement", "Replace the hallway and kitchen bulbs", "41 Cedar Ct", "Wednesday 1pm-2pm"},
	{"Doctor appointment ride", "Drive to the clinic and back", "7 Pine St", "Thursday 8am-10am"},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	config.Load()

	var opts seedOptions
	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVar(&opts.dsn, "dsn", config.AppConfig.Database.DSN(), "postgres connection string")
	flagSet.IntVar(&opts.admins, "admins", 1, "number of admin accounts")
	flagSet.IntVar(&opts.providers, "providers", 3, "number of provider accounts")
	flagSet.IntVar(&opts.needs, "needs", len(demoNeeds), "number of open needs")
	flagSet.StringVar(&opts.password, "password", "password123", "password for every seeded account")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if opts.admins < 1 && opts.needs > 0 {
		return fmt.Errorf("--needs requires at least one admin to own them")
	}

	db, err := sql.Open("postgres", opts.dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := seed(ctx, tx, opts, string(hash), time.Now().UTC())
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Printf("✅ Seeded %d users and %d needs (%d users and %d needs already present)",
		res.usersCreated, res.needsCreated, res.usersSkipped, res.needsSkipped)
	return nil
}

type seedResult struct {
	usersCreated, usersSkipped int
	needsCreated, needsSkipped int
}

// seed inserts what is missing; running it twice changes nothing
func seed(ctx context.Context, tx *sql.Tx, opts seedOptions, hash string, now time.Time) (seedResult, error) {
	var res seedResult

	var adminID int64
	for i := 1; i <= opts.admins; i++ {
		id, created, err := seedUser(ctx, tx, fmt.Sprintf("Admin %d", i), fmt.Sprintf("admin%d@eldercare.local", i),
			fmt.Sprintf("+1555000%04d", i), "admin", hash, now)
		if err != nil {
			return res, err
		}
		res.count(created)
		if adminID == 0 {
			adminID = id
		}
	}
	for i := 1; i <= opts.providers; i++ {
		_, created, err := seedUser(ctx, tx, fmt.Sprintf("Provider %d", i), fmt.Sprintf("provider%d@eldercare.local", i),
			fmt.Sprintf("+1555100%04d", i), "provider", hash, now)
		if err != nil {
			return res, err
		}
		res.count(created)
	}

	if opts.needs > 0 && adminID == 0 {
		return res, fmt.Errorf("no seeded admin account to own the needs")
	}
	for i := 0; i < opts.needs; i++ {
		need := demoNeeds[i%len(demoNeeds)]
		title := need.title
		if i >= len(demoNeeds) {
			title = fmt.Sprintf("%s #%d", need.title, i/len(demoNeeds)+1)
		}

		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM service_needs WHERE title = $1 AND created_by = $2 LIMIT 1`,
			title, adminID).Scan(&exists)
		if err == nil {
			res.needsSkipped++
			continue
		}
		if err != sql.ErrNoRows {
			return res, fmt.Errorf("check need %q: %w", title, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO service_needs (title, description, address, time, status, created_by, created_at)
			 VALUES ($1, $2, $3, $4, 'open', $5, $6)`,
			title, need.description, need.address, need.time, adminID, now); err != nil {
			return res, fmt.Errorf("insert need %q: %w", title, err)
		}
		res.needsCreated++
	}
	return res, nil
}

func (r *seedResult) count(created bool) {
	if created {
		r.usersCreated++
	} else {
		r.usersSkipped++
	}
}

// seedUser inserts the account unless its email or phone is taken. It returns
// the id of the account holding the email, or 0 when only the phone clashed.
func seedUser(ctx context.Context, tx *sql.Tx, name, email, phone, role, hash string, now time.Time) (int64, bool, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO users (name, age, email, phone, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 ON CONFLICT DO NOTHING
		 RETURNING id`,
		name, 35, email, phone, hash, role, now).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, fmt.Errorf("seed user %s: %w", email, err)
	}

	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		log.Printf("⚠️ Skipping %s: phone %s belongs to another account", email, phone)
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("look up user %s: %w", email, err)
	}
	return id, false, nil
}
