// Seeder command for populating a demo cohort and login accounts.
//
// SAFETY: refuses to run unless APP_ENV=dev and --confirm is provided.
//
// Usage:
//
//	APP_ENV=dev go run ./cmd/seed --students 12 --confirm
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"attendanceledger/internal/auth"
	"attendanceledger/internal/config"
	"attendanceledger/internal/ledger"
	"attendanceledger/internal/store"
	"attendanceledger/internal/util"
)

func main() {
	students := flag.Int("students", 12, "Number of students to seed")
	adminPass := flag.String("admin-pass", "admin-change-me", "Password for the seeded admin account")
	confirm := flag.Bool("confirm", false, "Confirm seeding (required)")
	flag.Parse()

	cfg := config.Load()
	if cfg.Env != "dev" {
		log.Fatal("seeder only runs with APP_ENV=dev")
	}
	if !*confirm {
		log.Fatal("--confirm flag is required")
	}

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	repo := ledger.NewRepository(db.Client)
	ctx := context.Background()

	hash, err := auth.HashPassword(*adminPass)
	if err != nil {
		log.Fatalf("hash admin password: %v", err)
	}
	if err := repo.CreateUser(ctx, ledger.User{
		ID:           uuid.NewString(),
		Username:     "admin",
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
	}); err != nil {
		log.Printf("admin user not created (may already exist): %v", err)
	} else {
		log.Println("admin user created")
	}

	enrolled := util.DayOf(time.Now().AddDate(0, -1, 0))
	for i := 1; i <= *students; i++ {
		id := uuid.NewString()
		name := fmt.Sprintf("Student %02d", i)
		if err := repo.UpsertStudent(ctx, ledger.Student{ID: id, FullName: name, EnrolledOn: enrolled}); err != nil {
			log.Fatalf("seed student %s: %v", name, err)
		}
		pass, err := auth.HashPassword(fmt.Sprintf("student%02d-pass", i))
		if err != nil {
			log.Fatalf("hash student password: %v", err)
		}
		if err := repo.CreateUser(ctx, ledger.User{
			ID:           uuid.NewString(),
			Username:     fmt.Sprintf("student%02d", i),
			PasswordHash: pass,
			Role:         auth.RoleStudent,
			StudentID:    &id,
		}); err != nil {
			log.Fatalf("seed login for %s: %v", name, err)
		}
	}

	log.Printf("seeded %d students enrolled on %s", *students, util.FormatDay(enrolled))
}
