package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			// child tables first
			for _, table := range []string{"daily_logs", "tasks", "work_allotments", "join_requests", "user_sessions", "auth_credentials", "profiles", "departments", "organizations"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		now := time.Now()

		orgID := uuid.NewString()
		if err := db.Exec("INSERT INTO organizations (id, name, created_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			orgID, "Demo Org", "", now, now).Error; err != nil {
			log.Fatalf("failed to insert organization: %v", err)
		}

		deptID := uuid.NewString()
		if err := db.Exec("INSERT INTO departments (id, organization_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			deptID, orgID, "Engineering", now, now).Error; err != nil {
			log.Fatalf("failed to insert department: %v", err)
		}

		users := []struct {
			Email string
			Name  string
			Role  string
		}{
			{"admin@demo.test", "Demo Admin", "admin"},
			{"alice@demo.test", "Alice Tan", "user"},
			{"budi@demo.test", "Budi Santoso", "user"},
		}

		var adminID string
		for _, u := range users {
			userID := uuid.NewString()
			if u.Role == "admin" {
				adminID = userID
			}
			if err := db.Exec("INSERT INTO auth_credentials (id, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
				userID, u.Email, string(hash), now, now).Error; err != nil {
				log.Fatalf("failed to insert credential for %s: %v", u.Email, err)
			}
			if err := db.Exec("INSERT INTO profiles (id, email, full_name, role, organization_id, department_id, availability, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
				userID, u.Email, u.Name, u.Role, orgID, deptID, "available", now, now).Error; err != nil {
				log.Fatalf("failed to insert profile for %s: %v", u.Email, err)
			}
			fmt.Println("Seeded user:", u.Email)
		}

		// keep created_by accurate now that the admin exists
		if err := db.Exec("UPDATE organizations SET created_by = ? WHERE id = ?", adminID, orgID).Error; err != nil {
			log.Fatalf("failed to update organization creator: %v", err)
		}

		allotmentID := uuid.NewString()
		if err := db.Exec("INSERT INTO work_allotments (id, organization_id, title, description, target_hours, start_date, created_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			allotmentID, orgID, "Q3 Platform Work", "Platform maintenance and features", 160.0, now.AddDate(0, 0, -14), adminID, now, now).Error; err != nil {
			log.Fatalf("failed to insert allotment: %v", err)
		}

		fmt.Println("Seeded demo organization:", orgID)
		fmt.Println("Login with any seeded email and password \"password\"")
	},
}
