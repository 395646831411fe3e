package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"go-retail-ws/internal/repository"
	"go-retail-ws/internal/service"
	"go-retail-ws/pkg/config"
	"go-retail-ws/pkg/database"
	"go-retail-ws/pkg/logger"
)

// Resets a staff password from the shell and ends that member's sessions.
func main() {
	// 1. Load Env
	_ = godotenv.Load()

	email := flag.String("email", "", "staff email (defaults to SEED_ADMIN_EMAIL)")
	password := flag.String("password", "", "new password, at least 8 characters")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{ServiceName: "reset-password", Format: cfg.App.LogFormat})

	target := strings.ToLower(strings.TrimSpace(*email))
	if target == "" {
		target = strings.ToLower(cfg.Seed.AdminEmail)
	}
	if *password == "" {
		fmt.Fprintln(os.Stderr, "missing -password")
		os.Exit(1)
	}
	ctx := log.WithField(context.Background(), "email", target)

	// 2. Setup Database
	db, err := database.Connect(cfg.DB, false)
	if err != nil {
		log.Error(ctx, "connect database", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3. Find the staff member
	staffRepo := repository.NewStaffRepo(db.DB())
	staff, err := staffRepo.FindByEmail(ctx, target)
	if err != nil {
		log.Error(ctx, "staff not found", err)
		os.Exit(1)
	}

	// 4. Hash and store through the service so validation and session rotation apply
	svc := service.NewStaffService(staffRepo, service.Hooks{Log: log})
	if _, err := svc.UpdateStaff(ctx, staff.ID, &service.UpdateStaffRequest{Password: password}, service.Actor{ID: "system", Name: "reset-password"}); err != nil {
		log.Error(ctx, "reset password", err)
		os.Exit(1)
	}

	log.Info(ctx, "password reset, existing sessions ended")
}
