package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	webAdapter "stockbook/internal/adapters/web"
	"stockbook/internal/app"
	"stockbook/internal/core"
	"stockbook/internal/db"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	inventoryService := core.NewInventoryService(pool)
	billingService := core.NewBillingService(pool, inventoryService)
	reportingService := core.NewReportingService(pool)
	exportService := core.NewExportService(pool)
	userService := core.NewUserService(pool)

	if err := userService.EnsureDefaultAdmin(ctx); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}
	passphrase := os.Getenv("STEPUP_PASSPHRASE")
	if passphrase == "" {
		log.Fatal("STEPUP_PASSPHRASE environment variable not set")
	}

	svc := app.NewAppService(inventoryService, billingService, reportingService, exportService, userService, app.Options{
		StepUpPassphrase: passphrase,
		ResetWritesLog:   os.Getenv("RESET_WRITES_LOG") != "false",
	})

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
