package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-tracker-api/internal/handlers"
	"expense-tracker-api/internal/storage"

	"github.com/joho/godotenv"
)

const defaultSecret = "dev-secret-change-me"

type config struct {
	port      string
	dbPath    string
	jwtSecret string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(args []string) (*config, error) {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	port := fs.String("port", "8080", "Port to listen on")
	dbPath := fs.String("db", "expenses.db", "Path to database file")
	secret := fs.String("secret", "", "JWT signing secret (defaults to JWT_SECRET env)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Env vars override flag defaults but not explicitly set flags.
	if v := os.Getenv("PORT"); v != "" && *port == "8080" {
		*port = v
	}
	if v := os.Getenv("DB_PATH"); v != "" && *dbPath == "expenses.db" {
		*dbPath = v
	}
	if *secret == "" {
		*secret = os.Getenv("JWT_SECRET")
	}
	if *secret == "" {
		log.Printf("WARNING: no JWT secret configured, using insecure default")
		*secret = defaultSecret
	}

	return &config{port: *port, dbPath: *dbPath, jwtSecret: *secret}, nil
}

func run(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	db, err := storage.NewDB(cfg.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if count, err := db.UserCount(); err == nil {
		log.Printf("Database ready with %d registered users", count)
	}

	h := handlers.NewHandlers(db, []byte(cfg.jwtSecret))

	srv := &http.Server{
		Addr:              ":" + cfg.port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on :%s", cfg.port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Printf("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	return nil
}
