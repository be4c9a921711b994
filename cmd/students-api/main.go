// main is the entry point of the Students API application.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open the document store selected by storage.driver
//  4. Start the student directory (it loads the list from the store)
//  5. Schedule periodic reloads, if configured
//  6. Register the HTTP routes and start the server
//  7. Block until an OS signal (Ctrl+C / kill) arrives
//  8. Gracefully shut down: stop HTTP and the scheduler, let in-flight
//     store calls finish, close the store
//
// RUNNING THE SERVER:
//
//	go run ./cmd/students-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/students-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/students-sync/internal/config"
	"github.com/aanand-mishra/students-sync/internal/directory"
	"github.com/aanand-mishra/students-sync/internal/http/handlers/student"
	"github.com/aanand-mishra/students-sync/internal/storage"
	"github.com/aanand-mishra/students-sync/internal/storage/firestore"
	"github.com/aanand-mishra/students-sync/internal/storage/memory"
	"github.com/aanand-mishra/students-sync/internal/storage/mongo"
	"github.com/aanand-mishra/students-sync/internal/storage/sqlite"
	"github.com/robfig/cron/v3"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting students-api",
		slog.String("env", cfg.Env),
		slog.String("version", "1.1.0"),
	)

	// ── 3. Initialise Storage ─────────────────────────────────────────────
	// The directory only knows the storage.Storage interface; the driver
	// decides which backend sits behind it.
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := openStorage(startCtx, cfg)
	cancelStart()
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("driver", cfg.Storage.Driver),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("storage initialised", slog.String("driver", cfg.Storage.Driver))

	// ── 4. Student Directory ──────────────────────────────────────────────
	dir := directory.New(store, log.With(slog.String("component", "directory")),
		directory.WithMaxInFlight(cfg.Sync.MaxInFlight))

	// ── 5. Periodic Reload ────────────────────────────────────────────────
	// Other writers can change the store behind our back; a schedule keeps
	// the list from drifting for too long.
	scheduler := cron.New()
	if cfg.Sync.RefreshSchedule != "" {
		if _, err := scheduler.AddFunc(cfg.Sync.RefreshSchedule, dir.Reload); err != nil {
			log.Error("invalid refresh schedule",
				slog.String("schedule", cfg.Sync.RefreshSchedule),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		scheduler.Start()
		log.Info("periodic reload scheduled", slog.String("schedule", cfg.Sync.RefreshSchedule))
	}

	// ── 6. Register HTTP Routes ───────────────────────────────────────────
	//   POST   /api/students          → add a student
	//   GET    /api/students          → current list, sorted by name
	//   GET    /api/students/{docId}  → one student from the current list
	//   PUT    /api/students/{docId}  → replace a student and its phones
	//   DELETE /api/students/{docId}  → delete a student
	router := http.NewServeMux()
	student.Register(router, dir)

	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: router,

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ListenAndServe blocks, so it runs on its own goroutine and main stays
	// free to wait for the shutdown signal.
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 7. Wait for Shutdown Signal ───────────────────────────────────────
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
	}

	// Stop returns a context that is done once running jobs have returned.
	<-scheduler.Stop().Done()

	// No new commands can arrive now; let the ones in flight reach the store.
	dir.Wait()

	if err := store.Close(); err != nil {
		log.Error("failed to close storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// openStorage returns the backend selected by cfg.Storage.Driver.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		return sqlite.New(cfg)
	case config.DriverFirestore:
		return firestore.New(ctx, cfg)
	case config.DriverMongo:
		return mongo.New(ctx, cfg)
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default: // "dev" and anything unrecognised
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
