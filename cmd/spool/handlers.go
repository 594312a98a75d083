package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// jsonResponse returns a JSON response
func jsonResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// runFunc is one externally triggerable run: it returns the structured
// success body or an error for the trigger to report.
type runFunc func(ctx context.Context) (any, error)

// runIngest performs one ingest run and sends its notification.
func (app *application) runIngest(ctx context.Context) (any, error) {
	stored, err := app.ingestor.Run(ctx)
	if err != nil {
		app.notifier.Notify(ctx, "Spotify Data Fetch Failed",
			fmt.Sprintf("An error occurred: %v", err))
		return nil, err
	}

	app.notifier.Notify(ctx, "Spotify Data Fetch Successful",
		"Recently played tracks have been fetched and stored successfully.")

	return map[string]any{
		"message": "recently played tracks fetched and stored",
		"stored":  stored,
	}, nil
}

// runTimeTaken performs one backfill pass and sends its notification.
func (app *application) runTimeTaken(ctx context.Context) (any, error) {
	summary, err := app.estimator.Run()
	if err != nil {
		app.notifier.Notify(ctx, "Spotify Time Taken Updater FAILED",
			fmt.Sprintf("Updater failed: %v", err))
		return nil, err
	}

	app.notifier.Notify(ctx, "Spotify Time Taken Updater", summary.Report())

	return map[string]any{
		"message": "time_taken calculation completed",
		"summary": summary,
	}, nil
}

// handleRun exposes a run as an HTTP trigger returning a status code and a
// structured summary or error body.
func (app *application) handleRun(name string, run runFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := run(r.Context())
		if err != nil {
			app.logger.Error("run failed", "run", name, "err", err)
			jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}

		jsonResponse(w, http.StatusOK, body)
	}
}

// runEvery triggers a run on a fixed interval until the process exits.
// Failures are logged; the next tick retries naturally.
func (app *application) runEvery(name string, interval time.Duration, run runFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if _, err := run(context.Background()); err != nil {
			app.logger.Error("scheduled run failed", "run", name, "err", err)
		}
	}
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte("spool: POST /run/ingest or POST /run/timetaken to trigger a run"))
}

func (app *application) health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
