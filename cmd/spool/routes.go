package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", app.home)
	mux.HandleFunc("GET /healthz", app.health)

	mux.Handle("POST /run/ingest", app.handleRun("ingest", app.runIngest))
	mux.Handle("POST /run/timetaken", app.handleRun("timetaken", app.runTimeTaken))

	standard := alice.New(app.recoverPanic, app.logRequest, commonHeaders)

	return standard.Then(mux)
}
