package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/spoolfm/spool/config"
	"github.com/spoolfm/spool/db"
	"github.com/spoolfm/spool/notify"
	"github.com/spoolfm/spool/service/ingest"
	"github.com/spoolfm/spool/service/spotify"
	"github.com/spoolfm/spool/service/timetaken"
)

type application struct {
	logger    *slog.Logger
	ingestor  *ingest.Service
	estimator *timetaken.Service
	notifier  notify.Notifier
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	config.Load()

	database, err := db.New(viper.GetString("db.path"), viper.GetString("db.table"))
	if err != nil {
		logger.Error("error connecting to database", "err", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Initialize(); err != nil {
		logger.Error("error initializing database", "err", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(viper.GetString("ingest.timezone"))
	if err != nil {
		logger.Error("invalid ingest.timezone", "err", err)
		os.Exit(1)
	}

	spotifyClient, err := spotify.NewClient(
		viper.GetString("spotify.client_id"),
		viper.GetString("spotify.client_secret"),
		viper.GetString("spotify.redirect_uri"),
		viper.GetString("spotify.refresh_token"),
		logger,
	)
	if err != nil {
		logger.Error("error creating spotify client", "err", err)
		os.Exit(1)
	}

	app := &application{
		logger:    logger,
		ingestor:  ingest.NewService(spotifyClient, database, loc, viper.GetInt("ingest.limit"), logger),
		estimator: timetaken.NewService(database, logger),
		notifier:  notify.NewWebhook(viper.GetString("notify.url"), logger),
	}

	if interval := viper.GetInt("ingest.interval"); interval > 0 {
		go app.runEvery("ingest", time.Duration(interval)*time.Second, app.runIngest)
	}
	if interval := viper.GetInt("timetaken.interval"); interval > 0 {
		go app.runEvery("timetaken", time.Duration(interval)*time.Second, app.runTimeTaken)
	}

	serverAddr := fmt.Sprintf("%s:%s", viper.GetString("server.host"), viper.GetString("server.port"))

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      app.routes(),
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	logger.Info("server running", "addr", serverAddr)

	err = srv.ListenAndServe()
	logger.Error(err.Error())
	os.Exit(1)
}
