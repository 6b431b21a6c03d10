package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbolis/survey-stats/app"
	"github.com/mbolis/survey-stats/config"
	"github.com/mbolis/survey-stats/database"
	"github.com/mbolis/survey-stats/log"
	"github.com/mbolis/survey-stats/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}

	logFile := log.Configure(log.Options{
		Debug:      cfg.Debug,
		File:       cfg.LogFile,
		MaxSize:    cfg.LogMaxSize,
		MaxAge:     cfg.LogMaxAge,
		MaxBackups: cfg.LogMaxBackups,
		Compress:   true,
	})
	defer logFile.Close()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	store := database.NewStore(db)
	defer store.Close()

	if cfg.AdminUser != "" {
		err = store.UpsertAdmin(context.Background(), cfg.AdminUser, cfg.AdminPassword)
		if err != nil {
			log.Fatal("main.db.admin:", err)
		}
		log.Infof("admin user %q ready", cfg.AdminUser)
	}

	handler := routes.Wire(app.New(store, cfg))

	err = runServer(cfg, handler)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

// runServer serves until SIGINT or SIGTERM, then drains open requests.
func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("Listening on " + cfg.Url())
		errc <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case sig := <-quit:
		log.Infof("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
