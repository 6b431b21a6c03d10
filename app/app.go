package app

import (
	"time"

	"github.com/go-chi/oauth"

	"github.com/mbolis/survey-stats/config"
	"github.com/mbolis/survey-stats/database"
	"github.com/mbolis/survey-stats/httpx"
	"github.com/mbolis/survey-stats/session"
	"github.com/mbolis/survey-stats/stats"
)

type App struct {
	*database.Store
	*oauth.BearerServer
	config.Config

	Sessions *session.Manager
	Now      func() time.Time
}

func New(store *database.Store, cfg config.Config) App {
	return App{
		Store:        store,
		BearerServer: httpx.NewBearerServer(store, cfg),
		Config:       cfg,
		Sessions:     session.NewManager(cfg.SessionSecret),
		Now:          time.Now,
	}
}

// Stats aggregates over the responses held in the store.
func (app App) Stats() *stats.Aggregator {
	return stats.NewAggregator(app.Store)
}
