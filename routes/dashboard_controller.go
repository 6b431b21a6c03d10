package routes

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/survey-stats/app"
	"github.com/mbolis/survey-stats/httpx"
)

func Dashboard(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overview, err := app.Overview(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.dashboard", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"stats": overview,
		})
	}
}

func RecentActivity(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activity, err := app.RecentActivity(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.recent_activity", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"activity": activity,
		})
	}
}
