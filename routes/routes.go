package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/mbolis/survey-stats/app"
	"github.com/mbolis/survey-stats/httpx"
	"github.com/mbolis/survey-stats/log"
	"github.com/mbolis/survey-stats/model"
	"github.com/mbolis/survey-stats/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Logger, NoColor: true}),
		middleware.Recoverer,
	)

	root.Get("/healthz", Health(app))
	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Route("/public", func(r chi.Router) {
		r.Get("/surveys/{code}", PublicGetSurveyByCode(app))
		r.Post("/surveys/{code}/responses", PublicSubmitResponses(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	api.Group(func(r chi.Router) {
		r.Use(middlewares.CookieAuth(app.BearerServer), middlewares.Admin(app.TokenSecret))

		r.Route("/surveys", func(r chi.Router) {
			// CRUD survey
			r.Get("/", ListSurveys(app))
			r.Post("/", CreateSurvey(app))
			r.Get(`/{id:^\d+$}`, GetSurveyById(app))
			r.Put(`/{id:^\d+$}`, UpdateSurvey(app))
			r.Delete(`/{id:^\d+$}`, DeleteSurvey(app))

			r.Post(`/{id:^\d+$}/questions`, AddQuestion(app))
			r.Put(`/{id:^\d+$}/questions/{question:^\d+$}`, UpdateQuestion(app))
			r.Delete(`/{id:^\d+$}/questions/{question:^\d+$}`, DeleteQuestion(app))

			r.Post(`/{id:^\d+$}/activate`, SetSurveyStatus(app, model.StatusActive, "Survey activated successfully"))
			r.Post(`/{id:^\d+$}/pause`, SetSurveyStatus(app, model.StatusPaused, "Survey paused successfully"))
			r.Post(`/{id:^\d+$}/close`, SetSurveyStatus(app, model.StatusClosed, "Survey closed successfully"))

			r.Get(`/{id:^\d+$}/statistics`, SurveyStatistics(app))
		})

		r.Route("/survey-responses", func(r chi.Router) {
			r.Get("/", ListResponses(app))
			r.Get(`/{id:^\d+$}`, GetResponseById(app))
			r.Get(`/by-survey/{id:^\d+$}`, GetSurveyResponses(app))
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", Dashboard(app))
			r.Get(`/survey-stats/{id:^\d+$}`, SurveyStatistics(app))
			r.Get("/recent-activity", RecentActivity(app))
		})
	})

	return api
}

func Health(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.Ping(); err != nil {
			httpx.LogStatus(w, http.StatusServiceUnavailable, log.ErrorLevel, "health.db")
			return
		}
		render.JSON(w, r, map[string]any{"status": "ok"})
	}
}
