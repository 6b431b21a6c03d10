package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/mbolis/survey-stats/app"
	"github.com/mbolis/survey-stats/httpx"
	"github.com/mbolis/survey-stats/log"
)

func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

func ListResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := app.ListResponses(r.Context(), queryInt(r, "page"), queryInt(r, "limit"))
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"responses": page,
		})
	}
}

func GetResponseById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responseId, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		response, err := app.GetResponse(r.Context(), responseId)
		if err != nil {
			httpx.LogError(w, r, "db.get_response", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"response": response,
		})
	}
}

func GetSurveyResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		responses, err := app.ResponsesBySurvey(r.Context(), surveyId)
		if err != nil {
			httpx.LogError(w, r, "db.get_survey_responses", err)
			return
		}
		log.Debugf("survey %d: %d responses", surveyId, len(responses))

		render.JSON(w, r, map[string]any{
			"responses": responses,
		})
	}
}
