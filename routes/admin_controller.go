package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/survey-stats/app"
	"github.com/mbolis/survey-stats/httpx"
	"github.com/mbolis/survey-stats/log"
	"github.com/mbolis/survey-stats/model"
)

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param."+name)
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		log.Debugf("request.parse_body: %s", err)
		httpx.LogStatusJSON(w, r, http.StatusBadRequest, log.TraceLevel, "request.parse_body", "Malformed request body")
		return false
	}
	return true
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveys, err := app.ListSurveys(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.get_surveys", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		survey, err := app.GetSurvey(r.Context(), surveyId)
		if err != nil {
			httpx.LogError(w, r, "db.get_survey", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"survey": survey,
		})
	}
}

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := model.SurveyInput{}
		if !decodeBody(w, r, &in) {
			return
		}

		survey, err := app.CreateSurvey(r.Context(), in, app.Now())
		if err != nil {
			httpx.LogError(w, r, "db.insert_survey", err)
			return
		}
		log.Infof("survey %d created (%s)", survey.ID, survey.AccessCode)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message": "Survey created successfully",
			"survey":  survey,
		})
	}
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		patch := model.SurveyPatch{}
		if !decodeBody(w, r, &patch) {
			return
		}

		survey, err := app.UpdateSurvey(r.Context(), surveyId, patch, app.Now())
		if err != nil {
			httpx.LogError(w, r, "db.update_survey", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "Survey updated successfully",
			"survey":  survey,
		})
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		if err := app.DeleteSurvey(r.Context(), surveyId); err != nil {
			httpx.LogError(w, r, "db.delete_survey", err)
			return
		}
		log.Infof("survey %d deleted", surveyId)

		render.JSON(w, r, map[string]any{
			"message": "Survey deleted successfully",
		})
	}
}

func AddQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		in := model.QuestionInput{}
		if !decodeBody(w, r, &in) {
			return
		}

		question, err := app.AddQuestion(r.Context(), surveyId, in, app.Now())
		if err != nil {
			httpx.LogError(w, r, "db.insert_question", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message":  "Question added successfully",
			"question": question,
		})
	}
}

func UpdateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		questionId, ok := idParam(w, r, "question")
		if !ok {
			return
		}

		patch := model.QuestionPatch{}
		if !decodeBody(w, r, &patch) {
			return
		}

		question, err := app.UpdateQuestion(r.Context(), surveyId, questionId, patch, app.Now())
		if err != nil {
			httpx.LogError(w, r, "db.update_question", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message":  "Question updated successfully",
			"question": question,
		})
	}
}

func DeleteQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		questionId, ok := idParam(w, r, "question")
		if !ok {
			return
		}

		if err := app.DeleteQuestion(r.Context(), surveyId, questionId); err != nil {
			httpx.LogError(w, r, "db.delete_question", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "Question deleted successfully",
		})
	}
}

// SetSurveyStatus serves the activate, pause and close actions.
func SetSurveyStatus(app app.App, status model.Status, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		survey, err := app.SetStatus(r.Context(), surveyId, status, app.Now())
		if err != nil {
			httpx.LogError(w, r, "db.update_survey.status", err)
			return
		}
		log.Infof("survey %d is now %s", surveyId, status)

		render.JSON(w, r, map[string]any{
			"message": message,
			"survey":  survey,
		})
	}
}

func SurveyStatistics(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		survey, err := app.GetSurvey(r.Context(), surveyId)
		if err != nil {
			httpx.LogError(w, r, "db.get_survey", err)
			return
		}

		statistics, err := app.Stats().Survey(r.Context(), survey)
		if err != nil {
			httpx.LogError(w, r, "stats.survey", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"statistics": statistics,
		})
	}
}
