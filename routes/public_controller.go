package routes

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/mbolis/survey-stats/app"
	"github.com/mbolis/survey-stats/fault"
	"github.com/mbolis/survey-stats/httpx"
	"github.com/mbolis/survey-stats/log"
	"github.com/mbolis/survey-stats/model"
)

const maxSessionIDLength = 64

var errInvalidSession = errors.New("invalid session token")

func PublicGetSurveyByCode(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		survey, err := app.ActiveSurveyByCode(r.Context(), code)
		if errors.Is(err, fault.ErrNotFound) {
			httpx.LogStatusJSON(w, r, http.StatusNotFound, log.DebugLevel, "public.get_survey", "Survey not found or not active")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}

		if !survey.IsActive(app.Now()) {
			httpx.LogStatusJSON(w, r, http.StatusBadRequest, log.DebugLevel, "public.get_survey", "Survey is not currently active")
			return
		}

		token, _, err := app.Sessions.Issue(survey.AccessCode)
		if err != nil {
			httpx.LogInternalError(w, "session.issue", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"survey":        survey,
			"session_token": token,
		})
	}
}

type submissionRequest struct {
	SessionToken string         `json:"session_token"`
	SessionID    string         `json:"session_id"`
	Answers      []model.Answer `json:"responses"`
}

func PublicSubmitResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		req := submissionRequest{}
		if !decodeBody(w, r, &req) {
			return
		}

		sessionID, err := resolveSession(app, req, code)
		if errors.Is(err, errInvalidSession) {
			log.Debugf("public.session: %s", err)
			httpx.LogStatusJSON(w, r, http.StatusBadRequest, log.TraceLevel, "public.session", "Invalid session token")
			return
		}
		if err != nil {
			httpx.LogError(w, r, "public.session", err)
			return
		}

		ids, err := app.SubmitResponses(r.Context(), code, model.Submission{
			SessionID: sessionID,
			Answers:   req.Answers,
		}, app.Now())
		if err != nil {
			httpx.LogError(w, r, "db.insert_responses", err)
			return
		}
		log.WithField("access_code", code).Debugf("%d responses stored in session %s", len(ids), sessionID)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message":      "Responses submitted successfully",
			"session_id":   sessionID,
			"response_ids": ids,
		})
	}
}

// resolveSession picks the session of a submission: the one in the session
// token, else the one supplied by the client, else a new one.
func resolveSession(app app.App, req submissionRequest, code string) (string, error) {
	if req.SessionToken != "" {
		sid, err := app.Sessions.Parse(req.SessionToken, code)
		if err != nil {
			return "", fmt.Errorf("%w: %w", errInvalidSession, err)
		}
		return sid, nil
	}

	if req.SessionID != "" {
		if utf8.RuneCountInString(req.SessionID) > maxSessionIDLength {
			v := fault.NewValidation("Validation failed")
			v.Add("session_id", "the session id may not exceed %d characters", maxSessionIDLength)
			return "", v
		}
		return req.SessionID, nil
	}

	return uuid.NewString(), nil
}
