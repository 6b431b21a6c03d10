package httpx

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/survey-stats/fault"
	"github.com/mbolis/survey-stats/log"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and a JSON message
func LogNotFound(w http.ResponseWriter, r *http.Request, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, map[string]any{"message": "Resource not found"})
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code at the given level, and send
// a JSON body {"message": msg} with the given status
func LogStatusJSON(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string) {
	log.Log(level, code+":", msg)
	render.Status(r, status)
	render.JSON(w, r, map[string]any{"message": msg})
}

// LogError picks the response status from err:
//   - fault.ErrNotFound: 404
//   - fault.ErrSurveyNotAcceptingResponses: 400
//   - fault.ErrAlreadySubmitted: 409
//   - client faults: 422, with per-field messages
//   - anything else: 500, logged at ERROR
func LogError(w http.ResponseWriter, r *http.Request, code string, err error) {
	var f *fault.Fault
	switch {
	case errors.Is(err, fault.ErrNotFound):
		LogNotFound(w, r, code, err)
	case errors.Is(err, fault.ErrSurveyNotAcceptingResponses):
		LogStatusJSON(w, r, http.StatusBadRequest, log.DebugLevel, code, "Survey is not currently accepting responses")
	case errors.Is(err, fault.ErrAlreadySubmitted):
		LogStatusJSON(w, r, http.StatusConflict, log.DebugLevel, code, "You have already responded to this survey")
	case errors.As(err, &f) && f.Type == fault.ErrClient:
		log.Debugf("%s: %s", code, err)
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, map[string]any{
			"message": f.Message,
			"errors":  f.Fields,
		})
	default:
		LogInternalError(w, code, err)
	}
}
