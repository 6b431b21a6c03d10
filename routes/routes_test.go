package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mbolis/survey-stats/app"
	"github.com/mbolis/survey-stats/config"
	"github.com/mbolis/survey-stats/database"
	"github.com/mbolis/survey-stats/model"
)

var now = time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)

type testServer struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{
		DBDriver:      config.DriverSQLite,
		DBUrl:         filepath.Join(t.TempDir(), "test.sqlite"),
		TokenSecret:   "token-secret",
		TokenTTL:      time.Minute,
		SessionSecret: "session-secret",
	}
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store := database.NewStore(db)
	if err := store.UpsertAdmin(context.Background(), "admin", "pass"); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	a := app.New(store, cfg)
	a.Now = func() time.Time { return now }
	return &testServer{t: t, handler: Wire(a)}
}

func (s *testServer) do(method, path string, body any, auth bool) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("content-type", "application/json")
	if auth {
		req.Header.Set("authorization", "Bearer "+s.login())
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login() string {
	s.t.Helper()
	if s.token != "" {
		return s.token
	}

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.SetBasicAuth("admin", "pass")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login: status %d: %s", rec.Code, rec.Body)
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	decode(s.t, rec, &resp)
	s.token = resp.AccessToken
	return s.token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d: %s", rec.Code, status, rec.Body)
	}
}

func (s *testServer) createSurvey(in model.SurveyInput) model.Survey {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/surveys", in, true)
	expectStatus(s.t, rec, http.StatusCreated)

	var resp struct {
		Survey model.Survey `json:"survey"`
	}
	decode(s.t, rec, &resp)
	return resp.Survey
}

func TestAdminRequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/surveys", nil, false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Code == http.StatusOK {
		t.Error("expected login with a wrong password to fail")
	}
}

func TestLoginSetsCookies(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.SetBasicAuth("admin", "pass")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)

	var access *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "access_token" {
			access = c
		}
	}
	if access == nil || access.Value == "" {
		t.Fatal("expected an access_token cookie")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/surveys", nil)
	req.AddCookie(access)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)
}

func TestSurveyLifecycle(t *testing.T) {
	s := newTestServer(t)

	survey := s.createSurvey(model.SurveyInput{
		Title: "Lunch",
		Questions: []model.QuestionInput{
			{QuestionText: "How was it?", Type: model.TypeRating5, IsRequired: true, Order: 1},
			{QuestionText: "Again?", Type: model.TypeYesNo, Order: 2},
			{QuestionText: "Anything else?", Type: model.TypeText, Order: 3},
		},
	})
	if survey.Status != model.StatusDraft || len(survey.Questions) != 3 {
		t.Fatalf("unexpected survey: %+v", survey)
	}
	publicPath := "/api/public/surveys/" + survey.AccessCode

	// drafts are hidden
	expectStatus(t, s.do(http.MethodGet, publicPath, nil, false), http.StatusNotFound)

	expectStatus(t, s.do(http.MethodPost, fmt.Sprintf("/api/surveys/%d/activate", survey.ID), nil, true), http.StatusOK)

	rec := s.do(http.MethodGet, publicPath, nil, false)
	expectStatus(t, rec, http.StatusOK)
	var shown struct {
		Survey       model.Survey `json:"survey"`
		SessionToken string       `json:"session_token"`
	}
	decode(t, rec, &shown)
	if shown.SessionToken == "" || shown.Survey.ID != survey.ID {
		t.Fatalf("unexpected public survey: %s", rec.Body)
	}

	submit := map[string]any{
		"session_token": shown.SessionToken,
		"responses": []map[string]any{
			{"question_id": survey.Questions[0].ID, "rating_value": 4},
			{"question_id": survey.Questions[1].ID, "selected_options": []string{"Yes"}},
			{"question_id": survey.Questions[2].ID, "response_text": "hello"},
		},
	}
	rec = s.do(http.MethodPost, publicPath+"/responses", submit, false)
	expectStatus(t, rec, http.StatusCreated)
	var submitted struct {
		SessionID   string  `json:"session_id"`
		ResponseIDs []int64 `json:"response_ids"`
	}
	decode(t, rec, &submitted)
	if submitted.SessionID == "" || len(submitted.ResponseIDs) != 3 {
		t.Errorf("unexpected submission result: %s", rec.Body)
	}

	// same session again
	expectStatus(t, s.do(http.MethodPost, publicPath+"/responses", submit, false), http.StatusConflict)

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/surveys/%d/statistics", survey.ID), nil, true)
	expectStatus(t, rec, http.StatusOK)
	var st struct {
		Statistics struct {
			TotalResponses int              `json:"total_responses"`
			UniqueSessions int              `json:"unique_sessions"`
			Questions      []map[string]any `json:"questions"`
		} `json:"statistics"`
	}
	decode(t, rec, &st)
	if st.Statistics.TotalResponses != 3 || st.Statistics.UniqueSessions != 1 {
		t.Errorf("unexpected statistics: %s", rec.Body)
	}
	if len(st.Statistics.Questions) != 3 {
		t.Fatalf("expected 3 question statistics: %s", rec.Body)
	}
	if st.Statistics.Questions[0]["average_rating"] != 4.0 {
		t.Errorf("average_rating = %v", st.Statistics.Questions[0]["average_rating"])
	}
	dist, _ := st.Statistics.Questions[1]["option_distribution"].(map[string]any)
	if dist["Yes"] != 1.0 {
		t.Errorf("option_distribution = %v", st.Statistics.Questions[1]["option_distribution"])
	}
	if st.Statistics.Questions[2]["average_text_length"] != 5.0 {
		t.Errorf("average_text_length = %v", st.Statistics.Questions[2]["average_text_length"])
	}

	expectStatus(t, s.do(http.MethodPost, fmt.Sprintf("/api/surveys/%d/close", survey.ID), nil, true), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, publicPath, nil, false), http.StatusNotFound)
	rec = s.do(http.MethodPost, publicPath+"/responses", map[string]any{
		"responses": []map[string]any{{"question_id": survey.Questions[0].ID, "rating_value": 5}},
	}, false)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = s.do(http.MethodGet, "/api/dashboard", nil, true)
	expectStatus(t, rec, http.StatusOK)
	var dash struct {
		Stats database.Overview `json:"stats"`
	}
	decode(t, rec, &dash)
	if dash.Stats.TotalSurveys != 1 || dash.Stats.ActiveSurveys != 0 || dash.Stats.TotalResponses != 3 {
		t.Errorf("unexpected dashboard: %s", rec.Body)
	}

	expectStatus(t, s.do(http.MethodGet, "/api/survey-responses?page=1&limit=2", nil, true), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, "/api/survey-responses?page=9223372036854775807", nil, true), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, fmt.Sprintf("/api/survey-responses/by-survey/%d", survey.ID), nil, true), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, "/api/dashboard/recent-activity", nil, true), http.StatusOK)

	expectStatus(t, s.do(http.MethodDelete, fmt.Sprintf("/api/surveys/%d", survey.ID), nil, true), http.StatusOK)
	expectStatus(t, s.do(http.MethodGet, fmt.Sprintf("/api/surveys/%d", survey.ID), nil, true), http.StatusNotFound)
	expectStatus(t, s.do(http.MethodGet, fmt.Sprintf("/api/surveys/%d/statistics", survey.ID), nil, true), http.StatusNotFound)
}

func TestCreateSurvey_ValidationErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/surveys", model.SurveyInput{
		Title: "",
		Questions: []model.QuestionInput{
			{QuestionText: "Pick", Type: "slider"},
		},
	}, true)
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	var resp struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	decode(t, rec, &resp)
	if resp.Message == "" {
		t.Error("expected a message")
	}
	for _, field := range []string{"title", "questions.0.type"} {
		if len(resp.Errors[field]) == 0 {
			t.Errorf("expected an error for %s: %s", field, rec.Body)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/surveys", bytes.NewBufferString("{"))
	req.Header.Set("authorization", "Bearer "+s.login())
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestPublicSubmit_Errors(t *testing.T) {
	s := newTestServer(t)

	survey := s.createSurvey(model.SurveyInput{
		Title:     "Rate",
		Questions: []model.QuestionInput{{QuestionText: "Score", Type: model.TypeRating10, IsRequired: true}},
	})
	other := s.createSurvey(model.SurveyInput{
		Title:     "Other",
		Questions: []model.QuestionInput{{QuestionText: "Score", Type: model.TypeRating10}},
	})
	for _, id := range []int64{survey.ID, other.ID} {
		expectStatus(t, s.do(http.MethodPost, fmt.Sprintf("/api/surveys/%d/activate", id), nil, true), http.StatusOK)
	}
	qid := survey.Questions[0].ID
	path := "/api/public/surveys/" + survey.AccessCode + "/responses"

	expectStatus(t, s.do(http.MethodPost, "/api/public/surveys/NOPE0000/responses", map[string]any{
		"responses": []map[string]any{{"question_id": qid, "rating_value": 3}},
	}, false), http.StatusNotFound)

	expectStatus(t, s.do(http.MethodPost, path, map[string]any{
		"responses": []map[string]any{{"question_id": qid, "rating_value": 11}},
	}, false), http.StatusUnprocessableEntity)

	expectStatus(t, s.do(http.MethodPost, path, map[string]any{
		"responses": []map[string]any{{"question_id": other.Questions[0].ID, "rating_value": 3}},
	}, false), http.StatusUnprocessableEntity)

	rec := s.do(http.MethodGet, "/api/public/surveys/"+other.AccessCode, nil, false)
	expectStatus(t, rec, http.StatusOK)
	var shown struct {
		SessionToken string `json:"session_token"`
	}
	decode(t, rec, &shown)
	expectStatus(t, s.do(http.MethodPost, path, map[string]any{
		"session_token": shown.SessionToken,
		"responses":     []map[string]any{{"question_id": qid, "rating_value": 3}},
	}, false), http.StatusBadRequest)

	expectStatus(t, s.do(http.MethodPost, path, map[string]any{
		"session_id": "client-1",
		"responses":  []map[string]any{{"question_id": qid, "rating_value": 3}},
	}, false), http.StatusCreated)
	expectStatus(t, s.do(http.MethodPost, path, map[string]any{
		"session_id": "client-1",
		"responses":  []map[string]any{{"question_id": qid, "rating_value": 7}},
	}, false), http.StatusConflict)
}

func TestQuestionRoutes(t *testing.T) {
	s := newTestServer(t)
	survey := s.createSurvey(model.SurveyInput{
		Title:     "Q",
		Questions: []model.QuestionInput{{QuestionText: "First", Type: model.TypeText}},
	})

	rec := s.do(http.MethodPost, fmt.Sprintf("/api/surveys/%d/questions", survey.ID), model.QuestionInput{
		QuestionText: "Second", Type: model.TypeSingleChoice, Options: model.Labels{"a", "b"}, Order: 2,
	}, true)
	expectStatus(t, rec, http.StatusCreated)
	var added struct {
		Question model.Question `json:"question"`
	}
	decode(t, rec, &added)

	rec = s.do(http.MethodPut, fmt.Sprintf("/api/surveys/%d/questions/%d", survey.ID, added.Question.ID), map[string]any{
		"question_text": "Second, renamed",
	}, true)
	expectStatus(t, rec, http.StatusOK)

	expectStatus(t, s.do(http.MethodPut, fmt.Sprintf("/api/surveys/%d", survey.ID), map[string]any{
		"title": "Q2",
	}, true), http.StatusOK)

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/surveys/%d", survey.ID), nil, true)
	expectStatus(t, rec, http.StatusOK)
	var got struct {
		Survey model.Survey `json:"survey"`
	}
	decode(t, rec, &got)
	if got.Survey.Title != "Q2" || len(got.Survey.Questions) != 2 || got.Survey.Questions[1].QuestionText != "Second, renamed" {
		t.Errorf("unexpected survey: %+v", got.Survey)
	}

	expectStatus(t, s.do(http.MethodDelete, fmt.Sprintf("/api/surveys/%d/questions/%d", survey.ID, added.Question.ID), nil, true), http.StatusOK)
	expectStatus(t, s.do(http.MethodDelete, fmt.Sprintf("/api/surveys/%d/questions/%d", survey.ID, added.Question.ID), nil, true), http.StatusNotFound)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	expectStatus(t, s.do(http.MethodGet, "/healthz", nil, false), http.StatusOK)
}
