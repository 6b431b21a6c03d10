package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mbolis/survey-stats/model"
)

const (
	recentResponses = 10
	recentSurveys   = 5
	recentActivity  = 15
)

type Overview struct {
	TotalSurveys   int        `json:"total_surveys"`
	ActiveSurveys  int        `json:"active_surveys"`
	TotalResponses int        `json:"total_responses"`
	RecentActivity []Activity `json:"recent_activity"`
}

type ActivityType string

const (
	ActivitySurveyResponse ActivityType = "survey_response"
	ActivitySurveyCreated  ActivityType = "survey_created"
)

type Activity struct {
	Type      ActivityType `json:"type"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Data      any          `json:"data"`
}

func (s *Store) Overview(ctx context.Context) (o Overview, err error) {
	err = s.db.GetContext(ctx, &o.TotalSurveys, `SELECT COUNT(*) FROM surveys`)
	if err != nil {
		return
	}
	err = s.db.GetContext(ctx, &o.ActiveSurveys, s.db.Rebind(`
		SELECT COUNT(*) FROM surveys WHERE status = ?`),
		model.StatusActive,
	)
	if err != nil {
		return
	}
	err = s.db.GetContext(ctx, &o.TotalResponses, `SELECT COUNT(*) FROM survey_responses`)
	if err != nil {
		return
	}
	o.RecentActivity, err = s.RecentActivity(ctx)
	return
}

// RecentActivity merges the latest responses and the latest created surveys,
// newest first.
func (s *Store) RecentActivity(ctx context.Context) ([]Activity, error) {
	responses := []model.ResponseDetail{}
	err := s.db.SelectContext(ctx, &responses, s.db.Rebind(`
		SELECT`+responseDetailColumns+`
		FROM survey_responses r
		INNER JOIN surveys s ON (s.id = r.survey_id)
		INNER JOIN questions q ON (q.id = r.question_id)
		ORDER BY r.submitted_at DESC, r.id DESC
		LIMIT ?`),
		recentResponses,
	)
	if err != nil {
		return nil, err
	}

	surveys := []model.Survey{}
	err = s.db.SelectContext(ctx, &surveys, s.db.Rebind(`
		SELECT`+surveyColumns+`
		FROM surveys s
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT ?`),
		recentSurveys,
	)
	if err != nil {
		return nil, err
	}

	activity := make([]Activity, 0, len(responses)+len(surveys))
	for _, r := range responses {
		activity = append(activity, Activity{
			Type:      ActivitySurveyResponse,
			Message:   fmt.Sprintf("New response submitted to %q", r.SurveyTitle),
			Timestamp: r.SubmittedAt,
			Data:      r,
		})
	}
	for _, survey := range surveys {
		activity = append(activity, Activity{
			Type:      ActivitySurveyCreated,
			Message:   fmt.Sprintf("Survey %q was created", survey.Title),
			Timestamp: survey.CreatedAt,
			Data:      survey,
		})
	}

	sort.SliceStable(activity, func(i, j int) bool {
		return activity[i].Timestamp.After(activity[j].Timestamp)
	})
	if len(activity) > recentActivity {
		activity = activity[:recentActivity]
	}
	return activity, nil
}
