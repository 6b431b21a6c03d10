package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mbolis/survey-stats/fault"
	"github.com/mbolis/survey-stats/model"
)

const responseColumns = `
	r.id, r.survey_id, r.question_id, r.response_text, r.rating_value,
	r.selected_options, r.session_id, r.submitted_at`

const responseDetailColumns = responseColumns + `,
	s.title AS survey_title, q.question_text AS question_text`

// ResponsesFor returns every response given to a question of a survey. It
// fails with fault.ErrNotFound when the question does not belong to the
// survey.
func (s *Store) ResponsesFor(ctx context.Context, surveyID, questionID int64) ([]model.Response, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, s.db.Rebind(`
		SELECT 1 FROM questions
		WHERE id = ? AND survey_id = ?`),
		questionID, surveyID,
	)
	if err != nil {
		return nil, notFound(err)
	}

	responses := []model.Response{}
	err = s.db.SelectContext(ctx, &responses, s.db.Rebind(`
		SELECT`+responseColumns+`
		FROM survey_responses r
		WHERE r.survey_id = ? AND r.question_id = ?
		ORDER BY r.id`),
		surveyID, questionID,
	)
	return responses, err
}

// CountResponses counts the response rows of a survey.
func (s *Store) CountResponses(ctx context.Context, surveyID int64) (n int, err error) {
	err = s.db.GetContext(ctx, &n, s.db.Rebind(`
		SELECT COUNT(*) FROM survey_responses WHERE survey_id = ?`),
		surveyID,
	)
	return
}

// SubmitResponses records a respondent's answers to the survey with the
// given access code, returning the ids of the stored rows.
//
// The survey row is write-locked before the availability check, so that
// concurrent submissions are serialized and the response ceiling cannot be
// overrun by a race.
func (s *Store) SubmitResponses(ctx context.Context, accessCode string, sub model.Submission, now time.Time) ([]int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE surveys SET id = id WHERE access_code = ?`),
		accessCode,
	)
	if err != nil {
		return nil, fmt.Errorf("lock survey: %w", err)
	}
	if err = expectAffected(res); err != nil {
		return nil, err
	}

	survey, err := getSurvey(ctx, tx, "s.access_code = ?", accessCode)
	if err != nil {
		return nil, err
	}
	if !survey.IsActive(now) {
		return nil, fault.ErrSurveyNotAcceptingResponses
	}

	if !survey.AllowMultipleResponses && sub.SessionID != "" {
		var n int
		err = tx.GetContext(ctx, &n, tx.Rebind(`
			SELECT COUNT(*) FROM survey_responses
			WHERE survey_id = ? AND session_id = ?`),
			survey.ID, sub.SessionID,
		)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, fault.ErrAlreadySubmitted
		}
	}

	responses, err := survey.Responses(sub, now.UTC())
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(responses))
	for i, r := range responses {
		err = tx.GetContext(ctx, &ids[i], tx.Rebind(`
			INSERT INTO survey_responses (
				survey_id, question_id, response_text, rating_value,
				selected_options, session_id, submitted_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id`),
			r.SurveyID, r.QuestionID, r.ResponseText, r.RatingValue,
			r.SelectedOptions, r.SessionID, r.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert response: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListResponses pages through every response, newest first.
func (s *Store) ListResponses(ctx context.Context, page, limit int) (Page[model.ResponseDetail], error) {
	return paginate[model.ResponseDetail](ctx, s.db, `
		SELECT`+responseDetailColumns+`
		FROM survey_responses r
		INNER JOIN surveys s ON (s.id = r.survey_id)
		INNER JOIN questions q ON (q.id = r.question_id)
		ORDER BY r.submitted_at DESC, r.id DESC`,
		nil, page, limit,
	)
}

func (s *Store) GetResponse(ctx context.Context, id int64) (r model.ResponseDetail, err error) {
	err = s.db.GetContext(ctx, &r, s.db.Rebind(`
		SELECT`+responseDetailColumns+`
		FROM survey_responses r
		INNER JOIN surveys s ON (s.id = r.survey_id)
		INNER JOIN questions q ON (q.id = r.question_id)
		WHERE r.id = ?`),
		id,
	)
	return r, notFound(err)
}

// ResponsesBySurvey lists the responses of one survey, newest first.
func (s *Store) ResponsesBySurvey(ctx context.Context, surveyID int64) ([]model.ResponseDetail, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, s.db.Rebind(`SELECT 1 FROM surveys WHERE id = ?`), surveyID)
	if err != nil {
		return nil, notFound(err)
	}

	responses := []model.ResponseDetail{}
	err = s.db.SelectContext(ctx, &responses, s.db.Rebind(`
		SELECT`+responseDetailColumns+`
		FROM survey_responses r
		INNER JOIN surveys s ON (s.id = r.survey_id)
		INNER JOIN questions q ON (q.id = r.question_id)
		WHERE r.survey_id = ?
		ORDER BY r.submitted_at DESC, r.id DESC`),
		surveyID,
	)
	return responses, err
}
