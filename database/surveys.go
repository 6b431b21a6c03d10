package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mbolis/survey-stats/fault"
	"github.com/mbolis/survey-stats/model"
)

const surveyColumns = `
	s.id, s.title, s.description, s.access_code, s.status,
	s.start_date, s.end_date, s.is_anonymous, s.allow_multiple_responses,
	s.max_responses, s.creator_name, s.creator_email, s.created_at, s.updated_at,
	(SELECT COUNT(*) FROM survey_responses r WHERE r.survey_id = s.id) AS response_count`

const questionColumns = `
	q.id, q.survey_id, q.question_text, q.type, q.options, q.is_required,
	q.display_order, q.help_text, q.created_at, q.updated_at`

// ListSurveys returns every survey with its questions, newest first.
func (s *Store) ListSurveys(ctx context.Context) ([]model.Survey, error) {
	surveys := []model.Survey{}
	err := s.db.SelectContext(ctx, &surveys, `
		SELECT`+surveyColumns+`
		FROM surveys s
		ORDER BY s.created_at DESC, s.id DESC`)
	if err != nil {
		return nil, err
	}

	questions := []model.Question{}
	err = s.db.SelectContext(ctx, &questions, `
		SELECT`+questionColumns+`
		FROM questions q
		ORDER BY q.survey_id, q.display_order, q.id`)
	if err != nil {
		return nil, err
	}

	bySurvey := map[int64][]model.Question{}
	for _, q := range questions {
		bySurvey[q.SurveyID] = append(bySurvey[q.SurveyID], q)
	}
	for i := range surveys {
		surveys[i].Questions = bySurvey[surveys[i].ID]
		if surveys[i].Questions == nil {
			surveys[i].Questions = []model.Question{}
		}
	}
	return surveys, nil
}

// GetSurvey loads a survey and its questions in display order.
func (s *Store) GetSurvey(ctx context.Context, id int64) (model.Survey, error) {
	return getSurvey(ctx, s.db, "s.id = ?", id)
}

// ActiveSurveyByCode loads the survey with the given access code, provided
// its status is active. Scheduling and the response ceiling are not checked.
func (s *Store) ActiveSurveyByCode(ctx context.Context, accessCode string) (model.Survey, error) {
	return getSurvey(ctx, s.db, "s.access_code = ? AND s.status = ?", accessCode, model.StatusActive)
}

func getSurvey(ctx context.Context, q queryer, where string, args ...any) (survey model.Survey, err error) {
	err = sqlx.GetContext(ctx, q, &survey, q.Rebind(`
		SELECT`+surveyColumns+`
		FROM surveys s
		WHERE `+where), args...)
	if err != nil {
		return survey, notFound(err)
	}

	survey.Questions, err = questionsOf(ctx, q, survey.ID)
	return
}

func questionsOf(ctx context.Context, q queryer, surveyID int64) ([]model.Question, error) {
	questions := []model.Question{}
	err := sqlx.SelectContext(ctx, q, &questions, q.Rebind(`
		SELECT`+questionColumns+`
		FROM questions q
		WHERE q.survey_id = ?
		ORDER BY q.display_order, q.id`),
		surveyID,
	)
	return questions, err
}

// CreateSurvey stores a new draft survey with its questions under a fresh
// access code.
func (s *Store) CreateSurvey(ctx context.Context, in model.SurveyInput, now time.Time) (survey model.Survey, err error) {
	if err = in.Validate(); err != nil {
		return
	}

	var id int64
	for attempt := 1; attempt <= accessCodeAttempts; attempt++ {
		id, err = s.createSurvey(ctx, in, now)
		if !isUniqueViolation(err) {
			break
		}
	}
	if isUniqueViolation(err) {
		err = fault.NewInternalError("no free access code", fmt.Errorf("%w: %w", fault.ErrUniqueViolation, err))
	}
	if err != nil {
		return
	}
	return s.GetSurvey(ctx, id)
}

func (s *Store) createSurvey(ctx context.Context, in model.SurveyInput, now time.Time) (id int64, err error) {
	code, err := newAccessCode()
	if err != nil {
		return
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return
	}
	defer tx.Rollback()

	survey := in.Survey()
	now = now.UTC()
	err = tx.GetContext(ctx, &id, tx.Rebind(`
		INSERT INTO surveys (
			title, description, access_code, status, start_date, end_date,
			is_anonymous, allow_multiple_responses, max_responses,
			creator_name, creator_email, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		survey.Title, survey.Description, code, survey.Status, utc(survey.StartDate), utc(survey.EndDate),
		survey.IsAnonymous, survey.AllowMultipleResponses, survey.MaxResponses,
		survey.CreatorName, survey.CreatorEmail, now, now,
	)
	if err != nil {
		return
	}

	for _, qin := range in.Questions {
		if _, err = insertQuestion(ctx, tx, qin.Question(id), now); err != nil {
			return
		}
	}

	err = tx.Commit()
	return
}

// UpdateSurvey applies patch to the survey. Questions are left untouched.
func (s *Store) UpdateSurvey(ctx context.Context, id int64, patch model.SurveyPatch, now time.Time) (model.Survey, error) {
	if err := patch.Validate(); err != nil {
		return model.Survey{}, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Survey{}, err
	}
	defer tx.Rollback()

	survey, err := getSurvey(ctx, tx, "s.id = ?", id)
	if err != nil {
		return model.Survey{}, err
	}
	survey = patch.Apply(survey)
	if err = model.ValidateSchedule(survey); err != nil {
		return model.Survey{}, err
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE surveys
		SET
			title = ?,
			description = ?,
			start_date = ?,
			end_date = ?,
			is_anonymous = ?,
			allow_multiple_responses = ?,
			max_responses = ?,
			creator_name = ?,
			creator_email = ?,
			updated_at = ?
		WHERE id = ?`),
		survey.Title, survey.Description, utc(survey.StartDate), utc(survey.EndDate),
		survey.IsAnonymous, survey.AllowMultipleResponses, survey.MaxResponses,
		survey.CreatorName, survey.CreatorEmail, now.UTC(),
		id,
	)
	if err != nil {
		return model.Survey{}, err
	}

	if err = tx.Commit(); err != nil {
		return model.Survey{}, err
	}
	return s.GetSurvey(ctx, id)
}

// SetStatus moves the survey to status. Any transition is allowed.
func (s *Store) SetStatus(ctx context.Context, id int64, status model.Status, now time.Time) (model.Survey, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE surveys
		SET status = ?, updated_at = ?
		WHERE id = ?`),
		status, now.UTC(), id,
	)
	if err != nil {
		return model.Survey{}, err
	}
	if err = expectAffected(res); err != nil {
		return model.Survey{}, err
	}
	return s.GetSurvey(ctx, id)
}

// DeleteSurvey removes a survey together with its questions and responses.
func (s *Store) DeleteSurvey(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM surveys WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// AddQuestion appends a question to an existing survey.
func (s *Store) AddQuestion(ctx context.Context, surveyID int64, in model.QuestionInput, now time.Time) (model.Question, error) {
	if err := in.Validate(); err != nil {
		return model.Question{}, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Question{}, err
	}
	defer tx.Rollback()

	var exists bool
	err = tx.GetContext(ctx, &exists, tx.Rebind(`SELECT 1 FROM surveys WHERE id = ?`), surveyID)
	if err != nil {
		return model.Question{}, notFound(err)
	}

	q, err := insertQuestion(ctx, tx, in.Question(surveyID), now.UTC())
	if err != nil {
		return model.Question{}, err
	}
	return q, tx.Commit()
}

// UpdateQuestion applies patch to a question of the given survey.
func (s *Store) UpdateQuestion(ctx context.Context, surveyID, questionID int64, patch model.QuestionPatch, now time.Time) (model.Question, error) {
	if err := patch.Validate(); err != nil {
		return model.Question{}, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Question{}, err
	}
	defer tx.Rollback()

	var q model.Question
	err = tx.GetContext(ctx, &q, tx.Rebind(`
		SELECT`+questionColumns+`
		FROM questions q
		WHERE q.id = ? AND q.survey_id = ?`),
		questionID, surveyID,
	)
	if err != nil {
		return model.Question{}, notFound(err)
	}

	q = patch.Apply(q)
	if err = model.ValidateQuestion(q); err != nil {
		return model.Question{}, err
	}
	q.UpdatedAt = now.UTC()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE questions
		SET
			question_text = ?,
			type = ?,
			options = ?,
			is_required = ?,
			display_order = ?,
			help_text = ?,
			updated_at = ?
		WHERE id = ?`),
		q.QuestionText, q.Type, q.Options, q.IsRequired, q.Order, q.HelpText, q.UpdatedAt,
		q.ID,
	)
	if err != nil {
		return model.Question{}, err
	}
	return q, tx.Commit()
}

// DeleteQuestion removes a question of the given survey, and its responses.
func (s *Store) DeleteQuestion(ctx context.Context, surveyID, questionID int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		DELETE FROM questions
		WHERE id = ? AND survey_id = ?`),
		questionID, surveyID,
	)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func insertQuestion(ctx context.Context, tx *sqlx.Tx, q model.Question, now time.Time) (model.Question, error) {
	q.CreatedAt, q.UpdatedAt = now, now
	err := tx.GetContext(ctx, &q.ID, tx.Rebind(`
		INSERT INTO questions (
			survey_id, question_text, type, options, is_required,
			display_order, help_text, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		q.SurveyID, q.QuestionText, q.Type, q.Options, q.IsRequired,
		q.Order, q.HelpText, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return q, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

// queryer is implemented by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func expectAffected(res rowsAffected) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n < 1 {
		return fault.ErrNotFound
	}
	return nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
