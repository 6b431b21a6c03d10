package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Status string

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusClosed Status = "closed"
)

type Survey struct {
	ID                     int64      `json:"id" db:"id"`
	Title                  string     `json:"title" db:"title"`
	Description            *string    `json:"description" db:"description"`
	AccessCode             string     `json:"access_code" db:"access_code"`
	Status                 Status     `json:"status" db:"status"`
	StartDate              *time.Time `json:"start_date" db:"start_date"`
	EndDate                *time.Time `json:"end_date" db:"end_date"`
	IsAnonymous            bool       `json:"is_anonymous" db:"is_anonymous"`
	AllowMultipleResponses bool       `json:"allow_multiple_responses" db:"allow_multiple_responses"`
	MaxResponses           *int       `json:"max_responses" db:"max_responses"`
	CreatorName            *string    `json:"creator_name" db:"creator_name"`
	CreatorEmail           *string    `json:"creator_email" db:"creator_email"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" db:"updated_at"`

	ResponseCount int        `json:"response_count" db:"response_count"`
	Questions     []Question `json:"questions,omitempty" db:"-"`
}

type Question struct {
	ID           int64        `json:"id" db:"id"`
	SurveyID     int64        `json:"survey_id" db:"survey_id"`
	QuestionText string       `json:"question_text" db:"question_text"`
	Type         QuestionType `json:"type" db:"type"`
	Options      Labels       `json:"options" db:"options"`
	IsRequired   bool         `json:"is_required" db:"is_required"`
	Order        int          `json:"order" db:"display_order"`
	HelpText     *string      `json:"help_text" db:"help_text"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// Response is one answer to one question. It carries no respondent identity;
// SessionID only groups answers given together.
type Response struct {
	ID              int64     `json:"id" db:"id"`
	SurveyID        int64     `json:"survey_id" db:"survey_id"`
	QuestionID      int64     `json:"question_id" db:"question_id"`
	ResponseText    *string   `json:"response_text" db:"response_text"`
	RatingValue     *int      `json:"rating_value" db:"rating_value"`
	SelectedOptions Labels    `json:"selected_options" db:"selected_options"`
	SessionID       *string   `json:"session_id" db:"session_id"`
	SubmittedAt     time.Time `json:"submitted_at" db:"submitted_at"`
}

// ResponseDetail is a response with the titles of its survey and question.
type ResponseDetail struct {
	Response
	SurveyTitle  string `json:"survey_title" db:"survey_title"`
	QuestionText string `json:"question_text" db:"question_text"`
}

// Labels is a list of option labels stored as a JSON array. A NULL column, or
// a stored value that is not an array, scans to nil.
type Labels []string

func (l Labels) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *Labels) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("labels: cannot scan %T", src)
	}

	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		*l = nil
		return nil
	}
	labels := make(Labels, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			labels = append(labels, v)
		case float64, bool:
			labels = append(labels, fmt.Sprint(v))
		}
	}
	*l = labels
	return nil
}
