package model

import (
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mbolis/survey-stats/fault"
)

const (
	maxTitleLength    = 255
	maxNameLength     = 255
	maxQuestionLength = 500
)

// SurveyInput is the payload for creating a survey together with its
// questions.
type SurveyInput struct {
	Title                  string          `json:"title"`
	Description            *string         `json:"description"`
	CreatorName            *string         `json:"creator_name"`
	CreatorEmail           *string         `json:"creator_email"`
	StartDate              *time.Time      `json:"start_date"`
	EndDate                *time.Time      `json:"end_date"`
	IsAnonymous            *bool           `json:"is_anonymous"`
	AllowMultipleResponses *bool           `json:"allow_multiple_responses"`
	MaxResponses           *int            `json:"max_responses"`
	Questions              []QuestionInput `json:"questions"`
}

// SurveyPatch updates the fields that are not nil.
type SurveyPatch struct {
	Title                  *string    `json:"title"`
	Description            *string    `json:"description"`
	CreatorName            *string    `json:"creator_name"`
	CreatorEmail           *string    `json:"creator_email"`
	StartDate              *time.Time `json:"start_date"`
	EndDate                *time.Time `json:"end_date"`
	IsAnonymous            *bool      `json:"is_anonymous"`
	AllowMultipleResponses *bool      `json:"allow_multiple_responses"`
	MaxResponses           *int       `json:"max_responses"`
}

type QuestionInput struct {
	QuestionText string       `json:"question_text"`
	Type         QuestionType `json:"type"`
	Options      Labels       `json:"options"`
	IsRequired   bool         `json:"is_required"`
	Order        int          `json:"order"`
	HelpText     *string      `json:"help_text"`
}

type QuestionPatch struct {
	QuestionText *string       `json:"question_text"`
	Type         *QuestionType `json:"type"`
	Options      Labels        `json:"options"`
	IsRequired   *bool         `json:"is_required"`
	Order        *int          `json:"order"`
	HelpText     *string       `json:"help_text"`
}

// Submission is one respondent's set of answers to a survey.
type Submission struct {
	SessionID string   `json:"-"`
	Answers   []Answer `json:"responses"`
}

type Answer struct {
	QuestionID      int64   `json:"question_id"`
	ResponseText    *string `json:"response_text"`
	RatingValue     *int    `json:"rating_value"`
	SelectedOptions Labels  `json:"selected_options"`
}

// Validate checks the survey and every question in it.
func (in SurveyInput) Validate() error {
	v := fault.NewValidation("Validation failed")
	validateTitle(v, &in.Title)
	validateSurveyFields(v, in.CreatorName, in.CreatorEmail, in.StartDate, in.EndDate, in.MaxResponses)

	if len(in.Questions) == 0 {
		v.Add("questions", "at least one question is required")
	}
	for i, q := range in.Questions {
		q.validate(v, fieldPrefix("questions", i))
	}
	return v.OrNil()
}

func (p SurveyPatch) Validate() error {
	v := fault.NewValidation("Validation failed")
	if p.Title != nil {
		validateTitle(v, p.Title)
	}
	validateSurveyFields(v, p.CreatorName, p.CreatorEmail, p.StartDate, p.EndDate, p.MaxResponses)
	return v.OrNil()
}

func (in QuestionInput) Validate() error {
	v := fault.NewValidation("Validation failed")
	in.validate(v, "")
	return v.OrNil()
}

// Question returns the question described by in, with default options for
// yes_no questions.
func (in QuestionInput) Question(surveyID int64) Question {
	q := Question{
		SurveyID:     surveyID,
		QuestionText: strings.TrimSpace(in.QuestionText),
		Type:         in.Type,
		Options:      in.Options,
		IsRequired:   in.IsRequired,
		Order:        in.Order,
		HelpText:     in.HelpText,
	}
	q.Options = q.Choices()
	return q
}

func (in QuestionInput) validate(v *fault.Fault, prefix string) {
	text := strings.TrimSpace(in.QuestionText)
	switch {
	case text == "":
		v.Add(prefix+"question_text", "the question text is required")
	case utf8.RuneCountInString(text) > maxQuestionLength:
		v.Add(prefix+"question_text", "the question text may not exceed %d characters", maxQuestionLength)
	}
	validateOptions(v, prefix, in.Type, in.Options)
}

func (p QuestionPatch) Validate() error {
	v := fault.NewValidation("Validation failed")
	if p.QuestionText != nil {
		text := strings.TrimSpace(*p.QuestionText)
		switch {
		case text == "":
			v.Add("question_text", "the question text is required")
		case utf8.RuneCountInString(text) > maxQuestionLength:
			v.Add("question_text", "the question text may not exceed %d characters", maxQuestionLength)
		}
	}
	if p.Type != nil && !p.Type.Valid() {
		v.Add("type", "the selected type is invalid")
	}
	for i, label := range p.Options {
		if strings.TrimSpace(label) == "" {
			v.Add("options", "option %d may not be empty", i+1)
		}
	}
	return v.OrNil()
}

// Apply returns q with the patch applied. The result should be validated
// again since a new type may need options.
func (p QuestionPatch) Apply(q Question) Question {
	if p.QuestionText != nil {
		q.QuestionText = strings.TrimSpace(*p.QuestionText)
	}
	if p.Type != nil {
		q.Type = *p.Type
	}
	if p.Options != nil {
		q.Options = p.Options
	}
	if p.IsRequired != nil {
		q.IsRequired = *p.IsRequired
	}
	if p.Order != nil {
		q.Order = *p.Order
	}
	if p.HelpText != nil {
		q.HelpText = p.HelpText
	}
	return q
}

// ValidateQuestion checks a complete question, as stored.
func ValidateQuestion(q Question) error {
	v := fault.NewValidation("Validation failed")
	QuestionInput{
		QuestionText: q.QuestionText,
		Type:         q.Type,
		Options:      q.Options,
	}.validate(v, "")
	return v.OrNil()
}

// Apply returns s with the patch applied.
func (p SurveyPatch) Apply(s Survey) Survey {
	if p.Title != nil {
		s.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		s.Description = p.Description
	}
	if p.CreatorName != nil {
		s.CreatorName = p.CreatorName
	}
	if p.CreatorEmail != nil {
		s.CreatorEmail = p.CreatorEmail
	}
	if p.StartDate != nil {
		s.StartDate = p.StartDate
	}
	if p.EndDate != nil {
		s.EndDate = p.EndDate
	}
	if p.IsAnonymous != nil {
		s.IsAnonymous = *p.IsAnonymous
	}
	if p.AllowMultipleResponses != nil {
		s.AllowMultipleResponses = *p.AllowMultipleResponses
	}
	if p.MaxResponses != nil {
		s.MaxResponses = p.MaxResponses
	}
	return s
}

// ValidateSchedule checks the date window of a patched survey.
func ValidateSchedule(s Survey) error {
	v := fault.NewValidation("Validation failed")
	if s.StartDate != nil && s.EndDate != nil && !s.EndDate.After(*s.StartDate) {
		v.Add("end_date", "the end date must be after the start date")
	}
	return v.OrNil()
}

// Survey returns the new survey described by in, with defaults applied.
// Questions are returned apart and the access code is left empty.
func (in SurveyInput) Survey() Survey {
	s := Survey{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Status:       StatusDraft,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		IsAnonymous:  true,
		MaxResponses: in.MaxResponses,
		CreatorName:  in.CreatorName,
		CreatorEmail: in.CreatorEmail,
	}
	if in.IsAnonymous != nil {
		s.IsAnonymous = *in.IsAnonymous
	}
	if in.AllowMultipleResponses != nil {
		s.AllowMultipleResponses = *in.AllowMultipleResponses
	}
	return s
}

func validateTitle(v *fault.Fault, title *string) {
	t := strings.TrimSpace(*title)
	switch {
	case t == "":
		v.Add("title", "the title is required")
	case utf8.RuneCountInString(t) > maxTitleLength:
		v.Add("title", "the title may not exceed %d characters", maxTitleLength)
	}
}

func validateSurveyFields(v *fault.Fault, name, email *string, start, end *time.Time, maxResponses *int) {
	if name != nil && utf8.RuneCountInString(*name) > maxNameLength {
		v.Add("creator_name", "the creator name may not exceed %d characters", maxNameLength)
	}
	if email != nil && *email != "" {
		if _, err := mail.ParseAddress(*email); err != nil || utf8.RuneCountInString(*email) > maxNameLength {
			v.Add("creator_email", "the creator email must be a valid email address")
		}
	}
	if start != nil && end != nil && !end.After(*start) {
		v.Add("end_date", "the end date must be after the start date")
	}
	if maxResponses != nil && *maxResponses < 1 {
		v.Add("max_responses", "max responses must be at least 1")
	}
}

func validateOptions(v *fault.Fault, prefix string, typ QuestionType, options Labels) {
	kind, err := typ.Kind()
	if err != nil {
		v.Add(prefix+"type", "the selected type is invalid")
		return
	}
	for i, label := range options {
		if strings.TrimSpace(label) == "" {
			v.Add(prefix+"options", "option %d may not be empty", i+1)
		}
	}
	if _, ok := kind.(ChoiceKind); ok && typ != TypeYesNo && len(options) == 0 {
		v.Add(prefix+"options", "choice questions need at least one option")
	}
}

func fieldPrefix(field string, i int) string {
	return field + "." + strconv.Itoa(i) + "."
}
