package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/mbolis/survey-stats/fault"
)

// Responses checks sub against the questions of s and returns the rows to
// store, one per answered question. Only the field matching the category of
// the question is kept. Empty answers to optional questions are dropped.
func (s Survey) Responses(sub Submission, submittedAt time.Time) ([]Response, error) {
	v := fault.NewValidation("Validation failed")

	answered := map[int64]bool{}
	var responses []Response
	for i, a := range sub.Answers {
		field := fmt.Sprintf("responses.%d", i)

		q, ok := s.Question(a.QuestionID)
		if !ok {
			v.Add(field+".question_id", "question %d does not belong to this survey", a.QuestionID)
			continue
		}
		if answered[q.ID] {
			v.Add(field+".question_id", "question %d is answered more than once", q.ID)
			continue
		}
		answered[q.ID] = true

		r, empty, err := answer(q, a)
		if err != "" {
			v.Add(field, "%s", err)
			continue
		}
		if empty {
			if q.IsRequired {
				v.Add(field, "question %d is required", q.ID)
			}
			continue
		}

		r.SurveyID = s.ID
		r.QuestionID = q.ID
		r.SubmittedAt = submittedAt
		if sub.SessionID != "" {
			sid := sub.SessionID
			r.SessionID = &sid
		}
		responses = append(responses, r)
	}

	for _, q := range s.Questions {
		if q.IsRequired && !answered[q.ID] {
			v.Add("responses", "question %d is required", q.ID)
		}
	}
	if len(responses) == 0 && len(v.Fields) == 0 {
		v.Add("responses", "at least one answer is required")
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return responses, nil
}

// answer normalizes a to the category of q. A non-empty msg reports an
// invalid answer.
func answer(q Question, a Answer) (r Response, empty bool, msg string) {
	kind, err := q.Type.Kind()
	if err != nil {
		return r, false, err.Error()
	}

	switch k := kind.(type) {
	case TextKind:
		if a.ResponseText == nil || strings.TrimSpace(*a.ResponseText) == "" {
			return r, true, ""
		}
		text := *a.ResponseText
		r.ResponseText = &text

	case RatingKind:
		if a.RatingValue == nil {
			return r, true, ""
		}
		v := *a.RatingValue
		if v < 1 || v > k.Max {
			return r, false, fmt.Sprintf("rating must be between 1 and %d", k.Max)
		}
		r.RatingValue = &v

	case ChoiceKind:
		if len(a.SelectedOptions) == 0 {
			return r, true, ""
		}
		if k.Single && len(a.SelectedOptions) > 1 {
			return r, false, "only one option may be selected"
		}
		choices := q.Choices()
		for i, label := range a.SelectedOptions {
			if !choices.Contains(label) {
				return r, false, fmt.Sprintf("%q is not an option of this question", label)
			}
			if a.SelectedOptions[:i].Contains(label) {
				return r, false, fmt.Sprintf("%q is selected more than once", label)
			}
		}
		r.SelectedOptions = append(Labels(nil), a.SelectedOptions...)
	}
	return r, false, ""
}

func (l Labels) Contains(label string) bool {
	for _, x := range l {
		if x == label {
			return true
		}
	}
	return false
}
