package model

import (
	"sort"
	"time"
)

// IsActive reports whether the survey accepts responses at now: it must be
// active, inside its scheduling window and below its response ceiling.
func (s Survey) IsActive(now time.Time) bool {
	if s.Status != StatusActive {
		return false
	}
	if s.StartDate != nil && now.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return false
	}
	return !s.HasReachedMaxResponses()
}

// IsExpired is independent of status.
func (s Survey) IsExpired(now time.Time) bool {
	return s.EndDate != nil && now.After(*s.EndDate)
}

func (s Survey) HasReachedMaxResponses() bool {
	return s.MaxResponses != nil && s.ResponseCount >= *s.MaxResponses
}

// Question returns the question with the given id, if it belongs to s.
func (s Survey) Question(id int64) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Choices returns the labels a respondent may select. yes_no questions
// without options offer "Yes" and "No".
func (q Question) Choices() Labels {
	if q.Type == TypeYesNo && len(q.Options) == 0 {
		return Labels{"Yes", "No"}
	}
	return q.Options
}

// SortQuestions orders questions for display: by Order, ties by creation
// (ascending id).
func SortQuestions(questions []Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		if questions[i].Order == questions[j].Order {
			return questions[i].ID < questions[j].ID
		}
		return questions[i].Order < questions[j].Order
	})
}
