package stats

import (
	"context"
	"fmt"

	"github.com/mbolis/survey-stats/model"
)

// ResponseSource gives read access to recorded responses.
type ResponseSource interface {
	ResponsesFor(ctx context.Context, surveyID, questionID int64) ([]model.Response, error)
}

type SurveyStats struct {
	TotalResponses int             `json:"total_responses"`
	UniqueSessions int             `json:"unique_sessions"`
	Questions      []QuestionStats `json:"questions"`
}

type Aggregator struct {
	source ResponseSource
}

func NewAggregator(source ResponseSource) *Aggregator {
	return &Aggregator{source: source}
}

// Survey computes the statistics of survey, pulling the responses of each of
// its questions from the source. survey.Questions must be loaded; they are
// visited once each, in display order.
//
// Every response belongs to exactly one question, so the survey total is
// the sum of the rows pulled. Submissions stored while the questions are
// being read cannot make the totals disagree.
func (a *Aggregator) Survey(ctx context.Context, survey model.Survey) (SurveyStats, error) {
	questions := make([]model.Question, len(survey.Questions))
	copy(questions, survey.Questions)
	model.SortQuestions(questions)

	st := SurveyStats{
		Questions: make([]QuestionStats, 0, len(questions)),
	}
	sessions := map[string]struct{}{}
	for _, q := range questions {
		if err := ctx.Err(); err != nil {
			return SurveyStats{}, err
		}

		responses, err := a.source.ResponsesFor(ctx, survey.ID, q.ID)
		if err != nil {
			return SurveyStats{}, fmt.Errorf("responses of question %d: %w", q.ID, err)
		}
		st.TotalResponses += len(responses)
		for _, r := range responses {
			if r.SessionID != nil && *r.SessionID != "" {
				sessions[*r.SessionID] = struct{}{}
			}
		}
		st.Questions = append(st.Questions, Question(q, responses))
	}
	st.UniqueSessions = len(sessions)

	return st, nil
}
