package stats

import (
	"unicode"

	"github.com/mbolis/survey-stats/log"
	"github.com/mbolis/survey-stats/model"
)

// QuestionStats is the aggregate for one question. Exactly one of the
// embedded category blocks is set, or none for an unknown question type.
type QuestionStats struct {
	QuestionID     int64              `json:"question_id"`
	QuestionText   string             `json:"question_text"`
	Type           model.QuestionType `json:"type"`
	TotalResponses int                `json:"total_responses"`

	*TextStats
	*RatingStats
	*ChoiceStats
}

type TextStats struct {
	TextResponseCount int     `json:"text_responses_count"`
	AverageTextLength float64 `json:"average_text_length"`
}

type RatingStats struct {
	AverageRating      float64     `json:"average_rating"`
	RatingDistribution map[int]int `json:"rating_distribution"`
	MaxRating          int         `json:"max_rating"`
}

type ChoiceStats struct {
	OptionDistribution map[string]int `json:"option_distribution"`
}

// Question aggregates the responses given to q. The result depends only on
// the multiset of responses, never on their order.
func Question(q model.Question, responses []model.Response) QuestionStats {
	st := QuestionStats{
		QuestionID:     q.ID,
		QuestionText:   q.QuestionText,
		Type:           q.Type,
		TotalResponses: len(responses),
	}

	kind, err := q.Type.Kind()
	if err != nil {
		log.Warnf("stats.question %d: %s", q.ID, err)
		return st
	}

	switch k := kind.(type) {
	case model.TextKind:
		st.TextStats = textStats(responses)
	case model.RatingKind:
		st.RatingStats = ratingStats(k, responses)
	case model.ChoiceKind:
		st.ChoiceStats = choiceStats(responses)
	}
	return st
}

func textStats(responses []model.Response) *TextStats {
	count, total := 0, 0
	for _, r := range responses {
		if r.ResponseText == nil || *r.ResponseText == "" {
			continue
		}
		count++
		total += textLength(*r.ResponseText)
	}
	return &TextStats{
		TextResponseCount: count,
		AverageTextLength: roundedMean(total, count),
	}
}

// textLength counts the characters of s, not counting whitespace.
func textLength(s string) (n int) {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return
}

func ratingStats(k model.RatingKind, responses []model.Response) *RatingStats {
	st := &RatingStats{
		RatingDistribution: map[int]int{},
		MaxRating:          k.Max,
	}

	count, total := 0, 0
	for _, r := range responses {
		if r.RatingValue == nil {
			continue
		}
		v := *r.RatingValue
		if v < 1 || v > k.Max {
			// out of scale values can only come from corrupt rows
			continue
		}
		count++
		total += v
		st.RatingDistribution[v]++
	}
	st.AverageRating = roundedMean(total, count)
	return st
}

func choiceStats(responses []model.Response) *ChoiceStats {
	st := &ChoiceStats{OptionDistribution: map[string]int{}}
	for _, r := range responses {
		for _, label := range r.SelectedOptions {
			st.OptionDistribution[label]++
		}
	}
	return st
}

// roundedMean returns sum/count rounded half away from zero to 2 decimals,
// or 0 when count is 0. The rounding is done on integers so equal inputs
// always produce the same float64.
func roundedMean(sum, count int) float64 {
	if count == 0 {
		return 0
	}
	n := int64(sum) * 100
	d := int64(count)
	q, r := n/d, n%d
	if r < 0 {
		r = -r
	}
	if 2*r >= d {
		if n < 0 {
			q--
		} else {
			q++
		}
	}
	return float64(q) / 100
}

// Category reports the category of a computed result.
func (st QuestionStats) Category() (model.Category, bool) {
	switch {
	case st.TextStats != nil:
		return model.CategoryText, true
	case st.RatingStats != nil:
		return model.CategoryRating, true
	case st.ChoiceStats != nil:
		return model.CategoryChoice, true
	}
	return "", false
}
