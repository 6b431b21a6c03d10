package model

import (
	"fmt"

	"github.com/mbolis/survey-stats/fault"
)

// QuestionType is the tag stored with every question.
type QuestionType string

const (
	TypeText           QuestionType = "text"
	TypeTextarea       QuestionType = "textarea"
	TypeRating5        QuestionType = "rating_1_5"
	TypeRating10       QuestionType = "rating_1_10"
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeSingleChoice   QuestionType = "single_choice"
	TypeYesNo          QuestionType = "yes_no"
)

// QuestionTypes lists the accepted tags, in display order.
var QuestionTypes = []QuestionType{
	TypeText, TypeTextarea,
	TypeRating5, TypeRating10,
	TypeMultipleChoice, TypeSingleChoice, TypeYesNo,
}

type Category string

const (
	CategoryText   Category = "text"
	CategoryRating Category = "rating"
	CategoryChoice Category = "choice"
)

// Kind is the closed set of question shapes: TextKind, RatingKind or
// ChoiceKind. Only this package can add implementations.
type Kind interface {
	Category() Category
	kind()
}

type TextKind struct{}

type RatingKind struct {
	Max int
}

type ChoiceKind struct {
	// Single is set when at most one label may be selected.
	Single bool
}

func (TextKind) Category() Category   { return CategoryText }
func (RatingKind) Category() Category { return CategoryRating }
func (ChoiceKind) Category() Category { return CategoryChoice }

func (TextKind) kind()   {}
func (RatingKind) kind() {}
func (ChoiceKind) kind() {}

// Kind resolves the tag. It fails with fault.ErrInvalidQuestionType for tags
// outside the fixed enumeration.
func (t QuestionType) Kind() (Kind, error) {
	switch t {
	case TypeText, TypeTextarea:
		return TextKind{}, nil
	case TypeRating5:
		return RatingKind{Max: 5}, nil
	case TypeRating10:
		return RatingKind{Max: 10}, nil
	case TypeMultipleChoice:
		return ChoiceKind{}, nil
	case TypeSingleChoice, TypeYesNo:
		return ChoiceKind{Single: true}, nil
	}
	return nil, fmt.Errorf("%w: %q", fault.ErrInvalidQuestionType, string(t))
}

func (t QuestionType) Valid() bool {
	_, err := t.Kind()
	return err == nil
}

func (t QuestionType) Category() (Category, error) {
	k, err := t.Kind()
	if err != nil {
		return "", err
	}
	return k.Category(), nil
}

// MaxRating returns the top of the scale for rating types, 0 otherwise.
func (t QuestionType) MaxRating() int {
	if k, err := t.Kind(); err == nil {
		if r, ok := k.(RatingKind); ok {
			return r.Max
		}
	}
	return 0
}
