package quiz

import (
	"fmt"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
)

// OptionKey identifies one of the four answer choices of a question.
type OptionKey string

const (
	OptionA OptionKey = "A"
	OptionB OptionKey = "B"
	OptionC OptionKey = "C"
	OptionD OptionKey = "D"
)

// OptionKeys lists the option keys in display order.
var OptionKeys = [4]OptionKey{OptionA, OptionB, OptionC, OptionD}

// Valid reports whether k is one of the four known option keys.
func (k OptionKey) Valid() bool {
	switch k {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Question is a validated multiple-choice question. It is never mutated after load.
type Question struct {
	Prompt     string               `json:"prompt"`
	Options    map[OptionKey]string `json:"options"`
	CorrectKey OptionKey            `json:"-"`
}

// RawQuestion is a record as delivered by a question source.
// The JSON shape matches the published bank files.
type RawQuestion struct {
	Question      string `json:"Question" validate:"required"`
	OptionA       string `json:"OptionA" validate:"required"`
	OptionB       string `json:"OptionB" validate:"required"`
	OptionC       string `json:"OptionC" validate:"required"`
	OptionD       string `json:"OptionD" validate:"required"`
	CorrectAnswer string `json:"CorrectAnswer" validate:"required"`
}

var recordValidator = govalidator.New(govalidator.WithRequiredStructEnabled())

// ParseOptionKey accepts both "B" and the bank file spelling "OptionB".
func ParseOptionKey(s string) (OptionKey, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "Option"), "option")
	k := OptionKey(strings.ToUpper(s))
	return k, k.Valid()
}

// ToQuestion converts a raw record into a Question. Records with a missing
// prompt, a missing option, or a correct answer outside A-D are rejected
// with ErrMalformedQuestion.
func (r RawQuestion) ToQuestion() (Question, error) {
	if err := recordValidator.Struct(r); err != nil {
		var fields []string
		if ve, ok := err.(govalidator.ValidationErrors); ok {
			for _, fe := range ve {
				fields = append(fields, fe.Field())
			}
		}
		return Question{}, fmt.Errorf("%w: missing %s", ErrMalformedQuestion, strings.Join(fields, ", "))
	}

	correct, ok := ParseOptionKey(r.CorrectAnswer)
	if !ok {
		return Question{}, fmt.Errorf("%w: correct answer %q is not an option key", ErrMalformedQuestion, r.CorrectAnswer)
	}

	return Question{
		Prompt: r.Question,
		Options: map[OptionKey]string{
			OptionA: r.OptionA,
			OptionB: r.OptionB,
			OptionC: r.OptionC,
			OptionD: r.OptionD,
		},
		CorrectKey: correct,
	}, nil
}

// Rejected describes a raw record dropped during conversion.
type Rejected struct {
	Index int
	Err   error
}

// ConvertBank converts raw records in order, dropping malformed ones.
func ConvertBank(raw []RawQuestion) ([]Question, []Rejected) {
	questions := make([]Question, 0, len(raw))
	var rejected []Rejected
	for i, r := range raw {
		q, err := r.ToQuestion()
		if err != nil {
			rejected = append(rejected, Rejected{Index: i, Err: err})
			continue
		}
		questions = append(questions, q)
	}
	return questions, rejected
}
