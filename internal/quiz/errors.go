package quiz

import "errors"

var (
	// ErrSourceUnavailable wraps any failure of a QuestionSource fetch.
	ErrSourceUnavailable = errors.New("question source unavailable")
	// ErrMalformedQuestion marks a raw record that cannot become a Question.
	ErrMalformedQuestion = errors.New("malformed question")
)
