package model

import (
	"github.com/examprep/mcq-backend/internal/quiz"
	"github.com/examprep/mcq-backend/internal/service"
)

// StartQuizRequest is the payload for starting a quiz. An empty language
// selects the configured default.
type StartQuizRequest struct {
	Language string `json:"language" binding:"omitempty,max=32"`
}

// LoadBankRequest switches a running session to another language bank.
type LoadBankRequest struct {
	Language string `json:"language" binding:"required,max=32"`
}

// AnswerRequest selects an option for the current question.
type AnswerRequest struct {
	Option string `json:"option" binding:"required,option_key"`
}

// StartQuizResponse carries the session ticket and the first snapshot.
type StartQuizResponse struct {
	Session  *service.Ticket `json:"session"`
	Snapshot quiz.Snapshot   `json:"snapshot"`
}

// ActionResponse reports the state after a quiz action. Applied is false
// when the action was ignored (for example a second click on an option).
type ActionResponse struct {
	Applied  bool          `json:"applied"`
	Snapshot quiz.Snapshot `json:"snapshot"`
}
