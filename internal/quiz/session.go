package quiz

// Status enumerates the quiz session states.
type Status string

const (
	StatusLoading    Status = "LOADING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFinished   Status = "FINISHED"
)

// Session is the mutable state of one quiz attempt. All transitions are
// methods that report whether they changed anything; invalid or stale
// actions leave the session untouched and return false.
type Session struct {
	language  string
	bank      []Question // unshuffled, kept for Restart
	ordered   []Question
	position  int
	selection OptionKey // "" when nothing is selected
	score     int
	answered  int
	status    Status
	err       error
}

// NewLoadingSession returns a session waiting for its bank to arrive.
func NewLoadingSession(language string) *Session {
	return &Session{language: language, status: StatusLoading}
}

// NewSession builds a ready session from an already validated bank.
func NewSession(language string, bank []Question, rng Rand) *Session {
	s := NewLoadingSession(language)
	s.Begin(bank, rng)
	return s
}

// Begin moves a loading session into play with a freshly shuffled bank.
// An empty bank finishes immediately with a 0/0 score.
func (s *Session) Begin(bank []Question, rng Rand) {
	s.bank = bank
	s.ordered = Shuffle(bank, rng)
	s.position = 0
	s.selection = ""
	s.score = 0
	s.answered = 0
	s.err = nil
	if len(s.ordered) == 0 {
		s.status = StatusFinished
		return
	}
	s.status = StatusInProgress
}

// Fail puts a loading session into the terminal Loading(error) state.
func (s *Session) Fail(err error) {
	s.bank = nil
	s.ordered = nil
	s.position = 0
	s.selection = ""
	s.score = 0
	s.answered = 0
	s.status = StatusLoading
	s.err = err
}

// SelectAnswer records the first selection for the current question.
// Later selections before Advance are ignored.
func (s *Session) SelectAnswer(key OptionKey) bool {
	if s.status != StatusInProgress || s.selection != "" || !key.Valid() {
		return false
	}
	if s.position >= len(s.ordered) {
		return false
	}

	s.selection = key
	s.answered++
	if key == s.ordered[s.position].CorrectKey {
		s.score++
	}
	return true
}

// Advance moves past an answered question. On the last question it sets
// Finished and keeps the position on that question.
func (s *Session) Advance() bool {
	if s.status != StatusInProgress || s.selection == "" {
		return false
	}

	if s.position+1 < len(s.ordered) {
		s.position++
		s.selection = ""
		return true
	}

	s.status = StatusFinished
	return true
}

// Restart returns a fresh session over the same bank, reshuffled.
// Sessions still loading (or failed) cannot be restarted.
func (s *Session) Restart(rng Rand) (*Session, bool) {
	if s.status == StatusLoading {
		return s, false
	}
	return NewSession(s.language, s.bank, rng), true
}

func (s *Session) Status() Status { return s.status }
func (s *Session) Position() int  { return s.position }
func (s *Session) Len() int       { return len(s.ordered) }
func (s *Session) Score() int     { return s.score }
func (s *Session) Answered() int  { return s.answered }

// Selection returns the pending selection, if any.
func (s *Session) Selection() (OptionKey, bool) {
	return s.selection, s.selection != ""
}

// Current returns the question at the current position.
func (s *Session) Current() (Question, bool) {
	if s.position < 0 || s.position >= len(s.ordered) {
		return Question{}, false
	}
	return s.ordered[s.position], true
}

// Questions returns a copy of the presentation order.
func (s *Session) Questions() []Question {
	out := make([]Question, len(s.ordered))
	copy(out, s.ordered)
	return out
}
