package quiz

// Remark grades a finished attempt the way the results screen does.
type Remark string

const (
	RemarkExcellent      Remark = "excellent"
	RemarkGood           Remark = "good"
	RemarkKeepPracticing Remark = "keep_practicing"
)

// QuestionView is what the presentation layer may show for the current
// question. The correct key is only revealed once an answer was chosen.
type QuestionView struct {
	Number     int                  `json:"number"`
	Prompt     string               `json:"prompt"`
	Options    map[OptionKey]string `json:"options"`
	CorrectKey *OptionKey           `json:"correct_key,omitempty"`
	IsCorrect  *bool                `json:"is_correct,omitempty"`
}

// Result summarizes a finished attempt.
type Result struct {
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Remark     Remark `json:"remark"`
}

// Snapshot is a read-only copy of session state.
type Snapshot struct {
	Language  string        `json:"language"`
	Status    Status        `json:"status"`
	Failed    bool          `json:"failed"`
	Error     string        `json:"error,omitempty"`
	Position  int           `json:"position"`
	Length    int           `json:"length"`
	Score     int           `json:"score"`
	Answered  int           `json:"answered"`
	Selection *OptionKey    `json:"selection,omitempty"`
	Current   *QuestionView `json:"current,omitempty"`
	Result    *Result       `json:"result,omitempty"`
}

// Snapshot captures the session for rendering.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Language: s.language,
		Status:   s.status,
		Position: s.position,
		Length:   len(s.ordered),
		Score:    s.score,
		Answered: s.answered,
	}

	if s.err != nil {
		snap.Failed = true
		snap.Error = s.err.Error()
	}

	if sel, ok := s.Selection(); ok {
		snap.Selection = &sel
	}

	if q, ok := s.Current(); ok {
		view := &QuestionView{
			Number:  s.position + 1,
			Prompt:  q.Prompt,
			Options: make(map[OptionKey]string, len(q.Options)),
		}
		for k, v := range q.Options {
			view.Options[k] = v
		}
		if snap.Selection != nil {
			correct := q.CorrectKey
			isCorrect := *snap.Selection == correct
			view.CorrectKey = &correct
			view.IsCorrect = &isCorrect
		}
		snap.Current = view
	}

	if s.status == StatusFinished {
		r := Summarize(s.score, len(s.ordered))
		snap.Result = &r
	}

	return snap
}

// Summarize computes the result block for score out of total.
func Summarize(score, total int) Result {
	r := Result{Score: score, Total: total, Remark: RemarkKeepPracticing}
	if total == 0 {
		return r
	}

	r.Percentage = score * 100 / total
	ratio := float64(score) / float64(total)
	switch {
	case ratio >= 0.8:
		r.Remark = RemarkExcellent
	case ratio >= 0.5:
		r.Remark = RemarkGood
	}
	return r
}
