package quiz_test

import (
	"fmt"
	"testing"

	"github.com/examprep/mcq-backend/internal/quiz"
)

func makeQuestion(prompt string, correct quiz.OptionKey) quiz.Question {
	return quiz.Question{
		Prompt: prompt,
		Options: map[quiz.OptionKey]string{
			quiz.OptionA: prompt + " a",
			quiz.OptionB: prompt + " b",
			quiz.OptionC: prompt + " c",
			quiz.OptionD: prompt + " d",
		},
		CorrectKey: correct,
	}
}

func makeBank(n int) []quiz.Question {
	bank := make([]quiz.Question, n)
	for i := range bank {
		bank[i] = makeQuestion(fmt.Sprintf("Q%d", i+1), quiz.OptionKeys[i%4])
	}
	return bank
}

// checkInvariant asserts 0 <= score <= answered <= position + pending <= length.
func checkInvariant(t *testing.T, s *quiz.Session) {
	t.Helper()
	pending := 0
	if _, ok := s.Selection(); ok {
		pending = 1
	}
	if s.Score() < 0 || s.Score() > s.Answered() {
		t.Fatalf("score %d out of range for answered %d", s.Score(), s.Answered())
	}
	if s.Answered() > s.Position()+pending {
		t.Fatalf("answered %d exceeds position %d + pending %d", s.Answered(), s.Position(), pending)
	}
	if s.Len() > 0 && s.Position()+pending > s.Len() {
		t.Fatalf("position %d + pending %d exceeds length %d", s.Position(), pending, s.Len())
	}
}

func TestScenarioA_ScoreFollowsSelections(t *testing.T) {
	bank := []quiz.Question{
		makeQuestion("Q1", quiz.OptionB),
		makeQuestion("Q2", quiz.OptionA),
	}
	s := quiz.NewSession("english", bank, quiz.NewSeededRand(1))

	// Answer whatever question comes first with its correct key, the second wrongly.
	first, _ := s.Current()
	if !s.SelectAnswer(first.CorrectKey) {
		t.Fatal("expected first selection to apply")
	}
	if s.Score() != 1 || s.Answered() != 1 {
		t.Fatalf("expected 1/1, got %d/%d", s.Score(), s.Answered())
	}
	checkInvariant(t, s)

	if !s.Advance() {
		t.Fatal("expected advance to apply")
	}
	if s.Position() != 1 {
		t.Fatalf("expected position 1, got %d", s.Position())
	}
	if _, ok := s.Selection(); ok {
		t.Fatal("expected selection cleared after advance")
	}

	second, _ := s.Current()
	wrong := quiz.OptionC
	if second.CorrectKey == wrong {
		wrong = quiz.OptionD
	}
	s.SelectAnswer(wrong)
	if s.Score() != 1 || s.Answered() != 2 {
		t.Fatalf("expected 1/2, got %d/%d", s.Score(), s.Answered())
	}
	checkInvariant(t, s)

	s.Advance()
	if s.Status() != quiz.StatusFinished {
		t.Fatalf("expected FINISHED, got %s", s.Status())
	}
	if s.Position() != 1 {
		t.Fatalf("expected position to stay on last index, got %d", s.Position())
	}
	checkInvariant(t, s)
}

func TestScenarioB_EmptyBankFinishesImmediately(t *testing.T) {
	s := quiz.NewSession("english", nil, quiz.NewSeededRand(1))

	if s.Status() != quiz.StatusFinished {
		t.Fatalf("expected FINISHED, got %s", s.Status())
	}
	if s.Len() != 0 || s.Score() != 0 || s.Answered() != 0 {
		t.Errorf("expected empty 0/0 session, got len=%d score=%d answered=%d", s.Len(), s.Score(), s.Answered())
	}
	if s.SelectAnswer(quiz.OptionA) {
		t.Error("expected select on empty bank to be ignored")
	}
}

func TestSelectAnswer_FirstSelectionIsFinal(t *testing.T) {
	s := quiz.NewSession("english", makeBank(3), quiz.NewSeededRand(7))
	q, _ := s.Current()

	s.SelectAnswer(q.CorrectKey)
	other := quiz.OptionA
	if other == q.CorrectKey {
		other = quiz.OptionB
	}
	if s.SelectAnswer(other) {
		t.Error("expected second selection to be ignored")
	}

	sel, _ := s.Selection()
	if sel != q.CorrectKey {
		t.Errorf("expected selection %s, got %s", q.CorrectKey, sel)
	}
	if s.Score() != 1 || s.Answered() != 1 {
		t.Errorf("expected 1/1 after repeated clicks, got %d/%d", s.Score(), s.Answered())
	}
}

func TestSelectAnswer_UnknownKeyIgnored(t *testing.T) {
	s := quiz.NewSession("english", makeBank(2), quiz.NewSeededRand(7))

	if s.SelectAnswer("E") {
		t.Error("expected unknown option key to be ignored")
	}
	if s.Answered() != 0 {
		t.Errorf("expected nothing answered, got %d", s.Answered())
	}
}

func TestAdvance_WithoutSelectionIsNoop(t *testing.T) {
	s := quiz.NewSession("english", makeBank(3), quiz.NewSeededRand(7))

	if s.Advance() {
		t.Error("expected advance without selection to be ignored")
	}
	if s.Position() != 0 {
		t.Errorf("expected position 0, got %d", s.Position())
	}
}

func TestLoadingSession_IgnoresActions(t *testing.T) {
	s := quiz.NewLoadingSession("english")

	if s.SelectAnswer(quiz.OptionA) || s.Advance() {
		t.Error("expected actions to be ignored while loading")
	}
	if _, ok := s.Restart(quiz.NewSeededRand(1)); ok {
		t.Error("expected restart to be ignored while loading")
	}
}

func TestScenarioD_RestartFromFinished(t *testing.T) {
	bank := []quiz.Question{
		makeQuestion("Q1", quiz.OptionB),
		makeQuestion("Q2", quiz.OptionA),
	}
	rng := quiz.NewSeededRand(3)
	s := quiz.NewSession("english", bank, rng)
	for s.Status() == quiz.StatusInProgress {
		q, _ := s.Current()
		s.SelectAnswer(q.CorrectKey)
		s.Advance()
	}

	next, ok := s.Restart(rng)
	if !ok {
		t.Fatal("expected restart from FINISHED to apply")
	}
	if next.Status() != quiz.StatusInProgress {
		t.Errorf("expected IN_PROGRESS, got %s", next.Status())
	}
	if next.Position() != 0 || next.Score() != 0 || next.Answered() != 0 {
		t.Errorf("expected clean counters, got pos=%d score=%d answered=%d", next.Position(), next.Score(), next.Answered())
	}
	if _, ok := next.Selection(); ok {
		t.Error("expected no selection after restart")
	}
	assertPermutation(t, bank, next.Questions())
}

func TestRestart_MidQuizWithPendingSelection(t *testing.T) {
	bank := makeBank(5)
	rng := quiz.NewSeededRand(11)
	s := quiz.NewSession("english", bank, rng)

	q, _ := s.Current()
	s.SelectAnswer(q.CorrectKey)
	s.Advance()
	if !s.SelectAnswer(quiz.OptionA) {
		t.Fatal("expected selection on the second question")
	}
	if s.Position() != 1 || s.Answered() != 2 {
		t.Fatalf("unexpected setup pos=%d answered=%d", s.Position(), s.Answered())
	}

	next, ok := s.Restart(rng)
	if !ok {
		t.Fatal("expected restart from IN_PROGRESS to apply")
	}
	if next.Status() != quiz.StatusInProgress || next.Len() != 5 {
		t.Errorf("expected IN_PROGRESS with 5 questions, got %s/%d", next.Status(), next.Len())
	}
	if next.Position() != 0 || next.Score() != 0 || next.Answered() != 0 {
		t.Errorf("expected clean counters, got pos=%d score=%d answered=%d", next.Position(), next.Score(), next.Answered())
	}
	if _, ok := next.Selection(); ok {
		t.Error("expected pending selection to be cleared")
	}
	assertPermutation(t, bank, next.Questions())
	checkInvariant(t, next)
}

func TestRestart_EmptyBankStaysFinished(t *testing.T) {
	s := quiz.NewSession("tamil", nil, quiz.NewSeededRand(3))

	next, ok := s.Restart(quiz.NewSeededRand(3))
	if !ok {
		t.Fatal("expected restart to apply")
	}
	if next.Status() != quiz.StatusFinished {
		t.Errorf("expected FINISHED for empty bank, got %s", next.Status())
	}
}

func TestInvariantHoldsThroughRandomPlay(t *testing.T) {
	rng := quiz.NewSeededRand(42)
	s := quiz.NewSession("english", makeBank(25), rng)

	for step := 0; step < 500 && s.Status() != quiz.StatusFinished; step++ {
		switch rng.Intn(10) {
		case 0, 1, 2, 3, 4:
			s.SelectAnswer(quiz.OptionKeys[rng.Intn(4)])
		case 5, 6, 7, 8:
			s.Advance()
		case 9:
			next, ok := s.Restart(rng)
			if !ok {
				t.Fatalf("restart refused at step %d in %s", step, s.Status())
			}
			if next.Position() != 0 || next.Score() != 0 || next.Answered() != 0 {
				t.Fatalf("restart left counters pos=%d score=%d answered=%d", next.Position(), next.Score(), next.Answered())
			}
			s = next
		}
		checkInvariant(t, s)
	}
}

func TestSnapshot_HidesCorrectKeyUntilAnswered(t *testing.T) {
	s := quiz.NewSession("english", makeBank(2), quiz.NewSeededRand(5))

	snap := s.Snapshot()
	if snap.Current == nil {
		t.Fatal("expected a current question")
	}
	if snap.Current.CorrectKey != nil || snap.Current.IsCorrect != nil {
		t.Error("expected correct key hidden before an answer")
	}

	q, _ := s.Current()
	s.SelectAnswer(q.CorrectKey)
	snap = s.Snapshot()
	if snap.Current.CorrectKey == nil || *snap.Current.CorrectKey != q.CorrectKey {
		t.Error("expected correct key revealed after answering")
	}
	if snap.Current.IsCorrect == nil || !*snap.Current.IsCorrect {
		t.Error("expected answer marked correct")
	}
}

func TestSnapshot_FinishedCarriesResult(t *testing.T) {
	s := quiz.NewSession("english", makeBank(1), quiz.NewSeededRand(5))
	q, _ := s.Current()
	s.SelectAnswer(q.CorrectKey)
	s.Advance()

	snap := s.Snapshot()
	if snap.Result == nil {
		t.Fatal("expected a result once finished")
	}
	if snap.Result.Score != 1 || snap.Result.Total != 1 || snap.Result.Remark != quiz.RemarkExcellent {
		t.Errorf("unexpected result %+v", *snap.Result)
	}
	if snap.Current == nil {
		t.Error("expected last question to stay visible when finished")
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		score, total int
		percentage   int
		remark       quiz.Remark
	}{
		{0, 0, 0, quiz.RemarkKeepPracticing},
		{8, 10, 80, quiz.RemarkExcellent},
		{7, 10, 70, quiz.RemarkGood},
		{5, 10, 50, quiz.RemarkGood},
		{4, 10, 40, quiz.RemarkKeepPracticing},
	}

	for _, tt := range tests {
		r := quiz.Summarize(tt.score, tt.total)
		if r.Percentage != tt.percentage || r.Remark != tt.remark {
			t.Errorf("Summarize(%d, %d) = %d%% %s, want %d%% %s",
				tt.score, tt.total, r.Percentage, r.Remark, tt.percentage, tt.remark)
		}
	}
}
