package service_test

import (
	"errors"
	"testing"

	"edu_platform_backend/internal/model"
	"edu_platform_backend/internal/repository"
	"edu_platform_backend/internal/service"
	"edu_platform_backend/internal/util"
)

/* ---------------- in-memory fake satisfying repository.AttemptStore ---------------- */

type fakeAttemptStore struct {
	kind         model.AssessmentKind
	assessments  map[uint]*model.Assessment // keyed by lesson id
	attempts     []*model.StudentAttempt
	nextID       uint
	singles      []*model.StudentAnswerDetail
	multis       []*model.StudentAnswersDetail
	matchings    []*model.StudentMatchingDetail
	lessonScores map[uint]int // lesson id -> last recorded score
	lessonTries  map[uint]int
}

func newFakeAttemptStore(kind model.AssessmentKind) *fakeAttemptStore {
	return &fakeAttemptStore{
		kind:         kind,
		assessments:  map[uint]*model.Assessment{},
		lessonScores: map[uint]int{},
		lessonTries:  map[uint]int{},
	}
}

func (f *fakeAttemptStore) addAssessment(id, lessonID uint, attempts int) {
	f.assessments[lessonID] = &model.Assessment{ID: id, LessonID: lessonID, Kind: f.kind, Score: 100, Attempts: attempts}
}

func (f *fakeAttemptStore) Kind() model.AssessmentKind { return f.kind }

func (f *fakeAttemptStore) AssessmentByLessonID(lessonID uint) (*model.Assessment, error) {
	a, ok := f.assessments[lessonID]
	if !ok {
		return nil, util.ErrNotFound
	}
	return a, nil
}

func (f *fakeAttemptStore) AssessmentByID(id uint) (*model.Assessment, error) {
	for _, a := range f.assessments {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, util.ErrNotFound
}

func (f *fakeAttemptStore) LastAttemptNumber(studentID, assessmentID uint) (int, error) {
	last := 0
	for _, a := range f.attempts {
		if a.StudentID == studentID && a.AssessmentID == assessmentID && a.AttemptNumber > last {
			last = a.AttemptNumber
		}
	}
	return last, nil
}

func (f *fakeAttemptStore) CreateAttempt(a *model.StudentAttempt) error {
	f.nextID++
	a.ID = f.nextID
	stored := *a
	f.attempts = append(f.attempts, &stored)
	return nil
}

func (f *fakeAttemptStore) FinalizeScore(attemptID uint, score int) error {
	for _, a := range f.attempts {
		if a.ID == attemptID {
			s := score
			a.Score = &s
			return nil
		}
	}
	return util.ErrNotFound
}

func (f *fakeAttemptStore) SaveAnswerDetail(d *model.StudentAnswerDetail) error {
	f.singles = append(f.singles, d)
	return nil
}

func (f *fakeAttemptStore) SaveAnswersDetail(d *model.StudentAnswersDetail) error {
	f.multis = append(f.multis, d)
	return nil
}

func (f *fakeAttemptStore) SaveMatchingDetail(d *model.StudentMatchingDetail) error {
	f.matchings = append(f.matchings, d)
	return nil
}

func (f *fakeAttemptStore) RecordLessonResult(studentID, lessonID uint, score int) error {
	f.lessonScores[lessonID] = score
	f.lessonTries[lessonID]++
	return nil
}

func (f *fakeAttemptStore) Attempts(studentID, assessmentID uint) ([]model.StudentAttempt, error) {
	var out []model.StudentAttempt
	for _, a := range f.attempts {
		if a.StudentID == studentID && a.AssessmentID == assessmentID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAttemptStore) AttemptByID(id uint) (*model.StudentAttempt, error) {
	for _, a := range f.attempts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, util.ErrNotFound
}

func (f *fakeAttemptStore) Details(attemptID uint) ([]model.AttemptQuestionDetail, error) {
	var out []model.AttemptQuestionDetail
	for _, d := range f.singles {
		if d.AttemptID == attemptID {
			id := d.AnswerID
			out = append(out, model.AttemptQuestionDetail{QuestionID: d.QuestionID, Score: d.Score, AnswerID: &id})
		}
	}
	for _, d := range f.multis {
		if d.AttemptID == attemptID {
			out = append(out, model.AttemptQuestionDetail{QuestionID: d.QuestionID, Score: d.Score, AnswerIDs: d.AnswerIDs})
		}
	}
	for _, d := range f.matchings {
		if d.AttemptID == attemptID {
			out = append(out, model.AttemptQuestionDetail{QuestionID: d.QuestionID, Score: d.Score, Pairs: d.Pairs})
		}
	}
	return out, nil
}

// 回滚语义：fn 失败时丢弃本次产生的全部写入
func (f *fakeAttemptStore) InTx(fn func(repository.AttemptStore) error) error {
	snapshot := *f
	snapAttempts := append([]*model.StudentAttempt(nil), f.attempts...)
	if err := fn(f); err != nil {
		*f = snapshot
		f.attempts = snapAttempts
		return err
	}
	return nil
}

/* ---------------- tests ---------------- */

func newAttemptFixture(t *testing.T, attemptLimit int) (*service.AttemptService, *fakeAttemptStore, *fakeQuestionSource) {
	t.Helper()
	src := newFakeQuestionSource()
	src.addOwnedQuestion(1, model.KindTest, 7, model.QuestionBoolean, 40)
	src.addCorrectAnswer(1, 10)
	src.addOwnedQuestion(2, model.KindTest, 7, model.QuestionMultipleChoice, 60)
	src.addCorrectAnswer(2, 20)
	src.addCorrectAnswer(2, 21)

	testStore := newFakeAttemptStore(model.KindTest)
	testStore.addAssessment(7, 100, attemptLimit)
	examStore := newFakeAttemptStore(model.KindExam)

	svc := service.NewAttemptService(testStore, examStore, service.NewGradingService(src))
	return svc, testStore, src
}

func submitAll() []service.SubmittedAnswer {
	return []service.SubmittedAnswer{
		{QuestionID: 1, AnswerID: 10},
		{QuestionID: 2, AnswerIDs: []uint{20, 21}},
	}
}

func TestSubmitAttemptGradesAndNumbers(t *testing.T) {
	svc, store, _ := newAttemptFixture(t, 10)

	attempt, err := svc.SubmitAttempt(1, model.KindTest, 100, submitAll())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt.AttemptNumber != 1 {
		t.Errorf("first attempt number: got %d, want 1", attempt.AttemptNumber)
	}
	if attempt.Score == nil || *attempt.Score != 100 {
		t.Errorf("score: got %v, want 100", attempt.Score)
	}

	second, err := svc.SubmitAttempt(1, model.KindTest, 100, submitAll())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.AttemptNumber != 2 {
		t.Errorf("second attempt number: got %d, want 2", second.AttemptNumber)
	}

	if len(store.singles) != 2 || len(store.multis) != 2 {
		t.Errorf("details: got %d single, %d multi, want 2 each", len(store.singles), len(store.multis))
	}
	if store.lessonScores[100] != 100 {
		t.Errorf("lesson score: got %d, want 100", store.lessonScores[100])
	}
	if store.lessonTries[100] != 2 {
		t.Errorf("lesson attempt count: got %d, want 2", store.lessonTries[100])
	}
}

func TestSubmitAttemptRejectsBeyondLimit(t *testing.T) {
	svc, store, _ := newAttemptFixture(t, 2)

	for i := 0; i < 2; i++ {
		if _, err := svc.SubmitAttempt(1, model.KindTest, 100, submitAll()); err != nil {
			t.Fatalf("attempt %d: unexpected error: %v", i+1, err)
		}
	}

	_, err := svc.SubmitAttempt(1, model.KindTest, 100, submitAll())
	if !errors.Is(err, util.ErrMaxAttemptExceeded) {
		t.Fatalf("got %v, want ErrMaxAttemptExceeded", err)
	}
	// 拒绝发生在任何写入之前
	if len(store.attempts) != 2 {
		t.Errorf("attempt rows after rejection: got %d, want 2", len(store.attempts))
	}
	if store.lessonTries[100] != 2 {
		t.Errorf("lesson attempt count after rejection: got %d, want 2", store.lessonTries[100])
	}
}

// 作答中的评分前提被破坏时整次提交回滚，不留下半成品记录
func TestSubmitAttemptRollsBackOnGradingError(t *testing.T) {
	svc, store, src := newAttemptFixture(t, 10)
	src.addOwnedQuestion(3, model.KindTest, 7, model.QuestionMultipleChoice, 10) // 没有正确选项

	answers := append(submitAll(), service.SubmittedAnswer{QuestionID: 3, AnswerIDs: []uint{1}})
	_, err := svc.SubmitAttempt(1, model.KindTest, 100, answers)
	if !errors.Is(err, util.ErrDataIntegrity) {
		t.Fatalf("got %v, want ErrDataIntegrity", err)
	}
	if len(store.attempts) != 0 {
		t.Errorf("attempt rows after rollback: got %d, want 0", len(store.attempts))
	}
}

// 提交只接受本测评自己的可见题目，其它题目不得计入得分
func TestSubmitAttemptRejectsForeignQuestions(t *testing.T) {
	cases := []struct {
		name  string
		setup func(src *fakeQuestionSource)
	}{
		{"question of another assessment", func(src *fakeQuestionSource) {
			src.addOwnedQuestion(3, model.KindTest, 8, model.QuestionBoolean, 80)
			src.addCorrectAnswer(3, 30)
		}},
		{"question of another kind", func(src *fakeQuestionSource) {
			src.addOwnedQuestion(3, model.KindExam, 7, model.QuestionBoolean, 80)
			src.addCorrectAnswer(3, 30)
		}},
		{"hidden question", func(src *fakeQuestionSource) {
			q := src.addOwnedQuestion(3, model.KindTest, 7, model.QuestionBoolean, 80)
			q.Hidden = true
			src.addCorrectAnswer(3, 30)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, src := newAttemptFixture(t, 10)
			tc.setup(src)

			answers := append(submitAll(), service.SubmittedAnswer{QuestionID: 3, AnswerID: 30})
			_, err := svc.SubmitAttempt(1, model.KindTest, 100, answers)
			if !errors.Is(err, util.ErrNotFound) {
				t.Fatalf("got %v, want ErrNotFound", err)
			}
			if len(store.attempts) != 0 {
				t.Errorf("attempt rows after rejection: got %d, want 0", len(store.attempts))
			}
			if store.lessonTries[100] != 0 {
				t.Errorf("lesson attempt count after rejection: got %d, want 0", store.lessonTries[100])
			}
		})
	}
}

func TestSubmitAttemptUnknownLesson(t *testing.T) {
	svc, _, _ := newAttemptFixture(t, 10)
	if _, err := svc.SubmitAttempt(1, model.KindTest, 999, submitAll()); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestAttemptLimitDefaultsWhenUnset(t *testing.T) {
	svc, store, _ := newAttemptFixture(t, 0)

	for i := 0; i < model.DefaultAttemptLimit; i++ {
		if _, err := svc.SubmitAttempt(1, model.KindTest, 100, submitAll()); err != nil {
			t.Fatalf("attempt %d: unexpected error: %v", i+1, err)
		}
	}
	if _, err := svc.SubmitAttempt(1, model.KindTest, 100, submitAll()); !errors.Is(err, util.ErrMaxAttemptExceeded) {
		t.Fatalf("got %v, want ErrMaxAttemptExceeded", err)
	}
	if len(store.attempts) != model.DefaultAttemptLimit {
		t.Errorf("attempt rows: got %d, want %d", len(store.attempts), model.DefaultAttemptLimit)
	}
}

func TestAttemptDetailOwnership(t *testing.T) {
	svc, _, _ := newAttemptFixture(t, 10)

	attempt, err := svc.SubmitAttempt(1, model.KindTest, 100, submitAll())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.AttemptDetail(2, model.KindTest, attempt.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("foreign student: got %v, want ErrPermissionDenied", err)
	}

	details, err := svc.AttemptDetail(1, model.KindTest, attempt.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(details) != 2 {
		t.Errorf("details: got %d, want 2", len(details))
	}
}

func TestAttemptHistoryOrdering(t *testing.T) {
	svc, _, _ := newAttemptFixture(t, 10)

	for i := 0; i < 3; i++ {
		if _, err := svc.SubmitAttempt(1, model.KindTest, 100, submitAll()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	history, err := svc.AttemptHistory(1, model.KindTest, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length: got %d, want 3", len(history))
	}
	for i, a := range history {
		if a.AttemptNumber != i+1 {
			t.Errorf("attempt %d: number %d, want %d", i, a.AttemptNumber, i+1)
		}
	}
}
