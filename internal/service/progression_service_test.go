package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"edu_platform_backend/internal/model"
	"edu_platform_backend/internal/repository"
	"edu_platform_backend/internal/service"
	"edu_platform_backend/internal/util"
)

/* ---------------- fakes: LessonStateStore + TaskEnqueuer ---------------- */

type fakeLessonStore struct {
	lessons map[uint]*model.Lesson        // lesson id -> lesson
	rows    map[uint]*model.StudentLesson // lesson id -> row (single student)
	nextID  uint
}

func newFakeLessonStore() *fakeLessonStore {
	return &fakeLessonStore{
		lessons: map[uint]*model.Lesson{},
		rows:    map[uint]*model.StudentLesson{},
	}
}

func (f *fakeLessonStore) addLesson(id uint, courseID uint, number int, kind model.LessonKind) {
	l := &model.Lesson{CourseID: courseID, Number: number, Kind: kind}
	l.ID = id
	f.lessons[id] = l
}

func (f *fakeLessonStore) addRow(lessonID uint, status model.StudentLessonStatus) {
	f.nextID++
	row := &model.StudentLesson{StudentID: 1, LessonID: lessonID, Status: status}
	row.ID = f.nextID
	f.rows[lessonID] = row
}

func (f *fakeLessonStore) status(t *testing.T, lessonID uint) model.StudentLessonStatus {
	t.Helper()
	row, ok := f.rows[lessonID]
	if !ok {
		t.Fatalf("no student lesson row for lesson %d", lessonID)
	}
	return row.Status
}

func (f *fakeLessonStore) LessonByID(id uint) (*model.Lesson, error) {
	l, ok := f.lessons[id]
	if !ok {
		return nil, util.ErrNotFound
	}
	return l, nil
}

func (f *fakeLessonStore) CourseLessons(courseID uint) ([]model.Lesson, error) {
	var out []model.Lesson
	for _, l := range f.lessons {
		if l.CourseID == courseID {
			out = append(out, *l)
		}
	}
	// 按 number 升序，与仓库查询语义一致
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Number < out[i].Number {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeLessonStore) StudentLesson(studentID, lessonID uint) (*model.StudentLesson, error) {
	row, ok := f.rows[lessonID]
	if !ok {
		return nil, util.ErrDataIntegrity
	}
	return row, nil
}

func (f *fakeLessonStore) StudentLessons(studentID uint, lessonIDs []uint) ([]model.StudentLesson, error) {
	var out []model.StudentLesson
	for _, id := range lessonIDs {
		if row, ok := f.rows[id]; ok {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeLessonStore) CreateStudentLesson(sl *model.StudentLesson) error {
	f.nextID++
	sl.ID = f.nextID
	stored := *sl
	f.rows[sl.LessonID] = &stored
	return nil
}

func (f *fakeLessonStore) UpdateStatus(studentID, lessonID uint, status model.StudentLessonStatus) error {
	row, ok := f.rows[lessonID]
	if !ok {
		return nil
	}
	row.Status = status
	return nil
}

func (f *fakeLessonStore) InTx(fn func(repository.LessonStateStore) error) error {
	return fn(f)
}

type fakeQueue struct {
	enqueued []struct {
		name    string
		payload interface{}
	}
	err error
}

func (q *fakeQueue) Enqueue(_ context.Context, name string, payload interface{}) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, struct {
		name    string
		payload interface{}
	}{name, payload})
	return nil
}

/* ---------------- trigger (a): sequential advance ---------------- */

// 课程 [讲义#1, 讲义#2, 测试#3, 讲义#4]：完成 #1 后
// #2 解锁为 active，扫描在测试 #3 处停住，#3/#4 保持 blocked
func TestAdvanceHaltsAtGateLesson(t *testing.T) {
	store := newFakeLessonStore()
	store.addLesson(1, 5, 1, model.LessonLecture)
	store.addLesson(2, 5, 2, model.LessonLecture)
	store.addLesson(3, 5, 3, model.LessonTest)
	store.addLesson(4, 5, 4, model.LessonLecture)
	store.addRow(1, model.LessonStatusActive)
	store.addRow(2, model.LessonStatusBlocked)
	store.addRow(3, model.LessonStatusBlocked)
	store.addRow(4, model.LessonStatusBlocked)

	queue := &fakeQueue{}
	svc := service.NewProgressionService(store, queue)

	if err := svc.ConfirmLessonCompletion(context.Background(), 1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.status(t, 1); got != model.LessonStatusCompleted {
		t.Errorf("lesson 1: got %s, want completed", got)
	}
	if got := store.status(t, 2); got != model.LessonStatusActive {
		t.Errorf("lesson 2: got %s, want active", got)
	}
	if got := store.status(t, 3); got != model.LessonStatusBlocked {
		t.Errorf("lesson 3: got %s, want blocked (untouched)", got)
	}
	if got := store.status(t, 4); got != model.LessonStatusBlocked {
		t.Errorf("lesson 4: got %s, want blocked (untouched)", got)
	}

	if len(queue.enqueued) != 1 || queue.enqueued[0].name != service.TaskLessonCompleted {
		t.Errorf("enqueued tasks: got %v", queue.enqueued)
	}
}

// 连续讲义在一次扫描里全部解锁：第一节 active，其后的讲义 available
func TestAdvanceUnlocksConsecutiveLectures(t *testing.T) {
	store := newFakeLessonStore()
	store.addLesson(1, 5, 1, model.LessonLecture)
	store.addLesson(2, 5, 2, model.LessonLecture)
	store.addLesson(3, 5, 3, model.LessonLecture)
	store.addLesson(4, 5, 4, model.LessonExam)
	store.addRow(1, model.LessonStatusActive)
	store.addRow(2, model.LessonStatusBlocked)
	store.addRow(3, model.LessonStatusBlocked)
	store.addRow(4, model.LessonStatusBlocked)

	svc := service.NewProgressionService(store, &fakeQueue{})
	if err := svc.ConfirmLessonCompletion(context.Background(), 1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.status(t, 2); got != model.LessonStatusActive {
		t.Errorf("lesson 2: got %s, want active", got)
	}
	if got := store.status(t, 3); got != model.LessonStatusAvailable {
		t.Errorf("lesson 3: got %s, want available", got)
	}
	if got := store.status(t, 4); got != model.LessonStatusBlocked {
		t.Errorf("lesson 4 (exam): got %s, want blocked", got)
	}
}

// 完成测试节后，紧随其后的课节即便是考试也先置为 active
func TestAdvanceActivatesGateAsFirstFollower(t *testing.T) {
	store := newFakeLessonStore()
	store.addLesson(1, 5, 1, model.LessonTest)
	store.addLesson(2, 5, 2, model.LessonExam)
	store.addLesson(3, 5, 3, model.LessonLecture)
	store.addRow(1, model.LessonStatusActive)
	store.addRow(2, model.LessonStatusBlocked)
	store.addRow(3, model.LessonStatusBlocked)

	svc := service.NewProgressionService(store, &fakeQueue{})
	if err := svc.ConfirmLessonCompletion(context.Background(), 1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.status(t, 2); got != model.LessonStatusActive {
		t.Errorf("lesson 2 (exam): got %s, want active", got)
	}
	if got := store.status(t, 3); got != model.LessonStatusBlocked {
		t.Errorf("lesson 3: got %s, want blocked (beyond gate)", got)
	}
}

func TestConfirmBlockedLessonRejected(t *testing.T) {
	store := newFakeLessonStore()
	store.addLesson(1, 5, 1, model.LessonLecture)
	store.addRow(1, model.LessonStatusBlocked)

	svc := service.NewProgressionService(store, &fakeQueue{})
	err := svc.ConfirmLessonCompletion(context.Background(), 1, 1)
	if !errors.Is(err, util.ErrLessonNotActive) {
		t.Fatalf("got %v, want ErrLessonNotActive", err)
	}
}

// 已完成是终态：重复确认必须被拒绝，否则后续课节会被打回 active，
// 聚合任务也会重复投递导致成绩重复累加
func TestConfirmCompletedLessonRejected(t *testing.T) {
	store := newFakeLessonStore()
	store.addLesson(1, 5, 1, model.LessonLecture)
	store.addLesson(2, 5, 2, model.LessonLecture)
	store.addLesson(3, 5, 3, model.LessonTest)
	store.addRow(1, model.LessonStatusCompleted)
	store.addRow(2, model.LessonStatusCompleted)
	store.addRow(3, model.LessonStatusBlocked)

	queue := &fakeQueue{}
	svc := service.NewProgressionService(store, queue)
	err := svc.ConfirmLessonCompletion(context.Background(), 1, 1)
	if !errors.Is(err, util.ErrLessonNotActive) {
		t.Fatalf("got %v, want ErrLessonNotActive", err)
	}
	if got := store.status(t, 2); got != model.LessonStatusCompleted {
		t.Errorf("lesson 2: got %q, want completed to stay terminal", got)
	}
	if len(queue.enqueued) != 0 {
		t.Errorf("tasks enqueued on rejected re-completion: got %d, want 0", len(queue.enqueued))
	}
}

// 选课数据缺行时扫描必须报数据完整性错误，而不是跳过
func TestAdvanceMissingRowFailsLoudly(t *testing.T) {
	store := newFakeLessonStore()
	store.addLesson(1, 5, 1, model.LessonLecture)
	store.addLesson(2, 5, 2, model.LessonLecture)
	store.addRow(1, model.LessonStatusActive)
	// lesson 2 没有学生课节行

	svc := service.NewProgressionService(store, &fakeQueue{})
	err := svc.ConfirmLessonCompletion(context.Background(), 1, 1)
	if !errors.Is(err, util.ErrDataIntegrity) {
		t.Fatalf("got %v, want ErrDataIntegrity", err)
	}
}

/* ---------------- trigger (b): lesson insertion ---------------- */

// 前节已完成时插入测试：新节 active，其后全部强制 blocked
func TestInsertTestAfterCompleted(t *testing.T) {
	store := newFakeLessonStore()
	store.addLesson(1, 5, 1, model.LessonLecture)
	store.addLesson(3, 5, 3, model.LessonLecture)
	store.addRow(1, model.LessonStatusCompleted)
	store.addRow(3, model.LessonStatusAvailable)

	inserted := &model.Lesson{CourseID: 5, Number: 2, Kind: model.LessonTest}
	inserted.ID = 2
	store.lessons[2] = inserted

	svc := service.NewProgressionService(store, &fakeQueue{})
	if err := svc.PlaceInsertedLesson(store, 1, inserted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.status(t, 2); got != model.LessonStatusActive {
		t.Errorf("inserted test: got %s, want active", got)
	}
	if got := store.status(t, 3); got != model.LessonStatusBlocked {
		t.Errorf("lesson after inserted test: got %s, want blocked", got)
	}
}

// 前节尚未完成（active/available）时插入测试：新节与其后全部 blocked
func TestInsertTestAfterActive(t *testing.T) {
	store := newFakeLessonStore()
	store.addLesson(1, 5, 1, model.LessonLecture)
	store.addLesson(3, 5, 3, model.LessonLecture)
	store.addRow(1, model.LessonStatusActive)
	store.addRow(3, model.LessonStatusAvailable)

	inserted := &model.Lesson{CourseID: 5, Number: 2, Kind: model.LessonTest}
	inserted.ID = 2
	store.lessons[2] = inserted

	svc := service.NewProgressionService(store, &fakeQueue{})
	if err := svc.PlaceInsertedLesson(store, 1, inserted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.status(t, 2); got != model.LessonStatusBlocked {
		t.Errorf("inserted test: got %s, want blocked", got)
	}
	if got := store.status(t, 3); got != model.LessonStatusBlocked {
		t.Errorf("lesson after inserted test: got %s, want blocked", got)
	}
}

// 前节 blocked 时插入测试：新节 blocked，其后保持原状
func TestInsertTestAfterBlockedLeavesRestUntouched(t *testing.T) {
	store := newFakeLessonStore()
	store.addLesson(1, 5, 1, model.LessonLecture)
	store.addLesson(3, 5, 3, model.LessonLecture)
	store.addRow(1, model.LessonStatusBlocked)
	store.addRow(3, model.LessonStatusAvailable)

	inserted := &model.Lesson{CourseID: 5, Number: 2, Kind: model.LessonTest}
	inserted.ID = 2
	store.lessons[2] = inserted

	svc := service.NewProgressionService(store, &fakeQueue{})
	if err := svc.PlaceInsertedLesson(store, 1, inserted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.status(t, 2); got != model.LessonStatusBlocked {
		t.Errorf("inserted test: got %s, want blocked", got)
	}
	if got := store.status(t, 3); got != model.LessonStatusAvailable {
		t.Errorf("lesson after inserted test: got %s, want available (untouched)", got)
	}
}

// 前节已完成时插入讲义：新节 active，紧随的下一节按类型得到 blocked/available
func TestInsertLectureAfterCompleted(t *testing.T) {
	cases := []struct {
		name     string
		nextKind model.LessonKind
		want     model.StudentLessonStatus
	}{
		{"next is test", model.LessonTest, model.LessonStatusBlocked},
		{"next is lecture", model.LessonLecture, model.LessonStatusAvailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeLessonStore()
			store.addLesson(1, 5, 1, model.LessonLecture)
			store.addLesson(3, 5, 3, tc.nextKind)
			store.addRow(1, model.LessonStatusCompleted)
			store.addRow(3, model.LessonStatusBlocked)

			inserted := &model.Lesson{CourseID: 5, Number: 2, Kind: model.LessonLecture}
			inserted.ID = 2
			store.lessons[2] = inserted

			svc := service.NewProgressionService(store, &fakeQueue{})
			if err := svc.PlaceInsertedLesson(store, 1, inserted); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := store.status(t, 2); got != model.LessonStatusActive {
				t.Errorf("inserted lecture: got %s, want active", got)
			}
			if got := store.status(t, 3); got != tc.want {
				t.Errorf("next lesson: got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestInsertLectureStatusByPredecessor(t *testing.T) {
	cases := []struct {
		name       string
		prevKind   model.LessonKind
		prevStatus model.StudentLessonStatus
		want       model.StudentLessonStatus
	}{
		{"after active lecture", model.LessonLecture, model.LessonStatusActive, model.LessonStatusAvailable},
		{"after available lecture", model.LessonLecture, model.LessonStatusAvailable, model.LessonStatusAvailable},
		{"after active test", model.LessonTest, model.LessonStatusActive, model.LessonStatusBlocked},
		{"after blocked", model.LessonLecture, model.LessonStatusBlocked, model.LessonStatusBlocked},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeLessonStore()
			store.addLesson(1, 5, 1, tc.prevKind)
			store.addRow(1, tc.prevStatus)

			inserted := &model.Lesson{CourseID: 5, Number: 2, Kind: model.LessonLecture}
			inserted.ID = 2
			store.lessons[2] = inserted

			svc := service.NewProgressionService(store, &fakeQueue{})
			if err := svc.PlaceInsertedLesson(store, 1, inserted); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := store.status(t, 2); got != tc.want {
				t.Errorf("inserted lecture: got %s, want %s", got, tc.want)
			}
		})
	}
}

// 插到队首视同前节已完成
func TestInsertAtHeadTreatedAsAfterCompleted(t *testing.T) {
	store := newFakeLessonStore()
	store.addLesson(2, 5, 2, model.LessonLecture)
	store.addRow(2, model.LessonStatusActive)

	inserted := &model.Lesson{CourseID: 5, Number: 1, Kind: model.LessonLecture}
	inserted.ID = 1
	store.lessons[1] = inserted

	svc := service.NewProgressionService(store, &fakeQueue{})
	if err := svc.PlaceInsertedLesson(store, 1, inserted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.status(t, 1); got != model.LessonStatusActive {
		t.Errorf("inserted head lecture: got %s, want active", got)
	}
}

// 任务载荷可被聚合端解码
func TestLessonCompletedPayloadRoundTrip(t *testing.T) {
	store := newFakeLessonStore()
	store.addLesson(1, 5, 1, model.LessonLecture)
	store.addRow(1, model.LessonStatusActive)

	queue := &fakeQueue{}
	svc := service.NewProgressionService(store, queue)
	if err := svc.ConfirmLessonCompletion(context.Background(), 1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := json.Marshal(queue.enqueued[0].payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var p service.LessonCompletedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if p.StudentID != 1 || p.LessonID != 1 {
		t.Errorf("payload: got %+v", p)
	}
}
