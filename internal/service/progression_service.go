package service

import (
	"context"
	"fmt"

	"edu_platform_backend/internal/model"
	"edu_platform_backend/internal/repository"
	"edu_platform_backend/internal/util"
	"edu_platform_backend/pkg/logger"

	"go.uber.org/zap"
)

// ProgressionService 学生课节状态机。
// 讲义完成后自动向前解锁，测试/考试是关卡，
// 关卡之后的课节只能由关卡自己的完成事件解锁，不随讲义级联
type ProgressionService struct {
	Lessons repository.LessonStateStore
	Queue   TaskEnqueuer
}

func NewProgressionService(lessons repository.LessonStateStore, queue TaskEnqueuer) *ProgressionService {
	return &ProgressionService{Lessons: lessons, Queue: queue}
}

// ConfirmLessonCompletion 把课节标记为已完成并解锁后续课节，
// 状态更新在一个事务内完成；随后投递聚合任务重新计算进度与成绩
func (s *ProgressionService) ConfirmLessonCompletion(ctx context.Context, studentID, lessonID uint) error {
	lesson, err := s.Lessons.LessonByID(lessonID)
	if err != nil {
		return err
	}

	err = s.Lessons.InTx(func(tx repository.LessonStateStore) error {
		current, err := tx.StudentLesson(studentID, lessonID)
		if err != nil {
			return err
		}
		switch current.Status {
		case model.LessonStatusBlocked, model.LessonStatusNew:
			return util.ErrLessonNotActive
		case model.LessonStatusCompleted:
			// 已完成是终态，重复确认会把后续课节打回 active 并重复计分
			return util.ErrLessonNotActive
		}
		if err := tx.UpdateStatus(studentID, lessonID, model.LessonStatusCompleted); err != nil {
			return err
		}
		return s.advanceAfterCompletion(tx, studentID, lesson)
	})
	if err != nil {
		return err
	}

	if err := s.Queue.Enqueue(ctx, TaskLessonCompleted, LessonCompletedPayload{
		StudentID: studentID,
		LessonID:  lessonID,
	}); err != nil {
		// 状态已提交，聚合任务投递失败只记日志，进度可由下一次完成事件补算
		logger.Log.Error("课节完成任务投递失败",
			zap.Uint("student_id", studentID),
			zap.Uint("lesson_id", lessonID),
			zap.Error(err))
	}
	return nil
}

// advanceAfterCompletion 从刚完成课节的下一节起扫描：
// 第一节置为 active，其后的讲义依次置为 available，
// 扫描遇到测试/考试即停止，该关卡与其后课节保持原状
func (s *ProgressionService) advanceAfterCompletion(tx repository.LessonStateStore, studentID uint, completed *model.Lesson) error {
	lessons, err := tx.CourseLessons(completed.CourseID)
	if err != nil {
		return err
	}

	var following []model.Lesson
	for _, l := range lessons {
		if l.Number > completed.Number {
			following = append(following, l)
		}
	}
	if len(following) == 0 {
		return nil
	}

	if _, err := s.requireRows(tx, studentID, following); err != nil {
		return err
	}

	for i, l := range following {
		if i == 0 {
			if err := tx.UpdateStatus(studentID, l.ID, model.LessonStatusActive); err != nil {
				return err
			}
			if l.Kind != model.LessonLecture {
				break
			}
			continue
		}
		if l.Kind != model.LessonLecture {
			break
		}
		if err := tx.UpdateStatus(studentID, l.ID, model.LessonStatusAvailable); err != nil {
			return err
		}
	}
	return nil
}

// PlaceInsertedLesson 为已选课学生计算新插入课节的初始状态。
// 规则依赖前一节（number-1）的学生状态与课节类型；
// 新节为测试/考试时可能把其后全部课节强制 blocked。
// 事务由调用方（课程重排）持有，store 传入的是事务内句柄
func (s *ProgressionService) PlaceInsertedLesson(tx repository.LessonStateStore, studentID uint, inserted *model.Lesson) error {
	lessons, err := tx.CourseLessons(inserted.CourseID)
	if err != nil {
		return err
	}

	var preceding *model.Lesson
	var after []model.Lesson
	for i := range lessons {
		switch {
		case lessons[i].Number == inserted.Number-1:
			preceding = &lessons[i]
		case lessons[i].Number > inserted.Number:
			after = append(after, lessons[i])
		}
	}

	// 插到队首视同前节已完成：学生可以立即开始
	prevStatus := model.LessonStatusCompleted
	prevKind := model.LessonLecture
	if preceding != nil {
		prev, err := tx.StudentLesson(studentID, preceding.ID)
		if err != nil {
			return fmt.Errorf("student %d lesson %d: %w", studentID, preceding.ID, err)
		}
		prevStatus = prev.Status
		prevKind = preceding.Kind
	}

	if inserted.Kind != model.LessonLecture {
		return s.placeInsertedGate(tx, studentID, inserted, prevStatus, after)
	}
	return s.placeInsertedLecture(tx, studentID, inserted, prevStatus, prevKind, after)
}

func (s *ProgressionService) placeInsertedGate(tx repository.LessonStateStore, studentID uint, inserted *model.Lesson, prevStatus model.StudentLessonStatus, after []model.Lesson) error {
	status := model.LessonStatusBlocked
	blockAfter := false
	switch prevStatus {
	case model.LessonStatusCompleted:
		status = model.LessonStatusActive
		blockAfter = true
	case model.LessonStatusAvailable, model.LessonStatusActive:
		blockAfter = true
	}

	if err := tx.CreateStudentLesson(&model.StudentLesson{
		StudentID: studentID,
		LessonID:  inserted.ID,
		Status:    status,
	}); err != nil {
		return err
	}
	if !blockAfter {
		return nil
	}

	if _, err := s.requireRows(tx, studentID, after); err != nil {
		return err
	}
	for _, l := range after {
		if err := tx.UpdateStatus(studentID, l.ID, model.LessonStatusBlocked); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProgressionService) placeInsertedLecture(tx repository.LessonStateStore, studentID uint, inserted *model.Lesson, prevStatus model.StudentLessonStatus, prevKind model.LessonKind, after []model.Lesson) error {
	status := model.LessonStatusBlocked
	switch {
	case prevStatus == model.LessonStatusCompleted:
		status = model.LessonStatusActive
	case prevStatus == model.LessonStatusActive && prevKind == model.LessonLecture,
		prevStatus == model.LessonStatusAvailable:
		status = model.LessonStatusAvailable
	}

	if err := tx.CreateStudentLesson(&model.StudentLesson{
		StudentID: studentID,
		LessonID:  inserted.ID,
		Status:    status,
	}); err != nil {
		return err
	}

	// 前节已完成时只影响紧随新节的那一节
	if prevStatus == model.LessonStatusCompleted && len(after) > 0 {
		next := after[0]
		if next.Number == inserted.Number+1 {
			if _, err := s.requireRows(tx, studentID, after[:1]); err != nil {
				return err
			}
			nextStatus := model.LessonStatusAvailable
			if next.Kind != model.LessonLecture {
				nextStatus = model.LessonStatusBlocked
			}
			if err := tx.UpdateStatus(studentID, next.ID, nextStatus); err != nil {
				return err
			}
		}
	}
	return nil
}

// requireRows 批量确认学生课节记录存在，缺行说明选课数据被破坏
func (s *ProgressionService) requireRows(tx repository.LessonStateStore, studentID uint, lessons []model.Lesson) (map[uint]model.StudentLesson, error) {
	if len(lessons) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0, len(lessons))
	for _, l := range lessons {
		ids = append(ids, l.ID)
	}
	rows, err := tx.StudentLessons(studentID, ids)
	if err != nil {
		return nil, err
	}
	byLesson := make(map[uint]model.StudentLesson, len(rows))
	for _, r := range rows {
		byLesson[r.LessonID] = r
	}
	for _, id := range ids {
		if _, ok := byLesson[id]; !ok {
			return nil, fmt.Errorf("student %d missing lesson row %d: %w", studentID, id, util.ErrDataIntegrity)
		}
	}
	return byLesson, nil
}

// StudentLessonStates 学生在课程内全部课节的状态视图，按 number 升序
func (s *ProgressionService) StudentLessonStates(studentID, courseID uint) ([]LessonState, error) {
	lessons, err := s.Lessons.CourseLessons(courseID)
	if err != nil {
		return nil, err
	}
	rows, err := s.requireRows(s.Lessons, studentID, lessons)
	if err != nil {
		return nil, err
	}

	states := make([]LessonState, 0, len(lessons))
	for _, l := range lessons {
		r := rows[l.ID]
		states = append(states, LessonState{
			LessonID: l.ID,
			Number:   l.Number,
			Kind:     l.Kind,
			Title:    l.Title,
			Status:   r.Status,
			Score:    r.Score,
			Attempt:  r.Attempt,
		})
	}
	return states, nil
}

// LessonState 课节状态视图
type LessonState struct {
	LessonID uint                      `json:"lessonId"`
	Number   int                       `json:"number"`
	Kind     model.LessonKind          `json:"kind"`
	Title    string                    `json:"title"`
	Status   model.StudentLessonStatus `json:"status"`
	Score    *int                      `json:"score"`
	Attempt  int                       `json:"attempt"`
}
