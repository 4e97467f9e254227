package service

import (
	"context"
	"encoding/json"
	"math"

	"edu_platform_backend/internal/model"
	"edu_platform_backend/internal/repository"
	"edu_platform_backend/pkg/logger"

	"go.uber.org/zap"
)

// CourseReader 聚合器读取课程结构用的只读入口
type CourseReader interface {
	FindCourseByID(id uint) (*model.Course, error)
	FindCategoryByID(id uint) (*model.Category, error)
	LectureByLessonID(lessonID uint) (*model.Lecture, error)
}

// CertificateIssuer 证书颁发，按 (学生, 课程/分类) 幂等
type CertificateIssuer interface {
	IssueCourseCertificate(ctx context.Context, studentID, courseID uint) error
	IssueCategoryCertificate(ctx context.Context, studentID, categoryID uint) error
}

// CompletionService 课程完成度聚合：进度百分比、累计成绩、
// 课程与分类完成判定及证书触发。由课节完成任务异步驱动
type CompletionService struct {
	Progress     repository.ProgressStore
	Lessons      repository.LessonStateStore
	Courses      CourseReader
	Certificates CertificateIssuer
}

func NewCompletionService(progress repository.ProgressStore, lessons repository.LessonStateStore, courses CourseReader, certs CertificateIssuer) *CompletionService {
	return &CompletionService{
		Progress:     progress,
		Lessons:      lessons,
		Courses:      courses,
		Certificates: certs,
	}
}

// HandleLessonCompleted 课节完成任务的处理器。
// 任务为至少一次投递，成绩累加以课节为单位最多生效一次的保证
// 由调用侧串行化（同一学生的完成确认不会并发重放）
func (s *CompletionService) HandleLessonCompleted(ctx context.Context, payload json.RawMessage) error {
	var p LessonCompletedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return err
	}
	return s.ApplyLessonCompletion(ctx, p.StudentID, p.LessonID)
}

// ApplyLessonCompletion 把一次课节完成计入课程成绩与进度，
// 课程全部完成时置完成态并触发课程/分类证书
func (s *CompletionService) ApplyLessonCompletion(ctx context.Context, studentID, lessonID uint) error {
	lesson, err := s.Lessons.LessonByID(lessonID)
	if err != nil {
		return err
	}
	course, err := s.Courses.FindCourseByID(lesson.CourseID)
	if err != nil {
		return err
	}

	delta, err := s.lessonGrade(studentID, lesson)
	if err != nil {
		return err
	}
	if delta > 0 {
		if err := s.Progress.AddGrade(studentID, course.ID, delta); err != nil {
			return err
		}
	}

	progress, completedAll, err := s.RecomputeProgress(studentID, course.ID)
	if err != nil {
		return err
	}
	logger.Log.Info("课程进度已更新",
		zap.Uint("student_id", studentID),
		zap.Uint("course_id", course.ID),
		zap.Int("progress", progress),
		zap.Int("grade_delta", delta))

	if !completedAll {
		return nil
	}

	if err := s.Progress.SetCompleted(studentID, course.ID); err != nil {
		return err
	}
	if err := s.Certificates.IssueCourseCertificate(ctx, studentID, course.ID); err != nil {
		return err
	}

	done, err := s.CheckCategoryCompletion(studentID, course.CategoryID)
	if err != nil {
		return err
	}
	if done {
		return s.Certificates.IssueCategoryCertificate(ctx, studentID, course.CategoryID)
	}
	return nil
}

// lessonGrade 本次完成计入课程成绩的分值：
// 讲义取其固定分值，测试/考试取学生课节上的最新得分
func (s *CompletionService) lessonGrade(studentID uint, lesson *model.Lesson) (int, error) {
	if lesson.Kind == model.LessonLecture {
		lecture, err := s.Courses.LectureByLessonID(lesson.ID)
		if err != nil {
			return 0, err
		}
		return lecture.Score, nil
	}
	row, err := s.Lessons.StudentLesson(studentID, lesson.ID)
	if err != nil {
		return 0, err
	}
	if row.Score == nil {
		return 0, nil
	}
	return *row.Score, nil
}

// RecomputeProgress 进度 = round(100 × 已完成课节数 / 课节总数)。
// 返回是否已全部完成
func (s *CompletionService) RecomputeProgress(studentID, courseID uint) (int, bool, error) {
	total, completed, err := s.Progress.LessonCounts(studentID, courseID)
	if err != nil {
		return 0, false, err
	}
	if total == 0 {
		return 0, false, nil
	}
	progress := int(math.Round(100 * float64(completed) / float64(total)))
	if err := s.Progress.UpdateProgress(studentID, courseID, progress); err != nil {
		return 0, false, err
	}
	return progress, completed == total, nil
}

// CheckCategoryCompletion 分类完成判定：
// 分类下每个已发布课程都在学生的已完成课程集合内（子集检查）
func (s *CompletionService) CheckCategoryCompletion(studentID, categoryID uint) (bool, error) {
	published, err := s.Progress.PublishedCourseIDs(categoryID)
	if err != nil {
		return false, err
	}
	if len(published) == 0 {
		return false, nil
	}
	completed, err := s.Progress.CompletedCourseIDs(studentID)
	if err != nil {
		return false, err
	}
	completedSet := make(map[uint]struct{}, len(completed))
	for _, id := range completed {
		completedSet[id] = struct{}{}
	}
	for _, id := range published {
		if _, ok := completedSet[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}
