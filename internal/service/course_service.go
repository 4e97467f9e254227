package service

import (
	"errors"
	"fmt"

	"edu_platform_backend/internal/model"
	"edu_platform_backend/internal/repository"
	"edu_platform_backend/internal/util"
	"edu_platform_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// courseTotalScore 课程满分，考试分值在发布时被压缩到不超过它
const courseTotalScore = 200

// CourseService 报名、课节插入与发布校验。
// 跨仓库的写操作持有 DB 句柄自开事务，事务内重建各仓库
type CourseService struct {
	DB          *gorm.DB
	Courses     *repository.CourseRepository
	Questions   *repository.QuestionRepository
	Progress    repository.ProgressStore
	Progression *ProgressionService
}

func NewCourseService(db *gorm.DB, courses *repository.CourseRepository, questions *repository.QuestionRepository, progress repository.ProgressStore, progression *ProgressionService) *CourseService {
	return &CourseService{DB: db, Courses: courses, Questions: questions, Progress: progress, Progression: progression}
}

// Enroll 学生报名：建立课程关联并为每一节建进度行，
// 第一节置 active，其余 blocked。重复报名返回冲突错误
func (s *CourseService) Enroll(studentID, courseID uint) error {
	course, err := s.Courses.FindCourseByID(courseID)
	if err != nil {
		return err
	}
	if !course.IsPublished {
		return util.ErrNotFound
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		progress := repository.NewStudentCourseRepository(tx)
		if _, err := progress.StudentCourse(studentID, courseID); err == nil {
			return util.ErrAlreadyEnrolled
		} else if !errors.Is(err, util.ErrNotFound) {
			return err
		}

		if err := progress.CreateStudentCourse(&model.StudentCourse{
			StudentID: studentID,
			CourseID:  courseID,
			Status:    model.CourseInProgress,
		}); err != nil {
			return err
		}

		lessons, err := repository.NewCourseRepository(tx).LessonsByCourse(courseID)
		if err != nil {
			return err
		}
		lessonStore := repository.NewStudentLessonRepository(tx)
		for i, l := range lessons {
			status := model.LessonStatusBlocked
			if i == 0 {
				status = model.LessonStatusActive
			}
			if err := lessonStore.CreateStudentLesson(&model.StudentLesson{
				StudentID: studentID,
				LessonID:  l.ID,
				Status:    status,
			}); err != nil {
				return err
			}
		}

		logger.Log.Info("学生报名课程",
			zap.Uint("student_id", studentID),
			zap.Uint("course_id", courseID),
			zap.Int("lessons", len(lessons)))
		return nil
	})
}

// LessonInput 教师插入课节的参数
type LessonInput struct {
	Number int              `json:"number" binding:"required,min=1"`
	Kind   model.LessonKind `json:"kind" binding:"required,oneof=lecture test exam"`
	Title  string           `json:"title" binding:"required"`
}

// InsertLesson 在指定位置插入课节：原有节号整体后移，
// 再为每个已报名学生计算新节的初始状态。全部在一个事务内
func (s *CourseService) InsertLesson(courseID uint, in LessonInput) (*model.Lesson, error) {
	if _, err := s.Courses.FindCourseByID(courseID); err != nil {
		return nil, err
	}

	var created *model.Lesson
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		courses := repository.NewCourseRepository(tx)
		if err := courses.ShiftLessonNumbers(courseID, in.Number); err != nil {
			return err
		}

		lesson := &model.Lesson{
			CourseID: courseID,
			Number:   in.Number,
			Kind:     in.Kind,
			Title:    in.Title,
		}
		if err := courses.CreateLesson(lesson); err != nil {
			return err
		}

		students, err := courses.EnrolledStudentIDs(courseID)
		if err != nil {
			return err
		}
		lessonStore := repository.NewStudentLessonRepository(tx)
		for _, studentID := range students {
			if err := s.Progression.PlaceInsertedLesson(lessonStore, studentID, lesson); err != nil {
				return err
			}
		}

		created = lesson
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("课节已插入",
		zap.Uint("course_id", courseID),
		zap.Uint("lesson_id", created.ID),
		zap.Int("number", created.Number),
		zap.String("kind", string(created.Kind)))
	return created, nil
}

// Publish 发布课程前校验分值结构：
// 每个测试的题目分值之和必须等于测试总分；
// 每个考试与全部测试的分值之和必须凑满课程满分，
// 考试题目分值溢出时把考试总分压到满分差额并告警
func (s *CourseService) Publish(courseID uint) error {
	if _, err := s.Courses.FindCourseByID(courseID); err != nil {
		return err
	}

	tests, err := s.Courses.TestsByCourse(courseID)
	if err != nil {
		return err
	}
	testTotal := 0
	for _, t := range tests {
		sum, err := s.Questions.SumQuestionScores(model.KindTest, t.ID)
		if err != nil {
			return err
		}
		if sum != t.Score {
			return fmt.Errorf("test %d: questions sum to %d, expected %d: %w", t.ID, sum, t.Score, util.ErrScoreSumMismatch)
		}
		testTotal += t.Score
	}

	exams, err := s.Courses.ExamsByCourse(courseID)
	if err != nil {
		return err
	}
	for _, e := range exams {
		sum, err := s.Questions.SumQuestionScores(model.KindExam, e.ID)
		if err != nil {
			return err
		}
		want := courseTotalScore - testTotal
		if sum < want {
			return fmt.Errorf("exam %d: questions sum to %d, tests take %d of %d: %w", e.ID, sum, testTotal, courseTotalScore, util.ErrScoreSumMismatch)
		}
		if sum > want {
			logger.Log.Warn("考试分值溢出，总分压缩至课程满分差额",
				zap.Uint("exam_id", e.ID),
				zap.Int("question_sum", sum),
				zap.Int("adjusted_score", want))
		}
		if e.Score != want {
			if err := s.Courses.UpdateExamScore(e.ID, want); err != nil {
				return err
			}
		}
	}

	if err := s.Courses.SetPublished(courseID, true); err != nil {
		return err
	}
	logger.Log.Info("课程已发布", zap.Uint("course_id", courseID))
	return nil
}

// Overview 学生视角的课程概览：关联记录加全部课节状态
func (s *CourseService) Overview(studentID, courseID uint) (*CourseOverview, error) {
	sc, err := s.Progress.StudentCourse(studentID, courseID)
	if err != nil {
		return nil, err
	}
	states, err := s.Progression.StudentLessonStates(studentID, courseID)
	if err != nil {
		return nil, err
	}
	return &CourseOverview{Association: sc, Lessons: states}, nil
}

// CourseOverview 课程概览响应
type CourseOverview struct {
	Association *model.StudentCourse `json:"association"`
	Lessons     []LessonState        `json:"lessons"`
}
