package repository

import (
	"edu_platform_backend/internal/model"

	"gorm.io/gorm"
)

// ProgressStore 课程完成聚合器的数据入口
type ProgressStore interface {
	StudentCourse(studentID, courseID uint) (*model.StudentCourse, error)
	CreateStudentCourse(sc *model.StudentCourse) error
	UpdateProgress(studentID, courseID uint, progress int) error
	AddGrade(studentID, courseID uint, delta int) error
	SetCompleted(studentID, courseID uint) error
	// LessonCounts 返回该学生在该课程下的课节总数与已完成数
	LessonCounts(studentID, courseID uint) (total int, completed int, err error)
	PublishedCourseIDs(categoryID uint) ([]uint, error)
	CompletedCourseIDs(studentID uint) ([]uint, error)
}

type StudentCourseRepository struct {
	DB *gorm.DB
}

func NewStudentCourseRepository(db *gorm.DB) *StudentCourseRepository {
	return &StudentCourseRepository{DB: db}
}

func (r *StudentCourseRepository) StudentCourse(studentID, courseID uint) (*model.StudentCourse, error) {
	var sc model.StudentCourse
	err := r.DB.Where("student_id = ? AND course_id = ?", studentID, courseID).First(&sc).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &sc, nil
}

func (r *StudentCourseRepository) CreateStudentCourse(sc *model.StudentCourse) error {
	return r.DB.Create(sc).Error
}

func (r *StudentCourseRepository) UpdateProgress(studentID, courseID uint, progress int) error {
	return r.DB.Model(&model.StudentCourse{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Update("progress", progress).Error
}

// AddGrade 成绩只累加不回退；≤200 由表上的 CHECK 约束兜底
func (r *StudentCourseRepository) AddGrade(studentID, courseID uint, delta int) error {
	return r.DB.Model(&model.StudentCourse{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Update("grade", gorm.Expr("grade + ?", delta)).Error
}

func (r *StudentCourseRepository) SetCompleted(studentID, courseID uint) error {
	return r.DB.Model(&model.StudentCourse{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Update("status", model.CourseCompleted).Error
}

func (r *StudentCourseRepository) LessonCounts(studentID, courseID uint) (int, int, error) {
	base := r.DB.Model(&model.StudentLesson{}).
		Joins("JOIN lessons ON lessons.id = student_lessons.lesson_id").
		Where("student_lessons.student_id = ? AND lessons.course_id = ?", studentID, courseID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}

	var completed int64
	if err := base.Session(&gorm.Session{}).
		Where("student_lessons.status = ?", model.LessonStatusCompleted).
		Count(&completed).Error; err != nil {
		return 0, 0, err
	}

	return int(total), int(completed), nil
}

func (r *StudentCourseRepository) PublishedCourseIDs(categoryID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.Course{}).
		Where("category_id = ? AND is_published = ?", categoryID, true).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *StudentCourseRepository) CompletedCourseIDs(studentID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.StudentCourse{}).
		Where("student_id = ? AND status = ?", studentID, model.CourseCompleted).
		Pluck("course_id", &ids).Error
	return ids, err
}
