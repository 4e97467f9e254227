package repository

import (
	"edu_platform_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) FindCourseByID(id uint) (*model.Course, error) {
	var course model.Course
	if err := r.DB.First(&course, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &course, nil
}

func (r *CourseRepository) FindCategoryByID(id uint) (*model.Category, error) {
	var category model.Category
	if err := r.DB.First(&category, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &category, nil
}

func (r *CourseRepository) FindLessonByID(id uint) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := r.DB.First(&lesson, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &lesson, nil
}

func (r *CourseRepository) LectureByLessonID(lessonID uint) (*model.Lecture, error) {
	var lecture model.Lecture
	if err := r.DB.Where("lesson_id = ?", lessonID).First(&lecture).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &lecture, nil
}

func (r *CourseRepository) LessonsByCourse(courseID uint) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.DB.Where("course_id = ?", courseID).Order("number ASC").Find(&lessons).Error
	return lessons, err
}

func (r *CourseRepository) CreateLesson(lesson *model.Lesson) error {
	return r.DB.Create(lesson).Error
}

// ShiftLessonNumbers 插入新课节前把 fromNumber 及之后的节号整体后移一位
func (r *CourseRepository) ShiftLessonNumbers(courseID uint, fromNumber int) error {
	return r.DB.Model(&model.Lesson{}).
		Where("course_id = ? AND number >= ?", courseID, fromNumber).
		Update("number", gorm.Expr("number + 1")).Error
}

func (r *CourseRepository) TestsByCourse(courseID uint) ([]model.Test, error) {
	var tests []model.Test
	err := r.DB.Joins("JOIN lessons ON lessons.id = tests.lesson_id").
		Where("lessons.course_id = ?", courseID).
		Find(&tests).Error
	return tests, err
}

func (r *CourseRepository) ExamsByCourse(courseID uint) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.DB.Joins("JOIN lessons ON lessons.id = exams.lesson_id").
		Where("lessons.course_id = ?", courseID).
		Find(&exams).Error
	return exams, err
}

func (r *CourseRepository) UpdateExamScore(examID uint, score int) error {
	return r.DB.Model(&model.Exam{}).Where("id = ?", examID).Update("score", score).Error
}

func (r *CourseRepository) SetPublished(courseID uint, published bool) error {
	return r.DB.Model(&model.Course{}).Where("id = ?", courseID).Update("is_published", published).Error
}

// EnrolledStudentIDs 当前已报名该课程的学生（插入新课节时需要逐个安置状态）
func (r *CourseRepository) EnrolledStudentIDs(courseID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.StudentCourse{}).
		Where("course_id = ?", courseID).
		Pluck("student_id", &ids).Error
	return ids, err
}

func (r *CourseRepository) InTx(fn func(*CourseRepository) error) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&CourseRepository{DB: tx})
	})
}
