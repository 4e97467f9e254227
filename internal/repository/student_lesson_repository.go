package repository

import (
	"edu_platform_backend/internal/model"
	"edu_platform_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

// LessonStateStore 课节解锁状态机的数据入口。
// 多行状态更新必须走 InTx，保证课程不会停在半解锁状态。
type LessonStateStore interface {
	LessonByID(id uint) (*model.Lesson, error)
	CourseLessons(courseID uint) ([]model.Lesson, error)
	StudentLesson(studentID, lessonID uint) (*model.StudentLesson, error)
	StudentLessons(studentID uint, lessonIDs []uint) ([]model.StudentLesson, error)
	CreateStudentLesson(sl *model.StudentLesson) error
	UpdateStatus(studentID, lessonID uint, status model.StudentLessonStatus) error
	InTx(fn func(LessonStateStore) error) error
}

type StudentLessonRepository struct {
	DB *gorm.DB
}

func NewStudentLessonRepository(db *gorm.DB) *StudentLessonRepository {
	return &StudentLessonRepository{DB: db}
}

func (r *StudentLessonRepository) LessonByID(id uint) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := r.DB.First(&lesson, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &lesson, nil
}

func (r *StudentLessonRepository) CourseLessons(courseID uint) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.DB.Where("course_id = ?", courseID).Order("number ASC").Find(&lessons).Error
	return lessons, err
}

func (r *StudentLessonRepository) StudentLesson(studentID, lessonID uint) (*model.StudentLesson, error) {
	var sl model.StudentLesson
	err := r.DB.Where("student_id = ? AND lesson_id = ?", studentID, lessonID).First(&sl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 报名后每节都应有记录，缺行属于数据完整性问题
			return nil, util.ErrDataIntegrity
		}
		return nil, err
	}
	return &sl, nil
}

func (r *StudentLessonRepository) StudentLessons(studentID uint, lessonIDs []uint) ([]model.StudentLesson, error) {
	var rows []model.StudentLesson
	err := r.DB.Where("student_id = ? AND lesson_id IN ?", studentID, lessonIDs).Find(&rows).Error
	return rows, err
}

func (r *StudentLessonRepository) CreateStudentLesson(sl *model.StudentLesson) error {
	return r.DB.Create(sl).Error
}

func (r *StudentLessonRepository) UpdateStatus(studentID, lessonID uint, status model.StudentLessonStatus) error {
	return r.DB.Model(&model.StudentLesson{}).
		Where("student_id = ? AND lesson_id = ?", studentID, lessonID).
		Update("status", status).Error
}

func (r *StudentLessonRepository) InTx(fn func(LessonStateStore) error) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&StudentLessonRepository{DB: tx})
	})
}
