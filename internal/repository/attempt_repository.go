package repository

import (
	"edu_platform_backend/internal/model"
	"edu_platform_backend/internal/util"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttemptStore 按测评种类（测试/考试）选择对应的提交表与测评表。
// 评分与次数控制逻辑对两个种类完全一致，差异只在落表目标。
type AttemptStore interface {
	Kind() model.AssessmentKind
	AssessmentByLessonID(lessonID uint) (*model.Assessment, error)
	AssessmentByID(id uint) (*model.Assessment, error)
	// LastAttemptNumber 带行锁读取该学生在该测评下的最大提交序号，
	// 防止并发提交算出相同的 attempt_number
	LastAttemptNumber(studentID, assessmentID uint) (int, error)
	CreateAttempt(a *model.StudentAttempt) error
	FinalizeScore(attemptID uint, score int) error
	SaveAnswerDetail(d *model.StudentAnswerDetail) error
	SaveAnswersDetail(d *model.StudentAnswersDetail) error
	SaveMatchingDetail(d *model.StudentMatchingDetail) error
	RecordLessonResult(studentID, lessonID uint, score int) error
	Attempts(studentID, assessmentID uint) ([]model.StudentAttempt, error)
	AttemptByID(id uint) (*model.StudentAttempt, error)
	Details(attemptID uint) ([]model.AttemptQuestionDetail, error)
	InTx(fn func(AttemptStore) error) error
}

type kindAttemptRepository struct {
	db   *gorm.DB
	kind model.AssessmentKind
}

func NewTestAttemptRepository(db *gorm.DB) AttemptStore {
	return &kindAttemptRepository{db: db, kind: model.KindTest}
}

func NewExamAttemptRepository(db *gorm.DB) AttemptStore {
	return &kindAttemptRepository{db: db, kind: model.KindExam}
}

func (r *kindAttemptRepository) Kind() model.AssessmentKind {
	return r.kind
}

func (r *kindAttemptRepository) attemptModel() interface{} {
	if r.kind == model.KindExam {
		return &model.StudentExamAttempt{}
	}
	return &model.StudentTestAttempt{}
}

func (r *kindAttemptRepository) AssessmentByLessonID(lessonID uint) (*model.Assessment, error) {
	if r.kind == model.KindExam {
		var exam model.Exam
		if err := r.db.Where("lesson_id = ?", lessonID).First(&exam).Error; err != nil {
			return nil, wrapNotFound(err)
		}
		a := exam.AsAssessment()
		return &a, nil
	}
	var test model.Test
	if err := r.db.Where("lesson_id = ?", lessonID).First(&test).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	a := test.AsAssessment()
	return &a, nil
}

func (r *kindAttemptRepository) AssessmentByID(id uint) (*model.Assessment, error) {
	if r.kind == model.KindExam {
		var exam model.Exam
		if err := r.db.First(&exam, id).Error; err != nil {
			return nil, wrapNotFound(err)
		}
		a := exam.AsAssessment()
		return &a, nil
	}
	var test model.Test
	if err := r.db.First(&test, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	a := test.AsAssessment()
	return &a, nil
}

func (r *kindAttemptRepository) LastAttemptNumber(studentID, assessmentID uint) (int, error) {
	var last *int
	err := r.db.Model(r.attemptModel()).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ? AND assessment_id = ?", studentID, assessmentID).
		Select("MAX(attempt_number)").
		Scan(&last).Error
	if err != nil {
		return 0, err
	}
	if last == nil {
		return 0, nil
	}
	return *last, nil
}

func (r *kindAttemptRepository) CreateAttempt(a *model.StudentAttempt) error {
	if r.kind == model.KindExam {
		row := model.StudentExamAttempt{StudentAttempt: *a}
		if err := r.db.Create(&row).Error; err != nil {
			return err
		}
		a.ID = row.ID
		return nil
	}
	row := model.StudentTestAttempt{StudentAttempt: *a}
	if err := r.db.Create(&row).Error; err != nil {
		return err
	}
	a.ID = row.ID
	return nil
}

func (r *kindAttemptRepository) FinalizeScore(attemptID uint, score int) error {
	return r.db.Model(r.attemptModel()).
		Where("id = ?", attemptID).
		Update("score", score).Error
}

func (r *kindAttemptRepository) SaveAnswerDetail(d *model.StudentAnswerDetail) error {
	d.Kind = r.kind
	return r.db.Create(d).Error
}

func (r *kindAttemptRepository) SaveAnswersDetail(d *model.StudentAnswersDetail) error {
	d.Kind = r.kind
	return r.db.Create(d).Error
}

func (r *kindAttemptRepository) SaveMatchingDetail(d *model.StudentMatchingDetail) error {
	d.Kind = r.kind
	return r.db.Create(d).Error
}

// RecordLessonResult 在提交事务内同步学生课节上的最新得分与已用次数
func (r *kindAttemptRepository) RecordLessonResult(studentID, lessonID uint, score int) error {
	res := r.db.Model(&model.StudentLesson{}).
		Where("student_id = ? AND lesson_id = ?", studentID, lessonID).
		Updates(map[string]interface{}{
			"score":   score,
			"attempt": gorm.Expr("attempt + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrDataIntegrity
	}
	return nil
}

func (r *kindAttemptRepository) Attempts(studentID, assessmentID uint) ([]model.StudentAttempt, error) {
	var attempts []model.StudentAttempt
	err := r.db.Model(r.attemptModel()).
		Where("student_id = ? AND assessment_id = ?", studentID, assessmentID).
		Order("attempt_number ASC").
		Find(&attempts).Error
	return attempts, err
}

func (r *kindAttemptRepository) AttemptByID(id uint) (*model.StudentAttempt, error) {
	var a model.StudentAttempt
	if err := r.db.Model(r.attemptModel()).First(&a, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &a, nil
}

func (r *kindAttemptRepository) Details(attemptID uint) ([]model.AttemptQuestionDetail, error) {
	var details []model.AttemptQuestionDetail

	var singles []model.StudentAnswerDetail
	if err := r.db.Where("kind = ? AND attempt_id = ?", r.kind, attemptID).Find(&singles).Error; err != nil {
		return nil, err
	}
	for _, d := range singles {
		answerID := d.AnswerID
		details = append(details, model.AttemptQuestionDetail{
			QuestionID: d.QuestionID,
			Score:      d.Score,
			AnswerID:   &answerID,
		})
	}

	var multis []model.StudentAnswersDetail
	if err := r.db.Where("kind = ? AND attempt_id = ?", r.kind, attemptID).Find(&multis).Error; err != nil {
		return nil, err
	}
	for _, d := range multis {
		details = append(details, model.AttemptQuestionDetail{
			QuestionID: d.QuestionID,
			Score:      d.Score,
			AnswerIDs:  d.AnswerIDs,
		})
	}

	var matchings []model.StudentMatchingDetail
	if err := r.db.Where("kind = ? AND attempt_id = ?", r.kind, attemptID).Find(&matchings).Error; err != nil {
		return nil, err
	}
	for _, d := range matchings {
		details = append(details, model.AttemptQuestionDetail{
			QuestionID: d.QuestionID,
			Score:      d.Score,
			Pairs:      d.Pairs,
		})
	}

	return details, nil
}

func (r *kindAttemptRepository) InTx(fn func(AttemptStore) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&kindAttemptRepository{db: tx, kind: r.kind})
	})
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrNotFound
	}
	return err
}
