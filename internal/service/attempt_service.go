package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"edu_platform_backend/internal/model"
	"edu_platform_backend/internal/repository"
	"edu_platform_backend/internal/util"
	"edu_platform_backend/pkg/logger"
	"edu_platform_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// AttemptService 管理测试/考试的提交：次数控制、评分、明细落库。
// 同一套流程同时服务两个测评种类，按 kind 路由到对应的存储
type AttemptService struct {
	stores map[model.AssessmentKind]repository.AttemptStore
	grader *GradingService
}

func NewAttemptService(testStore, examStore repository.AttemptStore, grader *GradingService) *AttemptService {
	return &AttemptService{
		stores: map[model.AssessmentKind]repository.AttemptStore{
			model.KindTest: testStore,
			model.KindExam: examStore,
		},
		grader: grader,
	}
}

func (s *AttemptService) store(kind model.AssessmentKind) (repository.AttemptStore, error) {
	st, ok := s.stores[kind]
	if !ok {
		return nil, fmt.Errorf("unknown assessment kind %q: %w", kind, util.ErrNotFound)
	}
	return st, nil
}

// SubmitAttempt 处理学生对某课节测评的一次完整提交。
// 次数上限在任何写入发生前校验，超限直接拒绝；
// 评分、明细、总分与课节结果在同一事务内落库
func (s *AttemptService) SubmitAttempt(studentID uint, kind model.AssessmentKind, lessonID uint, answers []SubmittedAnswer) (*model.StudentAttempt, error) {
	st, err := s.store(kind)
	if err != nil {
		return nil, err
	}

	var result *model.StudentAttempt
	err = st.InTx(func(tx repository.AttemptStore) error {
		assessment, err := tx.AssessmentByLessonID(lessonID)
		if err != nil {
			return err
		}

		last, err := tx.LastAttemptNumber(studentID, assessment.ID)
		if err != nil {
			return err
		}
		next := last + 1
		limit := assessment.Attempts
		if limit <= 0 {
			limit = model.DefaultAttemptLimit
		}
		if next > limit {
			monitoring.AttemptsRejected.Inc()
			return util.ErrMaxAttemptExceeded
		}

		attempt := &model.StudentAttempt{
			StudentID:     studentID,
			AssessmentID:  assessment.ID,
			AttemptNumber: next,
		}
		if err := tx.CreateAttempt(attempt); err != nil {
			return err
		}

		total := 0
		for _, ans := range answers {
			question, err := s.grader.Questions.QuestionByID(ans.QuestionID)
			if err != nil {
				return err
			}
			// 只接受本测评自己的可见题目，防止借别的测评的题刷分
			if question.Kind != kind || question.AssessmentID != assessment.ID || question.Hidden {
				return fmt.Errorf("question %d not part of %s %d: %w",
					ans.QuestionID, kind, assessment.ID, util.ErrNotFound)
			}
			score, err := s.grader.GradeQuestion(question, ans)
			if err != nil {
				return err
			}
			if err := s.saveDetail(tx, attempt.ID, question, ans, score); err != nil {
				return err
			}
			total += score
		}

		if err := tx.FinalizeScore(attempt.ID, total); err != nil {
			return err
		}
		if err := tx.RecordLessonResult(studentID, lessonID, total); err != nil {
			return err
		}

		attempt.Score = &total
		result = attempt
		return nil
	})
	if err != nil {
		if errors.Is(err, util.ErrMaxAttemptExceeded) {
			logger.Log.Info("测评提交超出次数上限被拒绝",
				zap.Uint("student_id", studentID),
				zap.String("kind", string(kind)),
				zap.Uint("lesson_id", lessonID))
		}
		return nil, err
	}

	monitoring.AttemptsGraded.WithLabelValues(string(kind)).Inc()
	logger.Log.Info("测评提交已评分",
		zap.Uint("student_id", studentID),
		zap.String("kind", string(kind)),
		zap.Uint("attempt_id", result.ID),
		zap.Int("attempt_number", result.AttemptNumber),
		zap.Intp("score", result.Score))
	return result, nil
}

// saveDetail 按题型把单题判分写入对应明细表
func (s *AttemptService) saveDetail(tx repository.AttemptStore, attemptID uint, question *model.Question, ans SubmittedAnswer, score int) error {
	switch question.Type {
	case model.QuestionMultipleChoice:
		ids, err := json.Marshal(ans.AnswerIDs)
		if err != nil {
			return err
		}
		return tx.SaveAnswersDetail(&model.StudentAnswersDetail{
			AttemptID:  attemptID,
			QuestionID: question.ID,
			AnswerIDs:  ids,
			Score:      score,
		})
	case model.QuestionMatching:
		pairs, err := json.Marshal(ans.Pairs)
		if err != nil {
			return err
		}
		return tx.SaveMatchingDetail(&model.StudentMatchingDetail{
			AttemptID:  attemptID,
			QuestionID: question.ID,
			Pairs:      pairs,
			Score:      score,
		})
	default:
		return tx.SaveAnswerDetail(&model.StudentAnswerDetail{
			AttemptID:  attemptID,
			QuestionID: question.ID,
			AnswerID:   ans.AnswerID,
			Score:      score,
		})
	}
}

// AttemptHistory 学生在某测评下的全部提交，按序号升序
func (s *AttemptService) AttemptHistory(studentID uint, kind model.AssessmentKind, assessmentID uint) ([]model.StudentAttempt, error) {
	st, err := s.store(kind)
	if err != nil {
		return nil, err
	}
	if _, err := st.AssessmentByID(assessmentID); err != nil {
		return nil, err
	}
	return st.Attempts(studentID, assessmentID)
}

// AttemptDetail 单次提交的逐题判分明细。
// 仅允许本人查看，归属不符返回权限错误
func (s *AttemptService) AttemptDetail(studentID uint, kind model.AssessmentKind, attemptID uint) ([]model.AttemptQuestionDetail, error) {
	st, err := s.store(kind)
	if err != nil {
		return nil, err
	}
	attempt, err := st.AttemptByID(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, util.ErrPermissionDenied
	}
	return st.Details(attemptID)
}
