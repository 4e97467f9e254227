package service

import (
	"context"
	"fmt"

	"edu_platform_backend/internal/model"
	"edu_platform_backend/internal/repository"
	"edu_platform_backend/pkg/logger"
	"edu_platform_backend/pkg/monitoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CertificateService 证书签发。对 (学生, 课程) / (学生, 分类) 幂等：
// 先查后插，插入撞唯一索引时复查一次，并发重放不会留下重复记录
type CertificateService struct {
	Repo    repository.CertificateStore
	Courses CourseReader
	Queue   TaskEnqueuer
}

func NewCertificateService(repo repository.CertificateStore, courses CourseReader, queue TaskEnqueuer) *CertificateService {
	return &CertificateService{Repo: repo, Courses: courses, Queue: queue}
}

func (s *CertificateService) IssueCourseCertificate(ctx context.Context, studentID, courseID uint) error {
	existing, err := s.Repo.FindCourseCertificate(studentID, courseID)
	if err != nil {
		return err
	}
	if existing != nil {
		logger.Log.Debug("课程证书已存在，跳过签发",
			zap.Uint("student_id", studentID),
			zap.Uint("course_id", courseID))
		return nil
	}

	course, err := s.Courses.FindCourseByID(courseID)
	if err != nil {
		return err
	}

	cert := &model.Certificate{
		StudentID: studentID,
		Kind:      model.CertificateCourse,
		CourseID:  &courseID,
		Serial:    uuid.NewString(),
	}
	if err := s.Repo.CreateCertificate(cert); err != nil {
		// 唯一索引兜底：并发签发时另一侧先落库即视为成功
		if again, findErr := s.Repo.FindCourseCertificate(studentID, courseID); findErr == nil && again != nil {
			return nil
		}
		return err
	}

	monitoring.CertificatesIssued.WithLabelValues(string(model.CertificateCourse)).Inc()
	logger.Log.Info("课程证书已签发",
		zap.Uint("student_id", studentID),
		zap.Uint("course_id", courseID),
		zap.String("serial", cert.Serial))

	return s.notify(ctx, studentID,
		"课程完成证书",
		fmt.Sprintf("恭喜你完成课程《%s》，证书编号 %s", course.Title, cert.Serial))
}

func (s *CertificateService) IssueCategoryCertificate(ctx context.Context, studentID, categoryID uint) error {
	existing, err := s.Repo.FindCategoryCertificate(studentID, categoryID)
	if err != nil {
		return err
	}
	if existing != nil {
		logger.Log.Debug("分类证书已存在，跳过签发",
			zap.Uint("student_id", studentID),
			zap.Uint("category_id", categoryID))
		return nil
	}

	category, err := s.Courses.FindCategoryByID(categoryID)
	if err != nil {
		return err
	}

	cert := &model.Certificate{
		StudentID:  studentID,
		Kind:       model.CertificateCategory,
		CategoryID: &categoryID,
		Serial:     uuid.NewString(),
	}
	if err := s.Repo.CreateCertificate(cert); err != nil {
		if again, findErr := s.Repo.FindCategoryCertificate(studentID, categoryID); findErr == nil && again != nil {
			return nil
		}
		return err
	}

	monitoring.CertificatesIssued.WithLabelValues(string(model.CertificateCategory)).Inc()
	logger.Log.Info("分类证书已签发",
		zap.Uint("student_id", studentID),
		zap.Uint("category_id", categoryID),
		zap.String("serial", cert.Serial))

	return s.notify(ctx, studentID,
		"方向完成证书",
		fmt.Sprintf("恭喜你完成「%s」方向下的全部课程，证书编号 %s", category.Name, cert.Serial))
}

func (s *CertificateService) notify(ctx context.Context, userID uint, title, content string) error {
	err := s.Queue.Enqueue(ctx, TaskNotify, NotifyPayload{
		UserID:  userID,
		Title:   title,
		Content: content,
	})
	if err != nil {
		// 证书已落库，通知丢失不影响签发结果
		logger.Log.Error("证书通知投递失败", zap.Uint("user_id", userID), zap.Error(err))
	}
	return nil
}
