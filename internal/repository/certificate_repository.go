package repository

import (
	"edu_platform_backend/internal/model"
	"errors"

	"gorm.io/gorm"
)

// CertificateStore 证书签发的数据入口；查重 + 建行配合唯一索引实现幂等
type CertificateStore interface {
	FindCourseCertificate(studentID, courseID uint) (*model.Certificate, error)
	FindCategoryCertificate(studentID, categoryID uint) (*model.Certificate, error)
	CreateCertificate(cert *model.Certificate) error
	CreateNotification(n *model.Notification) error
}

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

func (r *CertificateRepository) FindCourseCertificate(studentID, courseID uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.Where("student_id = ? AND course_id = ?", studentID, courseID).First(&cert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) FindCategoryCertificate(studentID, categoryID uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.Where("student_id = ? AND category_id = ?", studentID, categoryID).First(&cert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) CreateCertificate(cert *model.Certificate) error {
	return r.DB.Create(cert).Error
}

func (r *CertificateRepository) CreateNotification(n *model.Notification) error {
	return r.DB.Create(n).Error
}
