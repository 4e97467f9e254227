package util

import "errors"

var (
	// ErrMaxAttemptExceeded 提交次数已达上限，拒绝且不产生任何写入
	ErrMaxAttemptExceeded = errors.New("no attempts remaining")
	// ErrDataIntegrity 题库数据违反评分前提（如多选题没有正确答案）
	ErrDataIntegrity = errors.New("data integrity violation")
	ErrNotFound      = errors.New("resource not found")

	ErrPermissionDenied = errors.New("permission denied")
	ErrAlreadyEnrolled  = errors.New("student already enrolled in course")
	ErrScoreSumMismatch = errors.New("question scores do not sum to the assessment score")
	ErrLessonNotActive  = errors.New("lesson not active for student")
)
