package service

import "context"

// 后台任务名，由 pkg/taskqueue 分发
const (
	TaskLessonCompleted = "lesson.completed"
	TaskNotify          = "notification.send"
)

// TaskEnqueuer 投递后台任务，至少一次语义
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, name string, payload interface{}) error
}

// LessonCompletedPayload 课节完成事件，驱动进度与成绩聚合
type LessonCompletedPayload struct {
	StudentID uint `json:"studentId"`
	LessonID  uint `json:"lessonId"`
}

// NotifyPayload 站内通知投递
type NotifyPayload struct {
	UserID  uint   `json:"userId"`
	Title   string `json:"title"`
	Content string `json:"content"`
}
