package taskqueue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"edu_platform_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Task 队列中的一条后台任务，payload 为任务自定义的 JSON
type Task struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
	Retries int             `json:"retries"`
}

type Handler func(ctx context.Context, payload json.RawMessage) error

// Queue 基于 Redis List 的后台任务队列（LPUSH 入队 / BRPOP 出队）
// 至少一次语义：handler 失败的任务重新入队，超过重试上限后丢弃并记日志，
// 因此 handler 自身必须幂等
type Queue struct {
	rdb *redis.Client
	key string

	mu         sync.RWMutex
	maxRetries int
	handlers   map[string]Handler

	stop chan struct{}
	wg   sync.WaitGroup
}

func New(rdb *redis.Client, key string, maxRetries int) *Queue {
	return &Queue{
		rdb:        rdb,
		key:        key,
		maxRetries: maxRetries,
		handlers:   make(map[string]Handler),
		stop:       make(chan struct{}),
	}
}

// SetMaxRetries 更新重试上限，支持配置热加载
func (q *Queue) SetMaxRetries(n int) {
	if n <= 0 {
		return
	}
	q.mu.Lock()
	q.maxRetries = n
	q.mu.Unlock()
}

// Handle 注册任务处理器，需在 Start 之前调用
func (q *Queue) Handle(name string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = h
}

// Enqueue 入队一条任务，payload 会被序列化为 JSON
func (q *Queue) Enqueue(ctx context.Context, name string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	task := Task{Name: name, Payload: data}
	raw, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.key, raw).Err()
}

// Start 启动 worker goroutine
func (q *Queue) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

func (q *Queue) Stop() {
	close(q.stop)
	q.wg.Wait()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	ctx := context.Background()
	for {
		select {
		case <-q.stop:
			return
		default:
		}

		res, err := q.rdb.BRPop(ctx, 2*time.Second, q.key).Result()
		if err != nil {
			if err != redis.Nil {
				logger.Log.Error("task queue pop failed", zap.Error(err))
				time.Sleep(time.Second)
			}
			continue
		}
		// BRPop 返回 [key, value]
		if len(res) < 2 {
			continue
		}

		var task Task
		if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
			logger.Log.Error("task queue bad payload", zap.Error(err))
			continue
		}

		q.dispatch(ctx, &task)
	}
}

func (q *Queue) dispatch(ctx context.Context, task *Task) {
	q.mu.RLock()
	h, ok := q.handlers[task.Name]
	maxRetries := q.maxRetries
	q.mu.RUnlock()
	if !ok {
		logger.Log.Warn("task queue unknown task", zap.String("task", task.Name))
		return
	}

	if err := h(ctx, task.Payload); err != nil {
		logger.Log.Error("task failed",
			zap.String("task", task.Name),
			zap.Int("retries", task.Retries),
			zap.Error(err))

		if task.Retries+1 >= maxRetries {
			logger.Log.Error("task dropped after max retries", zap.String("task", task.Name))
			return
		}
		task.Retries++
		if raw, err := json.Marshal(task); err == nil {
			if err := q.rdb.LPush(ctx, q.key, raw).Err(); err != nil {
				logger.Log.Error("task requeue failed", zap.Error(err))
			}
		}
	}
}
