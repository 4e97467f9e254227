package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edu_platform_backend/internal/config"
	"edu_platform_backend/internal/controller"
	"edu_platform_backend/internal/repository"
	"edu_platform_backend/internal/service"
	"edu_platform_backend/pkg/database"
	"edu_platform_backend/pkg/logger"
	"edu_platform_backend/pkg/monitoring"
	"edu_platform_backend/pkg/security"
	"edu_platform_backend/pkg/taskqueue"
	"edu_platform_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Queue           *taskqueue.Queue
	configCallbacks []func(*config.Config)
}

type repositories struct {
	testAttempt   repository.AttemptStore
	examAttempt   repository.AttemptStore
	question      *repository.QuestionRepository
	studentLesson *repository.StudentLessonRepository
	course        *repository.CourseRepository
	studentCourse *repository.StudentCourseRepository
	certificate   *repository.CertificateRepository
}

type services struct {
	grading      *service.GradingService
	attempt      *service.AttemptService
	progression  *service.ProgressionService
	completion   *service.CompletionService
	certificate  *service.CertificateService
	notification *service.NotificationService
	course       *service.CourseService
}

type controllers struct {
	attempt *controller.AttemptController
	lesson  *controller.LessonController
	course  *controller.CourseController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置热加载入口，把新配置分发给各回调
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
	logger.Log.Info("配置已热加载")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		testAttempt:   repository.NewTestAttemptRepository(db),
		examAttempt:   repository.NewExamAttemptRepository(db),
		question:      repository.NewQuestionRepository(db),
		studentLesson: repository.NewStudentLessonRepository(db),
		course:        repository.NewCourseRepository(db),
		studentCourse: repository.NewStudentCourseRepository(db),
		certificate:   repository.NewCertificateRepository(db),
	}
}

func (a *App) initServices(repos *repositories, db *gorm.DB, queue *taskqueue.Queue) *services {
	s := &services{}

	s.grading = service.NewGradingService(repos.question)
	s.attempt = service.NewAttemptService(repos.testAttempt, repos.examAttempt, s.grading)
	s.progression = service.NewProgressionService(repos.studentLesson, queue)
	s.certificate = service.NewCertificateService(repos.certificate, repos.course, queue)
	s.completion = service.NewCompletionService(repos.studentCourse, repos.studentLesson, repos.course, s.certificate)
	s.notification = service.NewNotificationService(repos.certificate)
	s.course = service.NewCourseService(db, repos.course, repos.question, repos.studentCourse, s.progression)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		attempt: controller.NewAttemptController(s.attempt),
		lesson:  controller.NewLessonController(s.progression, s.course),
		course:  controller.NewCourseController(s.course),
		health:  controller.NewHealthController(db, a.Redis),
	}
}

// registerTaskHandlers 把后台任务路由到对应的处理器
func (a *App) registerTaskHandlers(queue *taskqueue.Queue, s *services) {
	queue.Handle(service.TaskLessonCompleted, s.completion.HandleLessonCompleted)
	queue.Handle(service.TaskNotify, s.notification.HandleNotify)
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	if cfg.RateLimit.MaxRequests > 0 {
		window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
		router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window))
	}

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	queue := taskqueue.New(rdb, cfg.Queue.Key, cfg.Queue.MaxRetries)

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Queue:  queue,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, db, queue)
	controllers := app.initControllers(services, db)
	app.registerTaskHandlers(queue, services)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("edu-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	// 热加载时同步队列重试上限
	app.RegisterConfigCallback(func(c *config.Config) {
		queue.SetMaxRetries(c.Queue.MaxRetries)
	})

	return app
}

func (a *App) Run() {
	a.Queue.Start(a.Config.Queue.Workers)

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 先停队列 worker，避免丢弃正在处理的任务
	a.Queue.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
