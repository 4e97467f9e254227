package controller

import (
	"context"
	"net/http"
	"time"

	"edu_platform_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewHealthController(db *gorm.DB, rdb *redis.Client) *HealthController {
	return &HealthController{DB: db, Redis: rdb}
}

// @Summary 健康检查
// @Description 检查数据库与 Redis 连接状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	components := gin.H{}
	healthy := true

	checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if sqlDB, err := c.DB.DB(); err != nil {
		components["database"] = "down"
		healthy = false
	} else if err := sqlDB.PingContext(checkCtx); err != nil {
		components["database"] = "down"
		healthy = false
	} else {
		components["database"] = "up"
	}

	if err := c.Redis.Ping(checkCtx).Err(); err != nil {
		// 队列依赖 redis，标记 degraded 但不拉下整个服务
		components["redis"] = "down"
	} else {
		components["redis"] = "up"
	}

	if !healthy {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	status := "ok"
	if components["redis"] == "down" {
		status = "degraded"
	}

	util.Success(ctx, gin.H{
		"status":     status,
		"components": components,
	})
}
