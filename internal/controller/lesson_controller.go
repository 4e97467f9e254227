package controller

import (
	"strconv"

	"edu_platform_backend/internal/service"
	"edu_platform_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LessonController struct {
	Progression *service.ProgressionService
	Courses     *service.CourseService
}

func NewLessonController(progression *service.ProgressionService, courses *service.CourseService) *LessonController {
	return &LessonController{Progression: progression, Courses: courses}
}

// @Summary 确认课节完成，解锁后续课节
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param id path int true "课节ID"
// @Success 200 {object} util.Response
// @Router /api/student/lessons/{id}/complete [post]
func (c *LessonController) Complete(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	if err := c.Progression.ConfirmLessonCompletion(ctx.Request.Context(), user.UserID, uint(id)); err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// @Summary 学生视角的课程概览（关联记录 + 课节状态）
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/student/courses/{id} [get]
func (c *LessonController) CourseOverview(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	overview, err := c.Courses.Overview(user.UserID, uint(id))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, overview)
}

// @Summary 课程内全部课节的解锁状态
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/student/courses/{id}/lessons [get]
func (c *LessonController) LessonStates(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	states, err := c.Progression.StudentLessonStates(user.UserID, uint(id))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, states)
}
