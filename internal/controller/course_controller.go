package controller

import (
	"strconv"

	"edu_platform_backend/internal/service"
	"edu_platform_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	Service *service.CourseService
}

func NewCourseController(svc *service.CourseService) *CourseController {
	return &CourseController{Service: svc}
}

// @Summary 报名课程
// @Tags 课程
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Success 201 {object} util.Response
// @Failure 409 {object} util.Response "已报名"
// @Router /api/student/courses/{id}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
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

	if err := c.Service.Enroll(user.UserID, uint(id)); err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Created(ctx, nil)
}

// @Summary 在课程指定位置插入课节
// @Tags 课程
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Param body body service.LessonInput true "课节信息"
// @Success 201 {object} util.Response
// @Router /api/teacher/courses/{id}/lessons [post]
func (c *CourseController) InsertLesson(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	var in service.LessonInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.Service.InsertLesson(uint(id), in)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Created(ctx, lesson)
}

// @Summary 发布课程（分值结构校验后对学生可见）
// @Tags 课程
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response
// @Failure 422 {object} util.Response "分值结构不合法"
// @Router /api/teacher/courses/{id}/publish [post]
func (c *CourseController) Publish(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	if err := c.Service.Publish(uint(id)); err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}
