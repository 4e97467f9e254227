package controller

import (
	"strconv"

	"edu_platform_backend/internal/model"
	"edu_platform_backend/internal/service"
	"edu_platform_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	Service *service.AttemptService
}

func NewAttemptController(svc *service.AttemptService) *AttemptController {
	return &AttemptController{Service: svc}
}

// SubmitAttemptRequest 一次测评提交
type SubmitAttemptRequest struct {
	Kind     model.AssessmentKind      `json:"kind" binding:"required,oneof=test exam"`
	LessonID uint                      `json:"lessonId" binding:"required"`
	Answers  []service.SubmittedAnswer `json:"answers" binding:"required,min=1"`
}

// @Summary 提交测试/考试作答
// @Tags 测评提交
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SubmitAttemptRequest true "提交内容"
// @Success 201 {object} util.Response
// @Failure 409 {object} util.Response "次数已用完"
// @Router /api/student/attempts [post]
func (c *AttemptController) Submit(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.Service.SubmitAttempt(user.UserID, req.Kind, req.LessonID, req.Answers)
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Created(ctx, attempt)
}

// @Summary 获取某测评下的提交历史
// @Tags 测评提交
// @Produce json
// @Security BearerAuth
// @Param kind query string true "测评种类 test|exam"
// @Param assessmentId query int true "测评ID"
// @Success 200 {object} util.Response
// @Router /api/student/attempts [get]
func (c *AttemptController) History(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	kind, ok := parseKind(ctx, ctx.Query("kind"))
	if !ok {
		return
	}
	assessmentID, err := strconv.Atoi(ctx.Query("assessmentId"))
	if err != nil || assessmentID <= 0 {
		util.BadRequest(ctx, "invalid assessmentId")
		return
	}

	attempts, err := c.Service.AttemptHistory(user.UserID, kind, uint(assessmentID))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, attempts)
}

// @Summary 获取单次提交的逐题明细
// @Tags 测评提交
// @Produce json
// @Security BearerAuth
// @Param id path int true "提交ID"
// @Param kind query string true "测评种类 test|exam"
// @Success 200 {object} util.Response
// @Router /api/student/attempts/{id} [get]
func (c *AttemptController) Detail(ctx *gin.Context) {
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
	kind, ok := parseKind(ctx, ctx.Query("kind"))
	if !ok {
		return
	}

	details, err := c.Service.AttemptDetail(user.UserID, kind, uint(id))
	if err != nil {
		util.DomainError(ctx, err)
		return
	}

	util.Success(ctx, details)
}

func parseKind(ctx *gin.Context, raw string) (model.AssessmentKind, bool) {
	switch model.AssessmentKind(raw) {
	case model.KindTest:
		return model.KindTest, true
	case model.KindExam:
		return model.KindExam, true
	default:
		util.BadRequest(ctx, "kind must be test or exam")
		return "", false
	}
}
