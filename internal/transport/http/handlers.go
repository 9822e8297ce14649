package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"edu-quiz-service/internal/app"
	"edu-quiz-service/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error    string `json:"error"`
	Expected int    `json:"expected,omitempty"`
}

type submitRequest struct {
	Answers domain.AnswerSheet `json:"answers" binding:"required"`
}

type badgeCheckResponse struct {
	Message string              `json:"message"`
	Awarded []domain.BadgeAward `json:"awarded"`
}

// QuizHandler serves quiz submission and result review.
type QuizHandler struct {
	submissions *app.SubmissionService
	reviews     *app.ReviewService
}

func NewQuizHandler(submissions *app.SubmissionService, reviews *app.ReviewService) *QuizHandler {
	return &QuizHandler{submissions: submissions, reviews: reviews}
}

// Submit handles POST /quizzes/:quizId/submit.
func (h *QuizHandler) Submit(c *gin.Context) {
	quizID, ok := idParam(c, "quizId")
	if !ok {
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: domain.ErrInvalidAnswerFormat.Error()})
		return
	}

	res, err := h.submissions.Submit(c.Request.Context(), domain.Submission{
		UserID:  c.GetInt64(userIDKey),
		QuizID:  quizID,
		Answers: req.Answers,
	})
	if err != nil {
		writeError(c, err, "failed to submit quiz, please retry")
		return
	}
	c.JSON(http.StatusOK, res)
}

// Result handles GET /quizzes/:quizId/result.
func (h *QuizHandler) Result(c *gin.Context) {
	quizID, ok := idParam(c, "quizId")
	if !ok {
		return
	}
	review, err := h.reviews.GetResult(c.Request.Context(), c.GetInt64(userIDKey), quizID)
	if err != nil {
		writeError(c, err, "failed to load result")
		return
	}
	c.JSON(http.StatusOK, review)
}

// BadgeHandler exposes the achievement evaluator.
type BadgeHandler struct {
	achievements *app.AchievementService
}

func NewBadgeHandler(achievements *app.AchievementService) *BadgeHandler {
	return &BadgeHandler{achievements: achievements}
}

// Check handles POST /badges/check/:userId. It succeeds once evaluation was attempted.
func (h *BadgeHandler) Check(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}
	awarded := h.achievements.EvaluateAndAward(c.Request.Context(), userID)
	if awarded == nil {
		awarded = []domain.BadgeAward{}
	}
	c.JSON(http.StatusOK, badgeCheckResponse{Message: "badge check completed", Awarded: awarded})
}

// Achievements handles GET /users/:userId/achievements.
func (h *BadgeHandler) Achievements(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}
	out, err := h.achievements.Achievements(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "failed to load achievements")
		return
	}
	if out.Badges == nil {
		out.Badges = []domain.BadgeAward{}
	}
	c.JSON(http.StatusOK, out)
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error, internalMsg string) {
	var countErr *domain.AnswerCountError
	switch {
	case errors.As(err, &countErr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: countErr.Error(), Expected: countErr.Expected})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: internalMsg})
	}
}
