package http

import (
	"net/http"
	"time"

	"edu-quiz-service/internal/app"
	"edu-quiz-service/internal/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Services bundles what the router exposes.
type Services struct {
	Submissions  *app.SubmissionService
	Reviews      *app.ReviewService
	Achievements *app.AchievementService
	Awards       *app.AwardHub
	Tokens       *auth.Tokens
	CORSOrigins  []string
}

// NewRouter wires the HTTP API.
func NewRouter(s Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), RequestID())

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(s.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	wsHandler := NewWSHandler(s.Awards, s.Tokens)
	r.GET("/ws/achievements", wsHandler.ServeWS)

	quizHandler := NewQuizHandler(s.Submissions, s.Reviews)
	badgeHandler := NewBadgeHandler(s.Achievements)

	authed := r.Group("/", RequireAuth(s.Tokens))
	{
		authed.POST("/quizzes/:quizId/submit", quizHandler.Submit)
		authed.GET("/quizzes/:quizId/result", quizHandler.Result)
		authed.POST("/badges/check/:userId", badgeHandler.Check)
		authed.GET("/users/:userId/achievements", badgeHandler.Achievements)
	}
	return r
}
