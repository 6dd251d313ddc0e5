// Package api serves the controller over a local JSON HTTP API for a
// browser front end.
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/prepbuddy/internal/app"
	"github.com/abhisek/prepbuddy/internal/logging"
)

// Options configures the router.
type Options struct {
	// AllowOrigins lists browser origins allowed by CORS. Empty disables
	// the CORS middleware.
	AllowOrigins []string
}

// NewRouter builds the gin engine for ctrl.
func NewRouter(ctrl *app.Controller, logger *zap.Logger, opts Options) *gin.Engine {
	logger = logging.OrNop(logger)
	h := &Handler{ctrl: ctrl, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	if len(opts.AllowOrigins) > 0 {
		config := cors.DefaultConfig()
		config.AllowOrigins = opts.AllowOrigins
		config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
		config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
		r.Use(cors.New(config))
	}

	plans := r.Group("/plans")
	{
		plans.GET("", h.ListPlans)
		plans.POST("", h.CreatePlan)
		plans.POST("/generate", h.GeneratePlan)
		plans.GET("/:id", h.GetPlan)
		plans.DELETE("/:id", h.DeletePlan)
		plans.POST("/:id/files", h.AttachFile)
		plans.PUT("/:id/days/:day/tasks/:task", h.SetTask)
		plans.GET("/:id/quizzes", h.QuizResults)
		plans.POST("/:id/quizzes/:quiz/result", h.SubmitQuiz)
	}

	r.GET("/dashboard", h.Dashboard)
	r.GET("/incentives", h.Incentives)
	r.GET("/celebration", h.Celebration)
	r.DELETE("/celebration", h.AcknowledgeCelebration)
	r.GET("/reminder", h.Reminder)
	r.POST("/reminder/dismiss", h.DismissReminder)
	r.GET("/groups", h.ListGroups)
	r.GET("/groups/:id", h.GetGroup)

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("http request", fields...)
		case status >= 400:
			logger.Warn("http request", fields...)
		default:
			logger.Debug("http request", fields...)
		}
	}
}
