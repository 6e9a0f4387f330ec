package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	taskDomain "github.com/davicafu/hrlab/internal/task/domain"
	"github.com/davicafu/hrlab/pkg/utils"
)

// AnalyticsHandler expone las consultas agregadas del almacén analítico.
// Solo se registra cuando hay un backend analítico configurado.
type AnalyticsHandler struct {
	analytics taskDomain.ActivityAnalyticsRepository
}

func NewAnalyticsHandler(analytics taskDomain.ActivityAnalyticsRepository) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// parseRange lee start/end (RFC3339) con un valor por defecto de 30 días.
func parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)

	if s := c.Query("start"); s != "" {
		v, err := time.Parse(time.RFC3339, s)
		if err != nil {
			utils.SendBadRequest(c, "invalid start, use RFC3339")
			return start, end, false
		}
		start = v
	}
	if s := c.Query("end"); s != "" {
		v, err := time.Parse(time.RFC3339, s)
		if err != nil {
			utils.SendBadRequest(c, "invalid end, use RFC3339")
			return start, end, false
		}
		end = v
	}
	if end.Before(start) {
		utils.SendBadRequest(c, "end must be after start")
		return start, end, false
	}
	return start, end, true
}

// DailyTrend endpoint GET /analytics/tasks/daily-trend
func (h *AnalyticsHandler) DailyTrend(c *gin.Context) {
	start, end, ok := parseRange(c)
	if !ok {
		return
	}

	trend, err := h.analytics.GetDailyTrend(c.Request.Context(), start, end)
	if err != nil {
		utils.SendInternalServerError(c, err.Error())
		return
	}

	utils.SendSuccess(c, http.StatusOK, trend)
}

// CompletionTime endpoint GET /analytics/tasks/completion-time
func (h *AnalyticsHandler) CompletionTime(c *gin.Context) {
	start, end, ok := parseRange(c)
	if !ok {
		return
	}

	avg, err := h.analytics.GetAverageCompletionTime(c.Request.Context(), start, end)
	if err != nil {
		utils.SendInternalServerError(c, err.Error())
		return
	}

	utils.SendSuccess(c, http.StatusOK, gin.H{
		"average_completion_seconds": avg.Seconds(),
	})
}

// RecentActivity endpoint GET /analytics/tasks/recent-activity
// Actividad reciente de un empleado, para los paneles de carga de trabajo.
func (h *AnalyticsHandler) RecentActivity(c *gin.Context) {
	actorID, err := uuid.Parse(c.Query("actor_id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid actor_id")
		return
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil {
			limit = v
		}
	}

	activities, err := h.analytics.ListRecentByActor(c.Request.Context(), actorID, limit)
	if err != nil {
		utils.SendInternalServerError(c, err.Error())
		return
	}

	utils.SendSuccess(c, http.StatusOK, activities)
}

// RegisterAnalyticsRoutes registra las rutas de analítica.
func RegisterAnalyticsRoutes(r *gin.Engine, handler *AnalyticsHandler) {
	analytics := r.Group("/analytics/tasks")
	{
		analytics.GET("/daily-trend", handler.DailyTrend)
		analytics.GET("/completion-time", handler.CompletionTime)
		analytics.GET("/recent-activity", handler.RecentActivity)
	}
}
