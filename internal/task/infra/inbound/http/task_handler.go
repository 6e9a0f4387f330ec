package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	employeeDomain "github.com/davicafu/hrlab/internal/employee/domain"
	sharedDomain "github.com/davicafu/hrlab/internal/shared/domain"
	sharedQuery "github.com/davicafu/hrlab/internal/shared/infra/platform/query"
	"github.com/davicafu/hrlab/internal/task/application"
	"github.com/davicafu/hrlab/internal/task/domain"
	"github.com/davicafu/hrlab/pkg/utils"
)

// TaskHandler encapsula los endpoints HTTP del contexto de tareas.
type TaskHandler struct {
	tasks    *application.TaskService
	workflow *application.WorkflowService
	comments *application.CommentService
}

// NewTaskHandler crea un nuevo TaskHandler
func NewTaskHandler(tasks *application.TaskService, workflow *application.WorkflowService, comments *application.CommentService) *TaskHandler {
	return &TaskHandler{tasks: tasks, workflow: workflow, comments: comments}
}

// ---------------- Helpers ----------------

// actorUserID extrae la identidad autenticada de la cabecera X-User-ID.
// En producción la escribe el gateway tras validar el token.
func actorUserID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		utils.SendError(c, http.StatusUnauthorized, "missing X-User-ID header")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.SendError(c, http.StatusUnauthorized, "invalid X-User-ID header")
		return uuid.Nil, false
	}
	return id, true
}

// respondTaskError traduce los errores de dominio a códigos HTTP.
func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		utils.SendNotFound(c, "task not found")
	case errors.Is(err, domain.ErrCommentNotFound):
		utils.SendNotFound(c, "comment not found")
	case errors.Is(err, domain.ErrNotAllowed):
		utils.SendForbidden(c, err.Error())
	case errors.Is(err, employeeDomain.ErrEmployeeNotFound):
		// El actor autenticado no tiene perfil de empleado registrado.
		utils.SendForbidden(c, "actor is not a registered employee")
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidTask),
		errors.Is(err, domain.ErrInvalidComment):
		utils.SendBadRequest(c, err.Error())
	default:
		utils.SendInternalServerError(c, err.Error())
	}
}

func parseTaskID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid task id")
		return uuid.Nil, false
	}
	return id, true
}

// ---------------- Ciclo de vida ----------------

// CreateTask endpoint POST /tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := actorUserID(c)
	if !ok {
		return
	}

	var req struct {
		Title          string     `json:"title" binding:"required"`
		Description    string     `json:"description"`
		Type           string     `json:"type"`
		Priority       string     `json:"priority"`
		AssigneeID     *uuid.UUID `json:"assignee_id,omitempty"`
		DepartmentID   *uuid.UUID `json:"department_id,omitempty"`
		ParentTaskID   *uuid.UUID `json:"parent_task_id,omitempty"`
		DueDate        *string    `json:"due_date,omitempty"` // ISO8601, ej: 2026-01-31
		EstimatedHours *float64   `json:"estimated_hours,omitempty"`
		Tags           []string   `json:"tags,omitempty"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	params := domain.NewTaskParams{
		Title:          req.Title,
		Description:    req.Description,
		Type:           domain.TaskType(req.Type),
		Priority:       domain.Priority(req.Priority),
		AssigneeID:     req.AssigneeID,
		DepartmentID:   req.DepartmentID,
		ParentTaskID:   req.ParentTaskID,
		EstimatedHours: req.EstimatedHours,
		Tags:           req.Tags,
	}
	if req.DueDate != nil {
		due, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			utils.SendBadRequest(c, "invalid due_date format, use YYYY-MM-DD")
			return
		}
		params.DueDate = &due
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), actor, params)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusCreated, task)
}

// GetTask endpoint GET /tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTaskByID(c.Request.Context(), id)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, task)
}

// UpdateTask endpoint PUT /tasks/:id (solo campos descriptivos)
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := actorUserID(c)
	if !ok {
		return
	}
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	var req struct {
		Title          *string  `json:"title,omitempty"`
		Description    *string  `json:"description,omitempty"`
		Priority       *string  `json:"priority,omitempty"`
		DueDate        *string  `json:"due_date,omitempty"` // ISO8601
		EstimatedHours *float64 `json:"estimated_hours,omitempty"`
		Tags           []string `json:"tags,omitempty"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	params := domain.UpdateDetailsParams{
		Title:          req.Title,
		Description:    req.Description,
		EstimatedHours: req.EstimatedHours,
		Tags:           req.Tags,
	}
	if req.Priority != nil {
		p := domain.Priority(*req.Priority)
		params.Priority = &p
	}
	if req.DueDate != nil {
		due, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			utils.SendBadRequest(c, "invalid due_date format, use YYYY-MM-DD")
			return
		}
		params.DueDate = &due
	}

	task, err := h.workflow.UpdateTaskDetails(c.Request.Context(), id, actor, params)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, task)
}

// ListTasks endpoint GET /tasks
func (h *TaskHandler) ListTasks(c *gin.Context) {
	var criterias []sharedDomain.Criteria

	// --- Filtros desde query params ---
	if status := c.Query("status"); status != "" {
		criterias = append(criterias, domain.StatusCriteria{Status: domain.TaskStatus(status)})
	}

	if priority := c.Query("priority"); priority != "" {
		criterias = append(criterias, domain.PriorityCriteria{Priority: domain.Priority(priority)})
	}

	if taskType := c.Query("type"); taskType != "" {
		criterias = append(criterias, domain.TypeCriteria{Type: domain.TaskType(taskType)})
	}

	if title := c.Query("title"); title != "" {
		criterias = append(criterias, domain.TitleLikeCriteria{Title: title})
	}

	if idStr := c.Query("assignee_id"); idStr != "" {
		if id, err := uuid.Parse(idStr); err == nil {
			criterias = append(criterias, domain.AssigneeIDCriteria{ID: id})
		}
	}

	if idStr := c.Query("assigner_id"); idStr != "" {
		if id, err := uuid.Parse(idStr); err == nil {
			criterias = append(criterias, domain.AssignerIDCriteria{ID: id})
		}
	}

	// Rango de fechas de creación
	var start, end *time.Time
	if fromStr := c.Query("created_from"); fromStr != "" {
		if v, err := time.Parse(time.RFC3339, fromStr); err == nil {
			start = &v
		}
	}
	if toStr := c.Query("created_to"); toStr != "" {
		if v, err := time.Parse(time.RFC3339, toStr); err == nil {
			end = &v
		}
	}
	if start != nil || end != nil {
		criterias = append(criterias, domain.CreatedAtRangeCriteria{Start: start, End: end})
	}

	criteria := sharedDomain.CompositeCriteria{
		Operator:  sharedDomain.OpAnd,
		Criterias: criterias,
	}

	// --- Sort ---
	sortParam := sharedQuery.Sort{
		Field: "created_at",
		Desc:  true,
	}
	if sortField := c.Query("sort_field"); sortField != "" {
		sortParam.Field = sortField
		sortParam.Desc = c.Query("sort_desc") == "true"
	}

	// --- Paginación ---
	var pagination sharedQuery.Pagination
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil {
			limit = v
		}
	}

	if cursor := c.Query("cursor"); cursor != "" {
		pagination = sharedQuery.CursorPagination{
			Limit:     limit,
			Cursor:    cursor,
			SortField: sortParam.Field,
			SortDesc:  sortParam.Desc,
		}
	} else {
		offset := 0
		if offsetStr := c.Query("offset"); offsetStr != "" {
			if v, err := strconv.Atoi(offsetStr); err == nil {
				offset = v
			}
		}
		pagination = sharedQuery.OffsetPagination{
			Limit:  limit,
			Offset: offset,
		}
	}

	tasks, err := h.tasks.ListTasks(c.Request.Context(), criteria, pagination, sortParam)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, tasks)
}

// ---------------- Transiciones de estado ----------------

// AssignTask endpoint POST /tasks/:id/assign
func (h *TaskHandler) AssignTask(c *gin.Context) {
	actor, ok := actorUserID(c)
	if !ok {
		return
	}
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	var req struct {
		AssigneeID uuid.UUID `json:"assignee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	task, err := h.workflow.AssignTask(c.Request.Context(), id, actor, req.AssigneeID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, task)
}

// StartTask endpoint POST /tasks/:id/start
func (h *TaskHandler) StartTask(c *gin.Context) {
	actor, ok := actorUserID(c)
	if !ok {
		return
	}
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	task, err := h.workflow.StartTaskWork(c.Request.Context(), id, actor)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, task)
}

// UpdateProgress endpoint POST /tasks/:id/progress
func (h *TaskHandler) UpdateProgress(c *gin.Context) {
	actor, ok := actorUserID(c)
	if !ok {
		return
	}
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	var req struct {
		ProgressPercentage *int     `json:"progress_percentage" binding:"required"`
		ActualHours        *float64 `json:"actual_hours,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	task, err := h.workflow.UpdateTaskProgress(c.Request.Context(), id, actor, *req.ProgressPercentage, req.ActualHours)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, task)
}

// SubmitTask endpoint POST /tasks/:id/submit
func (h *TaskHandler) SubmitTask(c *gin.Context) {
	actor, ok := actorUserID(c)
	if !ok {
		return
	}
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	// El cuerpo es opcional: una entrega sin notas es válida.
	_ = c.ShouldBindJSON(&req)

	task, err := h.workflow.SubmitTaskForReview(c.Request.Context(), id, actor, req.Notes)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, task)
}

// StartReview endpoint POST /tasks/:id/review
func (h *TaskHandler) StartReview(c *gin.Context) {
	actor, ok := actorUserID(c)
	if !ok {
		return
	}
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	task, err := h.workflow.StartTaskReview(c.Request.Context(), id, actor)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, task)
}

// ApproveTask endpoint POST /tasks/:id/approve
func (h *TaskHandler) ApproveTask(c *gin.Context) {
	actor, ok := actorUserID(c)
	if !ok {
		return
	}
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&req)

	task, err := h.workflow.ApproveTask(c.Request.Context(), id, actor, req.Notes)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, task)
}

// RejectTask endpoint POST /tasks/:id/reject
func (h *TaskHandler) RejectTask(c *gin.Context) {
	actor, ok := actorUserID(c)
	if !ok {
		return
	}
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	task, err := h.workflow.RejectTask(c.Request.Context(), id, actor, req.Reason)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, task)
}

// CancelTask endpoint POST /tasks/:id/cancel
func (h *TaskHandler) CancelTask(c *gin.Context) {
	actor, ok := actorUserID(c)
	if !ok {
		return
	}
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	task, err := h.workflow.CancelTask(c.Request.Context(), id, actor, req.Reason)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, task)
}

// ---------------- Actividad y comentarios ----------------

// ListActivity endpoint GET /tasks/:id/activity
func (h *TaskHandler) ListActivity(c *gin.Context) {
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	activity, err := h.tasks.ListTaskActivity(c.Request.Context(), id)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, activity)
}

// AddComment endpoint POST /tasks/:id/comments
func (h *TaskHandler) AddComment(c *gin.Context) {
	actor, ok := actorUserID(c)
	if !ok {
		return
	}
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	var req struct {
		Body string `json:"body" binding:"required"`
		Type string `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	comment, err := h.comments.AddComment(c.Request.Context(), id, actor, req.Body, domain.CommentType(req.Type))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusCreated, comment)
}

// ListComments endpoint GET /tasks/:id/comments
func (h *TaskHandler) ListComments(c *gin.Context) {
	id, ok := parseTaskID(c)
	if !ok {
		return
	}

	comments, err := h.comments.ListComments(c.Request.Context(), id)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, comments)
}

// EditComment endpoint PUT /comments/:id
func (h *TaskHandler) EditComment(c *gin.Context) {
	actor, ok := actorUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid comment id")
		return
	}

	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	comment, err := h.comments.EditComment(c.Request.Context(), id, actor, req.Body)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, comment)
}

// DeleteComment endpoint DELETE /comments/:id
func (h *TaskHandler) DeleteComment(c *gin.Context) {
	actor, ok := actorUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid comment id")
		return
	}

	if err := h.comments.DeleteComment(c.Request.Context(), id, actor); err != nil {
		respondTaskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
