package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/hrlab/internal/employee/application"
	"github.com/davicafu/hrlab/internal/employee/domain"
	sharedDomain "github.com/davicafu/hrlab/internal/shared/domain"
	sharedQuery "github.com/davicafu/hrlab/internal/shared/infra/platform/query"
	"github.com/davicafu/hrlab/pkg/utils"
)

// EmployeeHandler encapsula los endpoints HTTP del contexto de empleados.
type EmployeeHandler struct {
	employees *application.EmployeeService
	review    *application.AdminReviewService
}

// NewEmployeeHandler crea un nuevo EmployeeHandler
func NewEmployeeHandler(employees *application.EmployeeService, review *application.AdminReviewService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, review: review}
}

// ---------------- Helpers ----------------

// actorUserID extrae la identidad autenticada de la cabecera X-User-ID.
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

// respondEmployeeError traduce los errores de dominio a códigos HTTP.
func respondEmployeeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEmployeeNotFound):
		utils.SendNotFound(c, "employee not found")
	case errors.Is(err, domain.ErrNotAllowed):
		utils.SendForbidden(c, err.Error())
	case errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrEmployeeAlreadyExists):
		utils.SendConflict(c, err.Error())
	case errors.Is(err, domain.ErrInvalidEmployee),
		errors.Is(err, domain.ErrInvalidVerificationState),
		errors.Is(err, domain.ErrDocumentsIncomplete):
		utils.SendBadRequest(c, err.Error())
	default:
		utils.SendInternalServerError(c, err.Error())
	}
}

func parseEmployeeID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid employee id")
		return uuid.Nil, false
	}
	return id, true
}

// ---------------- CRUD del perfil ----------------

// CreateEmployee endpoint POST /employees
func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	var req struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
		Email  string    `json:"email" binding:"required,email"`
		Name   string    `json:"name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	employee, err := h.employees.CreateEmployee(c.Request.Context(), req.UserID, req.Email, req.Name)
	if err != nil {
		respondEmployeeError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusCreated, employee)
}

// GetEmployee endpoint GET /employees/:id
func (h *EmployeeHandler) GetEmployee(c *gin.Context) {
	id, ok := parseEmployeeID(c)
	if !ok {
		return
	}

	employee, err := h.employees.GetEmployeeByID(c.Request.Context(), id)
	if err != nil {
		respondEmployeeError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, employee)
}

// UpdateEmployee endpoint PUT /employees/:id
// Acepta expected_version para escritura con concurrencia optimista: si la
// versión almacenada no coincide, responde 409.
func (h *EmployeeHandler) UpdateEmployee(c *gin.Context) {
	id, ok := parseEmployeeID(c)
	if !ok {
		return
	}

	var req struct {
		Name            *string    `json:"name,omitempty"`
		Email           *string    `json:"email,omitempty"`
		DepartmentID    *uuid.UUID `json:"department_id,omitempty"`
		ExpectedVersion *int       `json:"expected_version,omitempty"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	params := domain.UpdateContactParams{
		Name:         req.Name,
		Email:        req.Email,
		DepartmentID: req.DepartmentID,
	}

	employee, err := h.employees.UpdateEmployee(c.Request.Context(), id, params, req.ExpectedVersion)
	if err != nil {
		respondEmployeeError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, employee)
}

// DeleteEmployee endpoint DELETE /employees/:id
func (h *EmployeeHandler) DeleteEmployee(c *gin.Context) {
	id, ok := parseEmployeeID(c)
	if !ok {
		return
	}

	if err := h.employees.DeleteEmployee(c.Request.Context(), id); err != nil {
		respondEmployeeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListEmployees endpoint GET /employees
func (h *EmployeeHandler) ListEmployees(c *gin.Context) {
	var criterias []sharedDomain.Criteria

	// --- Filtros desde query params ---
	if status := c.Query("status"); status != "" {
		criterias = append(criterias, domain.VerificationStatusCriteria{Status: domain.VerificationStatus(status)})
	}

	if email := c.Query("email"); email != "" {
		criterias = append(criterias, domain.EmailCriteria{Email: email})
	}

	if name := c.Query("name"); name != "" {
		criterias = append(criterias, domain.NameLikeCriteria{Name: name})
	}

	if idStr := c.Query("department_id"); idStr != "" {
		if id, err := uuid.Parse(idStr); err == nil {
			criterias = append(criterias, domain.DepartmentCriteria{DepartmentID: id})
		}
	}

	if manager := c.Query("manager"); manager != "" {
		criterias = append(criterias, domain.ManagerCriteria{Manager: manager == "true"})
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
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil {
			limit = v
		}
	}
	offset := 0
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if v, err := strconv.Atoi(offsetStr); err == nil {
			offset = v
		}
	}
	pagination := sharedQuery.OffsetPagination{
		Limit:  limit,
		Offset: offset,
	}

	employees, err := h.employees.ListEmployees(c.Request.Context(), criteria, pagination, sortParam)
	if err != nil {
		respondEmployeeError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, employees)
}

// ---------------- Pipeline de verificación ----------------

// SubmitProfile endpoint POST /employees/:id/verification/submit
func (h *EmployeeHandler) SubmitProfile(c *gin.Context) {
	id, ok := parseEmployeeID(c)
	if !ok {
		return
	}

	employee, err := h.employees.SubmitProfile(c.Request.Context(), id)
	if err != nil {
		respondEmployeeError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, employee)
}

// ResubmitProfile endpoint POST /employees/:id/verification/resubmit
func (h *EmployeeHandler) ResubmitProfile(c *gin.Context) {
	id, ok := parseEmployeeID(c)
	if !ok {
		return
	}

	employee, err := h.employees.ResubmitProfile(c.Request.Context(), id)
	if err != nil {
		respondEmployeeError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, employee)
}

// ApproveDetails endpoint POST /employees/:id/verification/approve-details
func (h *EmployeeHandler) ApproveDetails(c *gin.Context) {
	reviewer, ok := actorUserID(c)
	if !ok {
		return
	}
	id, ok := parseEmployeeID(c)
	if !ok {
		return
	}

	employee, err := h.review.ApproveDetailsReview(c.Request.Context(), reviewer, id)
	if err != nil {
		respondEmployeeError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, employee)
}

// ApproveDocuments endpoint POST /employees/:id/verification/approve-documents
func (h *EmployeeHandler) ApproveDocuments(c *gin.Context) {
	reviewer, ok := actorUserID(c)
	if !ok {
		return
	}
	id, ok := parseEmployeeID(c)
	if !ok {
		return
	}

	employee, err := h.review.ApproveDocumentsReview(c.Request.Context(), reviewer, id)
	if err != nil {
		respondEmployeeError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, employee)
}

// AssignRole endpoint POST /employees/:id/verification/assign-role
func (h *EmployeeHandler) AssignRole(c *gin.Context) {
	reviewer, ok := actorUserID(c)
	if !ok {
		return
	}
	id, ok := parseEmployeeID(c)
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	employee, err := h.review.AssignRoleAndAdvance(c.Request.Context(), reviewer, id, req.Role)
	if err != nil {
		respondEmployeeError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, employee)
}

// FinalApprove endpoint POST /employees/:id/verification/final-approve
func (h *EmployeeHandler) FinalApprove(c *gin.Context) {
	reviewer, ok := actorUserID(c)
	if !ok {
		return
	}
	id, ok := parseEmployeeID(c)
	if !ok {
		return
	}

	employee, err := h.review.FinalApproveEmployee(c.Request.Context(), reviewer, id)
	if err != nil {
		respondEmployeeError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, employee)
}

// RejectProfile endpoint POST /employees/:id/verification/reject
func (h *EmployeeHandler) RejectProfile(c *gin.Context) {
	reviewer, ok := actorUserID(c)
	if !ok {
		return
	}
	id, ok := parseEmployeeID(c)
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

	employee, err := h.review.RejectEmployeeProfile(c.Request.Context(), reviewer, id, req.Reason)
	if err != nil {
		respondEmployeeError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, employee)
}

// ---------------- Documentos ----------------

// UploadDocument endpoint POST /employees/:id/documents
func (h *EmployeeHandler) UploadDocument(c *gin.Context) {
	id, ok := parseEmployeeID(c)
	if !ok {
		return
	}

	var req struct {
		Type     string `json:"type" binding:"required"`
		FileName string `json:"file_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	doc, err := h.employees.UploadDocument(c.Request.Context(), id, domain.DocumentType(req.Type), req.FileName)
	if err != nil {
		respondEmployeeError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusCreated, doc)
}

// ListDocuments endpoint GET /employees/:id/documents
func (h *EmployeeHandler) ListDocuments(c *gin.Context) {
	id, ok := parseEmployeeID(c)
	if !ok {
		return
	}

	docs, err := h.employees.ListDocuments(c.Request.Context(), id)
	if err != nil {
		respondEmployeeError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, docs)
}

// ReviewDocument endpoint POST /documents/:id/review
func (h *EmployeeHandler) ReviewDocument(c *gin.Context) {
	reviewer, ok := actorUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid document id")
		return
	}

	var req struct {
		Approve *bool `json:"approve" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	doc, err := h.review.ReviewDocument(c.Request.Context(), reviewer, id, *req.Approve)
	if err != nil {
		respondEmployeeError(c, err)
		return
	}

	utils.SendSuccess(c, http.StatusOK, doc)
}
