package http

import "github.com/gin-gonic/gin"

func RegisterEmployeeRoutes(r *gin.Engine, handler *EmployeeHandler) {
	employees := r.Group("/employees")
	{
		employees.POST("/", handler.CreateEmployee)
		employees.GET("/", handler.ListEmployees)
		employees.GET("/:id", handler.GetEmployee)
		employees.PUT("/:id", handler.UpdateEmployee)
		employees.DELETE("/:id", handler.DeleteEmployee)

		// Pipeline de verificación
		employees.POST("/:id/verification/submit", handler.SubmitProfile)
		employees.POST("/:id/verification/resubmit", handler.ResubmitProfile)
		employees.POST("/:id/verification/approve-details", handler.ApproveDetails)
		employees.POST("/:id/verification/approve-documents", handler.ApproveDocuments)
		employees.POST("/:id/verification/assign-role", handler.AssignRole)
		employees.POST("/:id/verification/final-approve", handler.FinalApprove)
		employees.POST("/:id/verification/reject", handler.RejectProfile)

		// Documentos del expediente
		employees.POST("/:id/documents", handler.UploadDocument)
		employees.GET("/:id/documents", handler.ListDocuments)
	}

	documents := r.Group("/documents")
	{
		documents.POST("/:id/review", handler.ReviewDocument)
	}
}
