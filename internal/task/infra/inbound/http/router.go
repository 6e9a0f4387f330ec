package http

import "github.com/gin-gonic/gin"

func RegisterTaskRoutes(r *gin.Engine, handler *TaskHandler) {
	tasks := r.Group("/tasks")
	{
		tasks.POST("/", handler.CreateTask)
		tasks.GET("/", handler.ListTasks)
		tasks.GET("/:id", handler.GetTask)
		tasks.PUT("/:id", handler.UpdateTask)

		// Transiciones del flujo de trabajo
		tasks.POST("/:id/assign", handler.AssignTask)
		tasks.POST("/:id/start", handler.StartTask)
		tasks.POST("/:id/progress", handler.UpdateProgress)
		tasks.POST("/:id/submit", handler.SubmitTask)
		tasks.POST("/:id/review", handler.StartReview)
		tasks.POST("/:id/approve", handler.ApproveTask)
		tasks.POST("/:id/reject", handler.RejectTask)
		tasks.POST("/:id/cancel", handler.CancelTask)

		// Auditoría y discusión
		tasks.GET("/:id/activity", handler.ListActivity)
		tasks.GET("/:id/comments", handler.ListComments)
		tasks.POST("/:id/comments", handler.AddComment)
	}

	// La edición y el borrado de comentarios van por su propio recurso.
	comments := r.Group("/comments")
	{
		comments.PUT("/:id", handler.EditComment)
		comments.DELETE("/:id", handler.DeleteComment)
	}
}
