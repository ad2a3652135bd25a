package http

import (
	"net/http"

	"github.com/minsu-kang/taskhub-api/internal/http/handler"
	"github.com/minsu-kang/taskhub-api/internal/service"
)

func NewRouter(taskSvc *service.TaskService, authSvc *service.AuthService) http.Handler {
	mux := http.NewServeMux()

	// Health check - intentionally outside /api/v1 for ALB health check compatibility
	health := handler.NewHealthHandler()
	mux.Handle("/health", health)

	// Task CRUD + list API
	taskHandler := handler.NewTaskHandler(taskSvc)
	mux.Handle("/api/v1/tasks", taskHandler)
	mux.Handle("/api/v1/tasks/", taskHandler)

	// Registration, login, profile
	authHandler := handler.NewAuthHandler(authSvc)
	mux.Handle("/api/v1/auth/", authHandler)

	return mux
}
