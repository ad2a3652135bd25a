package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/minsu-kang/taskhub-api/internal/middleware"
	"github.com/minsu-kang/taskhub-api/internal/model"
	"github.com/minsu-kang/taskhub-api/internal/service"
)

type TaskHandler struct {
	svc *service.TaskService
}

func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// ServeHTTP routes /api/v1/tasks and /api/v1/tasks/{id}[/status],
// plus /api/v1/tasks/priority/{priority}.
func (h *TaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/tasks")
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	head := parts[0]
	subPath := ""
	if len(parts) > 1 {
		subPath = parts[1]
	}

	// /api/v1/tasks/priority/{priority}
	if head == "priority" {
		h.handleListByPriority(w, r, subPath)
		return
	}

	// /api/v1/tasks/{id}/status
	if head != "" && subPath == "status" {
		h.handleUpdateStatus(w, r, head)
		return
	}

	// /api/v1/tasks/{id}
	if head != "" {
		switch r.Method {
		case http.MethodGet:
			h.handleGetByID(w, r, head)
		case http.MethodPut:
			h.handleUpdate(w, r, head)
		case http.MethodDelete:
			h.handleDelete(w, r, head)
		default:
			WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		}
		return
	}

	// /api/v1/tasks
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date,omitempty"`
	Priority    *string `json:"priority,omitempty"`
}

func (h *TaskHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	input := service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
	}

	task, err := h.svc.Create(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) handleGetByID(w http.ResponseWriter, r *http.Request, taskID string) {
	userID := getUserID(r)

	task, err := h.svc.GetByID(r.Context(), userID, taskID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, task)
}

type updateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Status      *string `json:"status,omitempty"`
}

func (h *TaskHandler) handleUpdate(w http.ResponseWriter, r *http.Request, taskID string) {
	userID := getUserID(r)

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	input := service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Status:      req.Status,
	}

	task, err := h.svc.Update(r.Context(), userID, taskID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) handleDelete(w http.ResponseWriter, r *http.Request, taskID string) {
	userID := getUserID(r)

	if err := h.svc.Delete(r.Context(), userID, taskID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *TaskHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request, taskID string) {
	if r.Method != http.MethodPatch {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	userID := getUserID(r)

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	task, err := h.svc.UpdateStatus(r.Context(), userID, taskID, model.TaskStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	query := r.URL.Query()

	params := model.TaskListParams{
		UserID: userID,
		Search: query.Get("search"),
	}

	// Non-numeric page/limit fall back to defaults; unknown enum values are
	// rejected so clients learn about typos instead of silently seeing "all".
	params.Page = 1
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p >= 1 {
			params.Page = p
		}
	}

	params.Limit = 10
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			params.Limit = l
		}
	}

	if priorityStr := query.Get("priority"); priorityStr != "" && priorityStr != "all" {
		priority := model.TaskPriority(priorityStr)
		if !priority.IsValid() {
			WriteError(w, http.StatusBadRequest, "INVALID_PRIORITY", "priority must be 'low', 'medium', 'high', or 'all'")
			return
		}
		params.Priority = &priority
	}

	if statusStr := query.Get("status"); statusStr != "" && statusStr != "all" {
		status := model.TaskStatus(statusStr)
		if !status.IsValid() {
			WriteError(w, http.StatusBadRequest, "INVALID_STATUS", "status must be 'pending', 'in-progress', 'completed', or 'all'")
			return
		}
		params.Status = &status
	}

	result, err := h.svc.List(r.Context(), params)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

func (h *TaskHandler) handleListByPriority(w http.ResponseWriter, r *http.Request, priorityStr string) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	userID := getUserID(r)

	tasks, err := h.svc.ListByPriority(r.Context(), userID, model.TaskPriority(priorityStr))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tasks)
}

func getUserID(r *http.Request) string {
	return middleware.GetUserID(r)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, service.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		WriteError(w, http.StatusConflict, "EMAIL_TAKEN", "email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
