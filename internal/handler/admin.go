package handler

import (
	"net/http"
	"strconv"

	"dnslease/internal/database"
	"dnslease/internal/model"
	"dnslease/internal/util"
)

type AdminHandler struct {
	db       *database.DB
	sessions Sessions
}

func NewAdminHandler(db *database.DB, sessions Sessions) *AdminHandler {
	return &AdminHandler{db: db, sessions: sessions}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.db.ListUsers()
	if err != nil {
		writeError(w, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	admin, _ := h.sessions.GetUsername(r)

	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username required and password must be at least 8 characters"})
		return
	}
	if req.Role != "admin" && req.Role != "user" {
		req.Role = "user"
	}

	if err := h.db.CreateUser(req.Username, req.Password, req.Role); err != nil {
		writeError(w, err)
		return
	}

	_ = h.db.LogAudit(model.AuditEntry{
		Username:  admin,
		Action:    "create_user",
		Detail:    "user=" + req.Username + " role=" + req.Role,
		IPAddress: util.GetClientIP(r),
	})

	writeJSON(w, http.StatusCreated, map[string]string{"status": "user created"})
}

type updateUserRequest struct {
	Password string `json:"password"`
	Active   *bool  `json:"active"`
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	admin, _ := h.sessions.GetUsername(r)
	username := r.PathValue("username")

	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.db.GetUserByUsername(username)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	if req.Password != "" {
		if len(req.Password) < 8 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
			return
		}
		if err := h.db.UpdateUserPassword(username, req.Password); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Active != nil {
		if username == admin && !*req.Active {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot deactivate your own account"})
			return
		}
		if err := h.db.SetUserActive(username, *req.Active); err != nil {
			writeError(w, err)
			return
		}
	}

	_ = h.db.LogAudit(model.AuditEntry{
		Username:  admin,
		Action:    "update_user",
		Detail:    "user=" + username,
		IPAddress: util.GetClientIP(r),
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "user updated"})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	admin, _ := h.sessions.GetUsername(r)
	username := r.PathValue("username")

	if username == admin {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot delete your own account"})
		return
	}

	if err := h.db.DeleteUser(username); err != nil {
		writeError(w, err)
		return
	}

	_ = h.db.LogAudit(model.AuditEntry{
		Username:  admin,
		Action:    "delete_user",
		Detail:    "user=" + username,
		IPAddress: util.GetClientIP(r),
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "user deleted"})
}

func (h *AdminHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	entries, total, err := h.db.ListAuditLog(limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":   total,
		"entries": entries,
	})
}
