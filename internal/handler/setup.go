package handler

import (
	"net/http"

	"dnslease/internal/database"
	"dnslease/internal/model"
	"dnslease/internal/util"
)

type SetupHandler struct {
	db *database.DB
}

func NewSetupHandler(db *database.DB) *SetupHandler {
	return &SetupHandler{db: db}
}

type setupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Setup creates the initial admin account. Only works while the user
// table is empty.
func (h *SetupHandler) Setup(w http.ResponseWriter, r *http.Request) {
	hasUsers, err := h.db.HasUsers()
	if err != nil {
		writeError(w, err)
		return
	}
	if hasUsers {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "setup already completed"})
		return
	}

	var req setupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username required and password must be at least 8 characters"})
		return
	}

	if err := h.db.CreateUser(req.Username, req.Password, "admin"); err != nil {
		writeError(w, err)
		return
	}

	_ = h.db.LogAudit(model.AuditEntry{
		Username:  req.Username,
		Action:    "setup",
		Detail:    "initial admin created",
		IPAddress: util.GetClientIP(r),
	})

	writeJSON(w, http.StatusCreated, map[string]string{"status": "admin created"})
}
