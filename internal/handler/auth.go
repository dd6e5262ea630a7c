package handler

import (
	"fmt"
	"net/http"
	"strings"

	"dnslease/internal/auth"
	"dnslease/internal/database"
	"dnslease/internal/model"
	"dnslease/internal/util"
)

type AuthHandler struct {
	db         *database.DB
	sessionMgr *auth.SessionManager
	ldap       *auth.LDAPClient
}

func NewAuthHandler(db *database.DB, sm *auth.SessionManager, ldap *auth.LDAPClient) *AuthHandler {
	return &AuthHandler{db: db, sessionMgr: sm, ldap: ldap}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var user *model.User
	var authMethod string

	// Try LDAP first (if enabled)
	if h.ldap != nil {
		result, err := h.ldap.Authenticate(req.Username, req.Password)
		if err == nil && result != nil {
			role, allowed := h.ldap.ResolveRole(result.Groups)
			if !allowed {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "access denied: you are not in an authorized group"})
				return
			}

			// Auto-provision or update user. The email attribute, when
			// mapped, becomes the account name so that lease ownership
			// follows the address rather than the directory login.
			username := result.Username
			if result.Email != "" {
				username = result.Email
			}
			username = strings.ToLower(username)
			_ = h.db.CreateLDAPUser(username, role)
			user, _ = h.db.GetUserByUsername(username)
			authMethod = "ldap"
		}
	}

	// Local fallback — only for admin when LDAP is enabled
	if user == nil {
		u, err := h.db.AuthenticateUser(req.Username, req.Password)
		if err == nil && u != nil {
			if h.ldap != nil && u.Role != "admin" {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "local login is disabled, use LDAP credentials"})
				return
			}
			user = u
			authMethod = "local"
		}
	}

	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	csrfToken := h.sessionMgr.CreateSession(w, user.Username)

	_ = h.db.LogAudit(model.AuditEntry{
		Username:  user.Username,
		Action:    "login",
		Detail:    fmt.Sprintf("auth=%s", authMethod),
		IPAddress: util.GetClientIP(r),
	})

	writeJSON(w, http.StatusOK, map[string]string{
		"username":   user.Username,
		"role":       user.Role,
		"csrf_token": csrfToken,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	username, _ := h.sessionMgr.GetUsername(r)

	h.sessionMgr.DestroySession(w, r)

	if username != "" {
		_ = h.db.LogAudit(model.AuditEntry{
			Username:  username,
			Action:    "logout",
			IPAddress: util.GetClientIP(r),
		})
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	username, ok := h.sessionMgr.GetUsername(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	user, err := h.db.GetUserByUsername(username)
	if err != nil || user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unknown user"})
		return
	}

	subdomains, err := h.db.OwnerSubdomains(strings.ToLower(username))
	if err != nil {
		writeError(w, err)
		return
	}
	if subdomains == nil {
		subdomains = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"username":   user.Username,
		"role":       user.Role,
		"subdomains": subdomains,
	})
}
