package handler

import (
	"fmt"
	"net/http"

	"dnslease/internal/model"
	"dnslease/internal/service"
	"dnslease/internal/util"
)

type DomainHandler struct {
	leases   *service.LeaseManager
	guard    *service.Guard
	sessions Sessions
	audit    AuditLog
}

func NewDomainHandler(leases *service.LeaseManager, guard *service.Guard, sessions Sessions, audit AuditLog) *DomainHandler {
	return &DomainHandler{leases: leases, guard: guard, sessions: sessions, audit: audit}
}

type registerRequest struct {
	Subdomain string `json:"subdomain"`
	TTLDays   int    `json:"ttl_days"`
}

func (h *DomainHandler) Register(w http.ResponseWriter, r *http.Request) {
	username, _ := h.sessions.GetUsername(r)

	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lease, err := h.leases.Register(r.Context(), req.Subdomain, username, req.TTLDays)
	if err != nil {
		writeError(w, err)
		return
	}

	_ = h.audit.LogAudit(model.AuditEntry{
		Username:  username,
		Action:    "register_domain",
		Subdomain: lease.SubdomainName,
		Detail:    fmt.Sprintf("expires %s", lease.ExpireAt.Format("2006-01-02")),
		IPAddress: util.GetClientIP(r),
	})

	writeJSON(w, http.StatusCreated, lease)
}

func (h *DomainHandler) Available(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	available, err := h.leases.IsAvailable(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":      name,
		"available": available,
	})
}

func (h *DomainHandler) List(w http.ResponseWriter, r *http.Request) {
	username, _ := h.sessions.GetUsername(r)
	leases, err := h.leases.LeasesFor(username)
	if err != nil {
		writeError(w, err)
		return
	}
	if leases == nil {
		leases = []model.Lease{}
	}
	writeJSON(w, http.StatusOK, leases)
}

func (h *DomainHandler) Records(w http.ResponseWriter, r *http.Request) {
	username, _ := h.sessions.GetUsername(r)
	name := r.PathValue("name")

	if err := h.guard.Authorize(username, name); err != nil {
		writeError(w, err)
		return
	}

	lease, err := h.leases.Lease(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lease.Records)
}

func (h *DomainHandler) Release(w http.ResponseWriter, r *http.Request) {
	username, _ := h.sessions.GetUsername(r)
	name := r.PathValue("name")

	if err := h.guard.Authorize(username, name); err != nil {
		writeError(w, err)
		return
	}

	if err := h.leases.Release(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}

	_ = h.audit.LogAudit(model.AuditEntry{
		Username:  username,
		Action:    "release_domain",
		Subdomain: name,
		IPAddress: util.GetClientIP(r),
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "released"})
}
