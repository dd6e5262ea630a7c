package handler

import (
	"fmt"
	"net/http"

	"dnslease/internal/model"
	"dnslease/internal/service"
	"dnslease/internal/util"
)

type RecordHandler struct {
	rec      *service.Reconciler
	guard    *service.Guard
	sessions Sessions
	audit    AuditLog
}

func NewRecordHandler(rec *service.Reconciler, guard *service.Guard, sessions Sessions, audit AuditLog) *RecordHandler {
	return &RecordHandler{rec: rec, guard: guard, sessions: sessions, audit: audit}
}

type recordRequest struct {
	Subdomain string  `json:"subdomain"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Value     string  `json:"value"`
	Proxied   *bool   `json:"proxied"`
	TTL       int     `json:"ttl"`
	Priority  *uint16 `json:"priority"`
}

func (req *recordRequest) spec() model.RecordSpec {
	spec := model.RecordSpec{
		Name:     req.Name,
		Type:     req.Type,
		Value:    req.Value,
		TTL:      req.TTL,
		Priority: req.Priority,
	}
	if spec.Type == "" {
		spec.Type = "A"
	}
	if spec.TTL == 0 {
		spec.TTL = 3600
	}
	spec.Proxied = req.Proxied == nil || *req.Proxied
	return spec
}

func (h *RecordHandler) authorize(w http.ResponseWriter, r *http.Request, req *recordRequest) (string, bool) {
	username, _ := h.sessions.GetUsername(r)
	if !decodeJSON(w, r, req) {
		return "", false
	}
	if req.Type != "" && !model.ValidRecordType(req.Type) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unsupported record type %q", req.Type)})
		return "", false
	}
	if err := h.guard.Authorize(username, req.Subdomain); err != nil {
		writeError(w, err)
		return "", false
	}
	return username, true
}

func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	username, ok := h.authorize(w, r, &req)
	if !ok {
		return
	}

	spec := req.spec()
	remote, err := h.rec.CreateRecord(r.Context(), req.Subdomain, spec)
	if err != nil {
		writeError(w, err)
		return
	}

	_ = h.audit.LogAudit(model.AuditEntry{
		Username:   username,
		Action:     "create_record",
		Subdomain:  req.Subdomain,
		RecordName: remote.Name,
		RecordType: spec.Type,
		Detail:     fmt.Sprintf("value=%s ttl=%d proxied=%t", spec.Value, spec.TTL, spec.Proxied),
		IPAddress:  util.GetClientIP(r),
	})

	writeJSON(w, http.StatusCreated, remote)
}

func (h *RecordHandler) Overwrite(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	username, ok := h.authorize(w, r, &req)
	if !ok {
		return
	}

	spec := req.spec()
	remote, err := h.rec.OverwriteRecord(r.Context(), req.Subdomain, spec)
	if err != nil {
		writeError(w, err)
		return
	}

	_ = h.audit.LogAudit(model.AuditEntry{
		Username:   username,
		Action:     "overwrite_record",
		Subdomain:  req.Subdomain,
		RecordName: remote.Name,
		RecordType: spec.Type,
		Detail:     fmt.Sprintf("value=%s ttl=%d proxied=%t", spec.Value, spec.TTL, spec.Proxied),
		IPAddress:  util.GetClientIP(r),
	})

	writeJSON(w, http.StatusOK, remote)
}

func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	username, ok := h.authorize(w, r, &req)
	if !ok {
		return
	}

	if err := h.rec.DeleteRecord(r.Context(), req.Subdomain, req.Name); err != nil {
		writeError(w, err)
		return
	}

	_ = h.audit.LogAudit(model.AuditEntry{
		Username:   username,
		Action:     "delete_record",
		Subdomain:  req.Subdomain,
		RecordName: req.Name,
		IPAddress:  util.GetClientIP(r),
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
