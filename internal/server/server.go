package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"dnslease/db"
	"dnslease/internal/auth"
	"dnslease/internal/cloudflare"
	"dnslease/internal/config"
	"dnslease/internal/database"
	"dnslease/internal/handler"
	"dnslease/internal/service"
)

func Start(cfg *config.Config, version string) error {
	store, err := database.Open(cfg.Database.DSN, db.MigrationsFS())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	sessionMgr, err := auth.NewSessionManager(store)
	if err != nil {
		return fmt.Errorf("failed to init session manager: %w", err)
	}

	_ = store.PurgeExpiredSessions()

	provider, err := cloudflare.New(cfg.Cloudflare.APIToken, cfg.Cloudflare.ZoneID, cfg.Cloudflare.ZoneName)
	if err != nil {
		return fmt.Errorf("failed to init DNS provider: %w", err)
	}

	reconciler := service.NewReconciler(store, provider)
	leases := service.NewLeaseManager(store, reconciler, cfg.Lease.DefaultTTLDays)
	guard := service.NewGuard(store)
	sweeper := service.NewSweeper(store, reconciler, cfg.Lease.SweepEvery)

	// Initialize LDAP client (nil if disabled)
	var ldapClient *auth.LDAPClient
	if cfg.LDAP.Enabled {
		ldapClient = auth.NewLDAPClient(cfg.LDAP)
		log.Println("LDAP authentication enabled")
		log.Printf("LDAP server: %s", cfg.LDAP.URL)
		log.Printf("LDAP groups mapped: %d role(s)", len(cfg.LDAP.GroupMapping))
	}

	setupH := handler.NewSetupHandler(store)
	authH := handler.NewAuthHandler(store, sessionMgr, ldapClient)
	domainH := handler.NewDomainHandler(leases, guard, sessionMgr, store)
	recordH := handler.NewRecordHandler(reconciler, guard, sessionMgr, store)
	adminH := handler.NewAdminHandler(store, sessionMgr)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/setup", setupH.Setup)
	mux.HandleFunc("POST /api/login", authH.Login)
	mux.HandleFunc("POST /api/logout", authH.Logout)
	mux.HandleFunc("GET /api/me", authH.Me)

	mux.HandleFunc("GET /api/available/{name}", domainH.Available)

	mux.HandleFunc("POST /api/register", sessionMgr.RequireAuth(sessionMgr.ValidateCSRF(domainH.Register)))
	mux.HandleFunc("GET /api/domains", sessionMgr.RequireAuth(domainH.List))
	mux.HandleFunc("GET /api/domains/{name}/records", sessionMgr.RequireAuth(domainH.Records))
	mux.HandleFunc("DELETE /api/domains/{name}", sessionMgr.RequireAuth(sessionMgr.ValidateCSRF(domainH.Release)))

	mux.HandleFunc("POST /api/record", sessionMgr.RequireAuth(sessionMgr.ValidateCSRF(recordH.Create)))
	mux.HandleFunc("PUT /api/record", sessionMgr.RequireAuth(sessionMgr.ValidateCSRF(recordH.Overwrite)))
	mux.HandleFunc("DELETE /api/record", sessionMgr.RequireAuth(sessionMgr.ValidateCSRF(recordH.Delete)))

	mux.HandleFunc("GET /api/admin/users", sessionMgr.RequireAdmin(adminH.ListUsers))
	mux.HandleFunc("POST /api/admin/users", sessionMgr.RequireAdmin(sessionMgr.ValidateCSRF(adminH.CreateUser)))
	mux.HandleFunc("PUT /api/admin/users/{username}", sessionMgr.RequireAdmin(sessionMgr.ValidateCSRF(adminH.UpdateUser)))
	mux.HandleFunc("DELETE /api/admin/users/{username}", sessionMgr.RequireAdmin(sessionMgr.ValidateCSRF(adminH.DeleteUser)))
	mux.HandleFunc("GET /api/admin/audit", sessionMgr.RequireAdmin(adminH.AuditLog))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("dnslease %s listening on %s", version, addr)
	return http.ListenAndServe(addr, mux)
}
