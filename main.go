package main

import (
	"flag"
	"log"

	"dnslease/internal/config"
	"dnslease/internal/server"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("=== dnslease — Subdomain Lease Manager ===")
	log.Printf("Version: %s", version)
	log.Printf("Listening on %s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Managing zone %s", cfg.Cloudflare.ZoneName)
	log.Printf("Default lease TTL: %d day(s), sweep every %s", cfg.Lease.DefaultTTLDays, cfg.Lease.SweepEvery)

	if err := server.Start(cfg, version); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
