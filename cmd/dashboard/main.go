package main

import (
	"log"

	"quaver/internal/config"
	"quaver/internal/dashboard"
	"quaver/internal/history"
	v "quaver/internal/version"
)

func main() {
	log.Printf("[INFO] Starting %v dashboard...", v.AppName)

	cfg, err := config.NewDashboard()
	if err != nil {
		log.Fatal(err)
	}

	hist, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer hist.Close()

	srv := dashboard.NewServer(hist)
	log.Printf("[INFO] Dashboard listening on %s", cfg.DashboardAddr)
	if err := srv.Run(cfg.DashboardAddr); err != nil {
		log.Fatal(err)
	}
}
