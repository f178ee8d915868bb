package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"estate-admin/internal/approvallog"
	"estate-admin/internal/auth"
	"estate-admin/internal/config"
	"estate-admin/internal/credstore"
	"estate-admin/internal/server"
	"estate-admin/internal/upstream"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	gin.SetMode(cfg.GinMode)

	store := credstore.NewWithOptions(credstore.Options{StateFile: cfg.SessionFile})
	backend := upstream.NewClient(cfg.BackendAPIURL)

	var logs approvallog.Store
	switch {
	case cfg.ApprovalLogDSN != "":
		pgStore, err := approvallog.NewPostgresStore(context.Background(), cfg.ApprovalLogDSN)
		if err != nil {
			log.Fatal(err)
		}
		defer pgStore.Close()
		logs = pgStore
	case cfg.ApprovalLogFile != "":
		fileStore, err := approvallog.NewFileStore(cfg.ApprovalLogFile)
		if err != nil {
			log.Fatal(err)
		}
		logs = fileStore
	default:
		logs = approvallog.NewMemoryStore()
	}

	tokenCfg := auth.DefaultTokenConfig(cfg.MasterSecret)
	if cfg.TokenExpiry > 0 {
		tokenCfg.Expiry = cfg.TokenExpiry
	}

	router := server.NewRouter(server.Deps{
		Config:      cfg,
		Store:       store,
		Backend:     backend,
		Logs:        logs,
		TokenConfig: tokenCfg,
	})
	log.Printf("listening on %s (backend %s)", fmt.Sprintf(":%d", cfg.Port), cfg.BackendAPIURL)
	log.Fatal(server.Run(cfg, router))
}
