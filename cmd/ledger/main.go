package main

import (
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/iurnickita/ledger/internal/auth"
	"github.com/iurnickita/ledger/internal/config"
	"github.com/iurnickita/ledger/internal/handler"
	"github.com/iurnickita/ledger/internal/logger"
	"github.com/iurnickita/ledger/internal/service"
	"github.com/iurnickita/ledger/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.GetConfig()

	auth := auth.NewAuth(cfg.Auth)
	if cfg.IssueTokenFor != "" {
		token, err := auth.IssueToken(cfg.IssueTokenFor)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	}

	zaplog, err := logger.NewZapLog(cfg.Logger)
	if err != nil {
		return err
	}
	defer zaplog.Sync()

	store, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Auth.Secret == "" {
		zaplog.Warn("no auth secret configured, API is open")
	}

	service := service.NewService(cfg.Service, store, nil, zaplog)

	err = handler.Serve(cfg.Handler, auth, service, zaplog)
	if err != nil {
		zaplog.Error("server stopped", zap.Error(err))
	}
	return err
}
