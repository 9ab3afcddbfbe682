package main

import (
	"fmt"
	"os"

	"github.com/nursan/oiltrade-rates/internal/auth"
	"github.com/nursan/oiltrade-rates/internal/config"
	"github.com/nursan/oiltrade-rates/internal/db"
	"github.com/nursan/oiltrade-rates/internal/excel"
	httphandler "github.com/nursan/oiltrade-rates/internal/http"
	"github.com/nursan/oiltrade-rates/internal/http/middleware"
	"github.com/nursan/oiltrade-rates/internal/logger"
	"github.com/nursan/oiltrade-rates/internal/pdf"
	"github.com/nursan/oiltrade-rates/internal/repository"
	"github.com/nursan/oiltrade-rates/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	materialRepo := repository.NewMaterialRepository(database)
	contractRepo := repository.NewContractRepository(database)

	approvalVerifier := auth.NewApprovalTokenVerifier(cfg.Auth.ApprovalSecret)
	sheetGenerator := excel.NewGenerator()
	pdfGenerator := pdf.NewGenerator()

	orderService := service.NewOrderService(materialRepo, contractRepo, approvalVerifier, sheetGenerator, pdfGenerator, cfg, nil)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(orderService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting rates service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
