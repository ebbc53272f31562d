package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/config"
	"github.com/mamadbah2/repairdesk/internal/repository/files"
	"github.com/mamadbah2/repairdesk/internal/repository/mongodb"
	"github.com/mamadbah2/repairdesk/internal/repository/sheets"
	"github.com/mamadbah2/repairdesk/internal/repository/tokens"
	"github.com/mamadbah2/repairdesk/internal/scheduler"
	"github.com/mamadbah2/repairdesk/internal/server/handlers"
	"github.com/mamadbah2/repairdesk/internal/server/router"
	"github.com/mamadbah2/repairdesk/internal/service/assistant"
	"github.com/mamadbah2/repairdesk/internal/service/clients"
	"github.com/mamadbah2/repairdesk/internal/service/documents"
	"github.com/mamadbah2/repairdesk/internal/service/factures"
	"github.com/mamadbah2/repairdesk/internal/service/formulaires"
	"github.com/mamadbah2/repairdesk/internal/service/interventions"
	"github.com/mamadbah2/repairdesk/internal/service/maintenance"
	"github.com/mamadbah2/repairdesk/internal/service/notify"
	"github.com/mamadbah2/repairdesk/internal/service/pieces"
	"github.com/mamadbah2/repairdesk/internal/service/prets"
	"github.com/mamadbah2/repairdesk/internal/service/reporting"
	"github.com/mamadbah2/repairdesk/internal/service/users"
	"github.com/mamadbah2/repairdesk/internal/service/vehicules"
	"github.com/mamadbah2/repairdesk/pkg/clients/anthropic"
	whatsappclient "github.com/mamadbah2/repairdesk/pkg/clients/whatsapp"
	"github.com/mamadbah2/repairdesk/pkg/logger"
)

const maintenanceCacheTTL = 5 * time.Second

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc := cfg.Location()
	time.Local = loc

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancelStart := context.WithTimeout(ctx, 30*time.Second)
	defer cancelStart()

	mongoRepo, err := mongodb.NewMongoDBRepository(startCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()
	if err := mongoRepo.EnsureIndexes(startCtx); err != nil {
		baseLogger.Fatal("failed to create mongodb indexes", zap.Error(err))
	}

	var blacklist users.Blacklist = tokens.NewMemoryBlacklist()
	if cfg.Redis.Addr != "" {
		redisBlacklist, err := tokens.NewRedisBlacklist(startCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			baseLogger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = redisBlacklist.Close() }()
		blacklist = redisBlacklist
		baseLogger.Info("redis token blacklist enabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		baseLogger.Warn("redis address missing, revoked tokens are kept in memory")
	}

	var objectStore files.Store
	if cfg.Storage.Endpoint != "" {
		minioStore, err := files.NewMinioStore(startCtx, cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Bucket, cfg.Storage.UseSSL)
		if err != nil {
			baseLogger.Fatal("failed to init object storage", zap.Error(err))
		}
		objectStore = minioStore
		baseLogger.Info("object storage enabled", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		baseLogger.Warn("minio endpoint missing, file uploads disabled")
	}
	uploader := files.NewUploader(objectStore, cfg.Server.MaxUploadBytes, baseLogger.Named("repo.files"))

	var notifier *notify.Service
	if cfg.WhatsApp.AccessToken != "" {
		notifier = notify.NewService(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.ManagerNumber, cfg.Business.CompanyName, baseLogger.Named("svc.notify"))
		baseLogger.Info("whatsapp notifications enabled")
	} else {
		baseLogger.Warn("whatsapp token missing, notifications disabled")
	}

	var aiClient anthropic.Client
	if cfg.AI.AnthropicKey != "" {
		aiClient = anthropic.NewClient(cfg.AI.AnthropicKey, cfg.AI.Timeout)
		baseLogger.Info("anthropic ai client enabled")
	} else {
		baseLogger.Warn("anthropic api key missing, assistant answers with kpi summaries only")
	}

	var sheet scheduler.RowAppender
	if cfg.Sheets.SpreadsheetID != "" {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(startCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheet = sheetsRepo
		baseLogger.Info("google sheets kpi export enabled")
	}

	clientRepo := mongoRepo.Clients()
	pieceRepo := mongoRepo.Pieces()
	interventionRepo := mongoRepo.Interventions()
	factureRepo := mongoRepo.Factures()
	deviceRepo := mongoRepo.AppareilsPret()
	pretRepo := mongoRepo.Prets()
	vehiculeRepo := mongoRepo.Vehicules()
	counters := mongoRepo.Counters()

	userSvc := users.NewService(mongoRepo.Users(), blacklist, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, baseLogger.Named("svc.users"))
	if err := userSvc.SeedAdmin(startCtx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		baseLogger.Fatal("failed to seed admin account", zap.Error(err))
	}

	var completionNotifier interventions.Notifier
	if notifier.Enabled() {
		completionNotifier = notifier
	}

	clientSvc := clients.NewService(clientRepo, interventionRepo, factureRepo, baseLogger.Named("svc.clients"))
	pieceSvc := pieces.NewService(pieceRepo, baseLogger.Named("svc.pieces"))
	interventionSvc := interventions.NewService(interventionRepo, clientRepo, pieceRepo, counters, completionNotifier, interventions.Defaults{
		ForfaitAtelier:  cfg.Business.ForfaitAtelier,
		ForfaitDomicile: cfg.Business.ForfaitDomicile,
		TauxHoraire:     cfg.Business.TauxHoraire,
	}, baseLogger.Named("svc.interventions"))
	factureSvc := factures.NewService(factureRepo, interventionRepo, clientRepo, counters, cfg.Business.TVA, baseLogger.Named("svc.factures"))
	pretSvc := prets.NewService(deviceRepo, pretRepo, clientRepo, baseLogger.Named("svc.prets"))
	vehiculeSvc := vehicules.NewService(vehiculeRepo, baseLogger.Named("svc.vehicules"))
	formulaireSvc := formulaires.NewService(mongoRepo.Formulaires(), baseLogger.Named("svc.formulaires"))
	maintenanceSvc := maintenance.NewService(mongoRepo.Maintenance(), maintenanceCacheTTL, baseLogger.Named("svc.maintenance"))
	reportingSvc := reporting.NewService(reporting.Sources{
		Interventions: interventionRepo,
		Factures:      factureRepo,
		Pieces:        pieceRepo,
		Prets:         pretRepo,
		Clients:       clientRepo,
		Vehicules:     vehiculeRepo,
	}, loc, baseLogger.Named("svc.reporting"))
	assistantSvc := assistant.NewService(mongoRepo.Conversations(), reportingSvc, aiClient, cfg.Business.CompanyName, loc, baseLogger.Named("svc.assistant"))
	documentSvc := documents.NewService(interventionRepo, factureRepo, clientRepo, pieceRepo, documents.Company{
		Name:    cfg.Business.CompanyName,
		Address: cfg.Business.CompanyAddress,
		SIRET:   cfg.Business.CompanySIRET,
	}, loc, baseLogger.Named("svc.documents"))

	handlerLogger := baseLogger.Named("handlers")
	engine := router.New(router.Handlers{
		Users:         handlers.NewUserHandler(userSvc, handlerLogger),
		Clients:       handlers.NewClientHandler(clientSvc, handlerLogger),
		Pieces:        handlers.NewPieceHandler(pieceSvc, documentSvc, handlerLogger),
		Interventions: handlers.NewInterventionHandler(interventionSvc, documentSvc, uploader, handlerLogger),
		Factures:      handlers.NewFactureHandler(factureSvc, documentSvc, handlerLogger),
		Prets:         handlers.NewPretHandler(pretSvc, handlerLogger),
		Vehicules:     handlers.NewVehiculeHandler(vehiculeSvc, uploader, handlerLogger),
		Formulaires:   handlers.NewFormulaireHandler(formulaireSvc, handlerLogger),
		Dashboard:     handlers.NewDashboardHandler(reportingSvc, handlerLogger),
		Assistant:     handlers.NewAssistantHandler(assistantSvc, handlerLogger),
		Maintenance:   handlers.NewMaintenanceHandler(maintenanceSvc, handlerLogger),
		Files:         handlers.NewFileHandler(uploader, handlerLogger),
	}, router.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Auth:           userSvc,
		Maintenance:    maintenanceSvc,
	}, baseLogger.Named("router"))

	var digest scheduler.DigestSender
	if notifier.Enabled() {
		digest = notifier
	}
	sched := scheduler.NewScheduler(cfg.Reporting.CronSchedule, loc, pretSvc, reportingSvc, digest, sheet, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
