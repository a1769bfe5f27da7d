package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	httpadp "prescreen-engine/internal/adapter/http"
	"prescreen-engine/internal/adapter/middleware"
	"prescreen-engine/internal/adapter/repository/mysql"
	"prescreen-engine/internal/bureau"
	"prescreen-engine/internal/config"
	"prescreen-engine/internal/domain/audit"
	"prescreen-engine/internal/infrastructure/cache"
	"prescreen-engine/internal/infrastructure/db"
	"prescreen-engine/internal/usecase/auditlog"
	leaduc "prescreen-engine/internal/usecase/lead"
	"prescreen-engine/internal/usecase/prescreen"
	programuc "prescreen-engine/internal/usecase/program"
	"prescreen-engine/internal/usecase/retryqueue"
	"prescreen-engine/pkg/fieldcrypt"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	enc, err := fieldcrypt.New(cfg.FieldEncKey)
	if err != nil {
		log.Fatalf("fieldcrypt: %v", err)
	}

	gw := bureau.NewClient(bureau.Config{
		BaseURL:   cfg.BureauBaseURL,
		Username:  cfg.BureauUsername,
		Password:  cfg.BureauPassword,
		CompanyID: cfg.BureauCompanyID,
	})
	if !cfg.BureauConfigured() {
		log.Printf("bureau gateway not configured; submissions will fail until credentials are set")
	}

	// repositories
	leadRepo := mysql.NewLeadRepository(gdb)
	resultRepo := mysql.NewResultRepository(gdb)
	batchRepo := mysql.NewBatchRepository(gdb)
	programRepo := mysql.NewProgramRepository(gdb)
	auditRepo := mysql.NewAuditRepository(gdb)
	tx := mysql.NewGormUoW(gdb)

	recorder := audit.NewRecorder(auditRepo)

	// usecases
	leadUC := leaduc.NewUsecase(leadRepo, resultRepo, batchRepo, enc, recorder)
	batchUC := prescreen.NewUsecase(tx, leadRepo, batchRepo, programRepo, gw, enc)
	queueUC := retryqueue.NewUsecase(leadRepo)
	programUC := programuc.NewUsecase(programRepo, gw, rdb)
	auditUC := auditlog.NewUsecase(auditRepo, leadRepo)

	// keep the local program mirror fresh without an operator in the loop
	if cfg.BureauConfigured() {
		go func() {
			if _, err := programUC.Sync(context.Background()); err != nil {
				log.Printf("program sync: %v", err)
			}
			tick := time.NewTicker(time.Hour)
			defer tick.Stop()
			for range tick.C {
				if _, err := programUC.Sync(context.Background()); err != nil {
					log.Printf("program sync: %v", err)
				}
			}
		}()
	}

	// handlers
	h := httpadp.NewHandler(gw)
	leadH := httpadp.NewLeadHandler(leadUC)
	batchH := httpadp.NewBatchHandler(batchUC, leadUC)
	queueH := httpadp.NewRetryQueueHandler(queueUC, leadUC)
	programH := httpadp.NewProgramHandler(programUC)
	auditH := httpadp.NewAuditHandler(auditUC)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger(), echomw.Recover())
	e.Validator = httpadp.NewValidator()

	e.GET("/health", h.Health)
	e.GET("/gateway/status", h.GatewayStatus)

	idemp := middleware.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)

	// everything below requires an identity set by the upstream auth gate
	api := e.Group("", middleware.RequireIdentity())

	api.GET("/dashboard/stats", leadH.Stats)

	leads := api.Group("/leads")
	leads.POST("", leadH.Create)
	leads.GET("", leadH.List)
	leads.GET("/:lead_id", leadH.Get)
	leads.PATCH("/:lead_id", leadH.Update)
	leads.POST("/:lead_id/dismiss", leadH.Dismiss)
	leads.POST("/:lead_id/restore", leadH.Restore)
	leads.PUT("/:lead_id/notes", leadH.UpdateNotes)
	leads.POST("/:lead_id/decrypt", leadH.Decrypt, middleware.RequireAdmin())
	leads.PUT("/:lead_id/firm-offer", leadH.UpdateFirmOffer, middleware.RequireAdmin())

	batches := api.Group("/batches")
	batches.POST("", batchH.Submit, idemp)
	batches.GET("", batchH.List)
	batches.GET("/:batch_id", batchH.Get)
	batches.PATCH("/:batch_id", batchH.Rename)
	batches.POST("/:batch_id/recover", batchH.Recover, middleware.RequireAdmin(), idemp)

	queue := api.Group("/retry-queue")
	queue.GET("", queueH.List)
	queue.POST("", queueH.Enqueue)
	queue.DELETE("", queueH.Dequeue)

	programs := api.Group("/programs")
	programs.GET("", programH.List)
	programs.POST("/sync", programH.Sync, middleware.RequireAdmin())

	api.GET("/audit-logs", auditH.List, middleware.RequireAdmin())

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
