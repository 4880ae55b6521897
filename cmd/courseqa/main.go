package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/campusqa/courseqa/internal/ai"
	"github.com/campusqa/courseqa/internal/config"
	"github.com/campusqa/courseqa/internal/db"
	"github.com/campusqa/courseqa/internal/filestore"
	"github.com/campusqa/courseqa/internal/handler"
	"github.com/campusqa/courseqa/internal/job"
	"github.com/campusqa/courseqa/internal/middleware"
	"github.com/campusqa/courseqa/internal/repo"
	"github.com/campusqa/courseqa/internal/schedule"
	"github.com/campusqa/courseqa/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "courseqa",
		Short: "course assistant backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run courseqa server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	courseRepo := repo.NewCourseRepo(database)
	documentRepo := repo.NewDocumentRepo(database)
	chunkRepo := repo.NewChunkRepo(database)
	verifiedRepo := repo.NewVerifiedAnswerRepo(database)
	qaLogRepo := repo.NewQALogRepo(database)

	store, err := filestore.New(cfg.FileStore.Type, cfg.FileStore.Data)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	aiProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	timeout := time.Duration(cfg.AI.Timeout) * time.Second
	embedder := ai.NewEmbedder(aiProvider, cfg.AI.EmbedModel, cfg.RAG.EmbeddingDim, cfg.AI.MaxBatch, timeout)
	generator := ai.NewGenerator(aiProvider, cfg.AI.GenerateModel, timeout)

	courseService := service.NewCourseService(courseRepo)
	ingestService := service.NewIngestService(courseRepo, documentRepo, chunkRepo, store, embedder, cfg.RAG)
	askService := service.NewAskService(courseRepo, chunkRepo, verifiedRepo, embedder, generator, qaLogRepo, cfg.RAG)
	feedbackService := service.NewFeedbackService(qaLogRepo)
	correctionService := service.NewCorrectionService(courseRepo, verifiedRepo, qaLogRepo, embedder)
	analyticsService := service.NewAnalyticsService(courseRepo, qaLogRepo, generator)

	deps := handler.RouterDeps{
		Courses:      handler.NewCourseHandler(courseService),
		Documents:    handler.NewDocumentHandler(ingestService),
		QA:           handler.NewQAHandler(askService, feedbackService, correctionService),
		Analytics:    handler.NewAnalyticsHandler(analyticsService),
		JWTSecret:    []byte(cfg.JWTSecret),
		AskRateLimit: time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler := schedule.NewCronScheduler()
	stuckAfter := time.Duration(cfg.RAG.StuckAfterMins) * time.Minute
	if err := scheduler.AddJob(job.NewStuckIngestJob(documentRepo, stuckAfter), "*/10 * * * *"); err != nil {
		return fmt.Errorf("schedule stuck ingest job: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
