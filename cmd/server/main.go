package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"devai-server/internal/config"
	"devai-server/internal/genimage"
	apphttp "devai-server/internal/http"
	"devai-server/internal/repository/sqlite"
	"devai-server/internal/service"
	"devai-server/internal/storage"
	"devai-server/internal/token"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	postRepo := sqlite.NewPostRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := postRepo.Init(ctx); err != nil {
		logger.Fatalf("init post repository: %v", err)
	}

	tokens, err := token.NewService(token.Config{
		Secret: []byte(cfg.Auth.JWTSecret),
		TTL:    time.Duration(cfg.Auth.TokenTTLHours) * time.Hour,
	})
	if err != nil {
		logger.Fatalf("setup token service: %v", err)
	}

	uploader, err := buildUploader(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	generator, err := genimage.NewHTTPClient(genimage.Config{
		Endpoint: cfg.Generate.Endpoint,
		APIKey:   cfg.Generate.APIKey,
		Contract: cfg.Generate.Contract,
		Timeout:  time.Duration(cfg.Generate.TimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatalf("setup generation client: %v", err)
	}

	userService := service.NewUserService(userRepo)
	postService := service.NewPostService(postRepo, uploader, storage.UploadOptions{
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(userService, postService, generator, tokens)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildUploader(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Uploader, error) {
	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	switch cfg.Storage.Driver {
	case "minio":
		uploader, err := storage.NewMinioUploader(storage.MinioOptions{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := uploader.EnsureBucket(ctx, cfg.Storage.Bucket); err != nil {
			return nil, err
		}
		logger.Infof("using minio bucket %s at %s", cfg.Storage.Bucket, cfg.Storage.Endpoint)
		return uploader, nil

	case "s3", "":
		loadOpts := []func(*awscfg.LoadOptions) error{
			awscfg.WithRegion(cfg.Storage.Region),
		}
		if cfg.AWS.Profile != "" {
			loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
		}

		awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}

		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Storage.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
				o.UsePathStyle = true
			}
		})
		logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
		return storage.NewS3Uploader(client, storage.S3Options{
			Region:        cfg.Storage.Region,
			Endpoint:      cfg.Storage.Endpoint,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		}), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
