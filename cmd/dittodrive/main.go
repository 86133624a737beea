package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/config"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/gc"
	"github.com/marmos91/dittodrive/pkg/metrics"
	"github.com/marmos91/dittodrive/pkg/store/blob"
)

// createInitialStructure seeds a demo drive so a fresh install has something
// to look at: a folder tree for one user plus a few small files.
func createInitialStructure(ctx context.Context, svc *drive.Service, ownerID string) error {
	documents, err := svc.CreateFolder(ctx, ownerID, "Documents", "")
	if err != nil {
		return fmt.Errorf("failed to create Documents folder: %w", err)
	}

	reports, err := svc.CreateFolder(ctx, ownerID, "Reports", documents.ID)
	if err != nil {
		return fmt.Errorf("failed to create Reports folder: %w", err)
	}

	if _, err := svc.CreateFolder(ctx, ownerID, "Pictures", ""); err != nil {
		return fmt.Errorf("failed to create Pictures folder: %w", err)
	}

	seedFiles := []struct {
		name        string
		folderToken string
		content     string
	}{
		{"readme.txt", "", "Welcome to DittoDrive!\n"},
		{"notes.txt", documents.ID, "Some notes about this drive.\n"},
		{"q1-summary.txt", reports.ID, "Q1 summary placeholder.\n"},
	}

	for _, seed := range seedFiles {
		_, err := svc.UploadFile(ctx, ownerID, drive.UploadRequest{
			Name:         seed.name,
			FolderToken:  seed.folderToken,
			MimeType:     "text/plain",
			DeclaredSize: uint64(len(seed.content)),
			Content:      strings.NewReader(seed.content),
		})
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", seed.name, err)
		}
	}

	return nil
}

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Log level override (DEBUG, INFO, WARN, ERROR)")
	seed := flag.String("seed", "", "Seed a demo folder structure for the given owner id and exit setup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}
	logger.SetLevel(level)

	fmt.Println("DittoDrive - cloud drive metadata core")
	logger.Info("Log level set to: %s", level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metaStore, err := config.CreateMetadataStore(ctx, cfg.Metadata)
	if err != nil {
		log.Fatalf("Failed to create metadata store: %v", err)
	}
	defer func() {
		if err := metaStore.Close(); err != nil {
			logger.Error("Failed to close metadata store: %v", err)
		}
	}()

	blobStore, err := config.CreateBlobStore(ctx, cfg.Blob)
	if err != nil {
		log.Fatalf("Failed to create blob store: %v", err)
	}

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		blobStore = blob.WithMetrics(blobStore, metrics.NewBlobMetrics(cfg.Blob.Type))

		metricsServer = metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
	}

	if err := metaStore.Healthcheck(ctx); err != nil {
		log.Fatalf("Metadata store healthcheck failed: %v", err)
	}

	svc := drive.NewService(metaStore, blobStore, drive.Options{
		DefaultQuotaBytes: cfg.Drive.DefaultQuotaBytes,
		MaxTreeDepth:      cfg.Drive.MaxTreeDepth,
		MaxTreeNodes:      cfg.Drive.MaxTreeNodes,
	})

	if *seed != "" {
		if err := createInitialStructure(ctx, svc, *seed); err != nil {
			log.Fatalf("Failed to seed demo structure: %v", err)
		}
		logger.Info("Demo structure seeded for owner %s", *seed)
	}

	gcConfig := gc.Config{
		Enabled:   cfg.GC.Enabled,
		Interval:  cfg.GC.Interval,
		BatchSize: cfg.GC.BatchSize,
		DryRun:    cfg.GC.DryRun,
	}
	if cfg.Metrics.Enabled {
		gcConfig.Metrics = metrics.NewSweepMetrics()
	}
	collector := gc.NewCollector(metaStore, blobStore, gcConfig)
	collector.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("DittoDrive is running. Press Ctrl+C to stop.")
	<-sigChan

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := collector.Stop(shutdownCtx); err != nil {
		logger.Warn("Reconciliation sweep did not stop cleanly: %v", err)
	}

	if metricsServer != nil {
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("Metrics server did not stop cleanly: %v", err)
		}
	}
}
