// Package main is the c2demo CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kvasnier/c2-demo/internal/chat"
	"github.com/kvasnier/c2-demo/internal/config"
	"github.com/kvasnier/c2-demo/internal/scenario"
	"github.com/kvasnier/c2-demo/internal/server"
	"github.com/kvasnier/c2-demo/internal/storage"
	"github.com/kvasnier/c2-demo/internal/watcher"
	"github.com/kvasnier/c2-demo/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/c2demo/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. A missing default file falls back to defaults plus environment.
func loadConfig(path string) (*config.Config, string, error) {
	_ = godotenv.Load()

	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); statErr != nil {
			cfg, loadErr := config.Load("")
			return cfg, "", loadErr
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "reset":
		runReset()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("c2demo version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("driver", cfg.Storage.Driver),
		zap.Bool("debug", debugMode),
	)

	store, err := initializeStorage(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	scope := storage.Scope(cfg.Scenario.RestoreScope)
	if !scope.Valid() {
		logger.Fatal("Invalid restore scope", zap.String("restore_scope", cfg.Scenario.RestoreScope))
	}
	pipeline := scenario.NewPipeline(cfg.Scenario.SeedPath, cfg.Scenario.BackupDir, scope, store, logger)
	responder := chat.NewResponder(store, cfg.Chat.RefLat, cfg.Chat.RefLon, cfg.Chat.MediaRef, logger)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Scenario.WatchSeed {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		seedWatch := watcher.NewSeedWatcher(cfg.Scenario.SeedPath, func(path string) {
			statements, parseErr := scenario.ParseSeed(path, scope)
			if parseErr != nil {
				logger.Warn("seed file changed but does not parse", zap.String("path", path), zap.Error(parseErr))
				return
			}
			logger.Info("seed file changed", zap.String("path", path), zap.Int("statements", len(statements)))
		}, watchOpts...)
		if err := seedWatch.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start seed watcher", zap.Error(err))
		}
		defer seedWatch.Stop()
	}

	srv := server.NewServer(store, pipeline, responder, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runReset() {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL; empty runs the restore directly against the configured store")
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL == "" {
		runResetDirect(*configPath)
		return
	}

	resp, err := http.Post(*serverURL+"/scenario/reset", "application/json", nil)
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Printf("Reset failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var result struct {
		OK            bool   `json:"ok"`
		RestoredUnits int64  `json:"restored_units"`
		BackupPath    string `json:"backup_path"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		fmt.Printf("Parse failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Scenario restored: %d unit(s)\n", result.RestoredUnits)
	fmt.Printf("Backup: %s\n", result.BackupPath)
}

func runResetDirect(configPath string) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := initializeStorage(cfg, logger)
	if err != nil {
		fmt.Printf("Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	scope := storage.Scope(cfg.Scenario.RestoreScope)
	if !scope.Valid() {
		fmt.Printf("Invalid restore scope: %q\n", cfg.Scenario.RestoreScope)
		os.Exit(1)
	}
	pipeline := scenario.NewPipeline(cfg.Scenario.SeedPath, cfg.Scenario.BackupDir, scope, store, logger)
	result, err := pipeline.Restore(context.Background())
	if err != nil {
		fmt.Printf("Restore failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Scenario restored: %d unit(s)\n", result.RestoredUnits)
	fmt.Printf("Backup: %s\n", result.BackupPath)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/status")
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Printf("Status failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("Read failed: %v\n", err)
		os.Exit(1)
	}
	if *output == "json" {
		fmt.Println(string(body))
		return
	}
	var status map[string]any
	if err := json.Unmarshal(body, &status); err != nil {
		fmt.Printf("Parse failed: %v\n", err)
		os.Exit(1)
	}
	if units, ok := status["units"]; ok {
		fmt.Printf("Units: %v\n", units)
	}
	if pois, ok := status["pois"]; ok {
		fmt.Printf("POIs: %v\n", pois)
	}
	if disk, ok := status["disk_usage_bytes"]; ok {
		fmt.Printf("Disk usage: %v bytes\n", disk)
	}
	if cfg, ok := status["config"].(map[string]any); ok {
		fmt.Printf("Driver: %v\n", cfg["driver"])
		fmt.Printf("Seed: %v\n", cfg["seed_path"])
		fmt.Printf("Backups: %v\n", cfg["backup_dir"])
		fmt.Printf("Scope: %v\n", cfg["restore_scope"])
	}
}

func initializeStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return storage.NewPostgresStorage(ctx, cfg.Storage.DatabaseURL, logger)
	case "sqlite", "":
		return storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", cfg.Storage.Driver)
	}
}

func printUsage() {
	fmt.Println(`c2demo - C2 map backend with scenario restore and a rule-based chat

Usage:
  c2demo server [flags]    Start the HTTP server
  c2demo reset [flags]     Restore the scenario from the seed file
  c2demo status [flags]    Show entity counts and storage status
  c2demo version           Show version
  c2demo help              Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/c2demo/config.yaml)
  --debug            Enable debug logging

Reset Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" to run directly against the configured store.
  --config string    Config file path (direct mode)

Status Flags:
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json (default: text)

Examples:
  c2demo server
  c2demo server --debug
  c2demo reset
  c2demo status --output json`)
}
