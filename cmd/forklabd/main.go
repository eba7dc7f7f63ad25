// Package main is the entry point for the forklab daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/forklab-edu/forklab/internal/api"
	"github.com/forklab-edu/forklab/internal/catalog"
	"github.com/forklab-edu/forklab/internal/core/session"
	"github.com/forklab-edu/forklab/internal/core/tree"
	"github.com/forklab-edu/forklab/internal/store"
	"github.com/forklab-edu/forklab/pkg/types"
)

var (
	configPath  = flag.String("config", "", "Path to config file")
	initMode    = flag.Bool("init", false, "Initialize a new forklab instance")
	projectPath = flag.String("path", ".", "Project path for initialization")
	showVersion = flag.Bool("version", false, "Show version")
)

const version = "0.1.0"

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("forklabd version %s\n", version)
		os.Exit(0)
	}

	if *initMode {
		if err := initializeForklab(*projectPath); err != nil {
			log.Fatalf("Initialization failed: %v", err)
		}
		fmt.Println("forklab initialized successfully!")
		os.Exit(0)
	}

	// Load configuration
	config, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Run the server
	if err := run(config); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func loadConfig(path string) (*types.Config, error) {
	// Use default config if no path specified
	if path == "" {
		// Try common paths
		candidates := []string{
			"forklab.yaml",
			"forklab.yml",
			".forklab/config.yaml",
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	// Return default config if no file found
	if path == "" {
		return types.DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := types.DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

func run(config *types.Config) error {
	log.Printf("Starting forklab daemon v%s", version)

	// Initialize persistence
	var st *store.Store
	if config.Store.Enabled {
		st = store.NewStore(config.Store.Path)
		if err := st.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}
		defer st.Close()
		log.Printf("Store initialized: %s", config.Store.Path)
	}

	// Load content catalog
	cat := catalog.New()
	if config.Catalog.Dir != "" {
		if err := cat.LoadDir(config.Catalog.Dir); err != nil {
			return fmt.Errorf("failed to load catalog dir: %w", err)
		}
		log.Printf("Catalog dir loaded: %s", config.Catalog.Dir)
	}
	log.Printf("Catalog ready: %d scenarios, %d challenges", len(cat.Scenarios()), len(cat.Challenges()))

	// Initialize the session manager
	engineOpts := tree.Options{
		OrphanReparenting: config.Engine.OrphanReparenting,
		MaxNodes:          config.Engine.MaxNodes,
	}
	var sessionStore session.Store
	if st != nil {
		sessionStore = st
	}
	manager := session.NewManager(engineOpts, sessionStore)

	// Initialize API router
	router := api.NewRouter(manager, cat, st)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router.Handler(),
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Print startup info
	log.Printf("forklab process-tree visualizer ready!")
	log.Printf("  API: http://%s/api/v1", addr)
	log.Printf("  WebSocket: ws://%s/ws", addr)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

func initializeForklab(projectPath string) error {
	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return err
	}

	// Create .forklab directory
	forklabDir := filepath.Join(absPath, ".forklab")
	if err := os.MkdirAll(forklabDir, 0755); err != nil {
		return fmt.Errorf("failed to create .forklab directory: %w", err)
	}

	// Create default config
	config := types.DefaultConfig()
	config.Store.Path = filepath.Join(forklabDir, "forklab.db")
	config.Catalog.Dir = filepath.Join(forklabDir, "catalog")

	configData, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(absPath, "forklab.yaml")
	if err := os.WriteFile(configPath, configData, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Printf("Created config: %s\n", configPath)

	// Create the catalog override directory
	if err := os.MkdirAll(config.Catalog.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	fmt.Printf("Created catalog dir: %s\n", config.Catalog.Dir)

	// Initialize the store
	st := store.NewStore(config.Store.Path)
	if err := st.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	st.Close()
	fmt.Printf("Created store: %s\n", config.Store.Path)

	fmt.Println("\nforklab initialization complete!")
	fmt.Println("Run 'forklabd' to start the server.")

	return nil
}
