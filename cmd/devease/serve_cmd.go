package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/devease/devease/internal/backend"
	"github.com/spf13/cobra"
)

var (
	listenAddr string
	dbPath     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the devease backend",
	Long:  `Starts the devease backend which provides the HTTP API the dashboard talks to.`,
	RunE:  runServe,
}

func init() {
	homeDir, _ := os.UserHomeDir()
	defaultDB := filepath.Join(homeDir, ".devease", "devease.db")

	serveCmd.Flags().StringVar(&listenAddr, "listen", "127.0.0.1:8420", "listen address for the API server")
	serveCmd.Flags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return err
	}

	store, err := backend.NewStore(dbPath)
	if err != nil {
		return err
	}

	service, err := backend.NewService(store, backend.NewDemoProvider())
	if err != nil {
		store.Close()
		return err
	}
	server := backend.NewServer(service, listenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case err := <-serverErr:
		if err != nil {
			store.Close()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	if err := store.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}
	log.Println("Shutdown complete")
	return nil
}
