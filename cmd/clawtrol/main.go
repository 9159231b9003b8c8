package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nachoandmikey/clawtrol/internal/api"
	"github.com/nachoandmikey/clawtrol/internal/config"
	"github.com/nachoandmikey/clawtrol/internal/tui"
	"github.com/nachoandmikey/clawtrol/internal/upgrade"
	"github.com/nachoandmikey/clawtrol/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			fmt.Println(version.Info())
			return
		case "upgrade":
			if err := upgrade.Upgrade(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "help", "--help", "-h":
			printHelp()
			return
		case "serve":
			if err := runServer(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		case "board":
			if err := runBoard(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
			printHelp()
			os.Exit(1)
		}
	}

	// No command opens the kanban board
	if err := runBoard(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	home, err := config.ResolveHome()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	cfg, err := config.Load(home)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func runBoard() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return tui.Run(cfg)
}

func runServer() error {
	serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
	port := serveCmd.Int("port", 0, "HTTP server port")
	_ = serveCmd.Parse(os.Args[2:])

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.Port = *port
	}

	server := api.NewServer(cfg)

	addr := fmt.Sprintf(":%d", cfg.Port)
	fmt.Printf("clawtrol API server starting on %s\n", addr)
	fmt.Printf("Data root: %s\n", cfg.Home)

	srv := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}

func printHelp() {
	fmt.Println(`clawtrol - Mission control for OpenClaw agents

Usage:
  clawtrol                  Open the interactive kanban board
  clawtrol board            Open the interactive kanban board
  clawtrol serve            Run the HTTP API server
  clawtrol version          Show version information
  clawtrol upgrade          Upgrade to the latest version
  clawtrol help             Show this help message

Serve Options:
  --port                    HTTP server port (default: from config, 3001)

Environment Variables:
  CLAWTROL_HOME             Override data root (default: ~)

For more information, visit: https://github.com/nachoandmikey/clawtrol`)
}
