package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/wsekete/vpars3/internal/config"
	"github.com/wsekete/vpars3/internal/mcp"
	"github.com/wsekete/vpars3/internal/pdf"
)

// Set by build flags.
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if version != "dev" {
		cfg.Version = version
	}
	setupLogging(cfg)

	service := pdf.NewService(cfg.MaxFileSize, cfg.PDFDirectory, cfg.OutputSuffix)
	if err := service.ValidateConfiguration(); err != nil {
		log.Fatalf("Invalid service configuration: %v", err)
	}

	server, err := mcp.NewServer(cfg, service)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsServerMode() {
		log.Printf("Starting %s %s on %s", cfg.ServerName, cfg.Version, cfg.Address())
		log.Print(renameBehaviorSummary(cfg))
		runServerMode(ctx, cancel, server)
		return
	}
	runStdioMode(ctx, server)
}

// setupLogging keeps the MCP stdio channel clean: logs go to stderr, and are
// dropped entirely unless debug logging is on. Server mode logs to stdout
// with file and line detail.
func setupLogging(cfg *config.Config) {
	if cfg.IsStdioMode() {
		log.SetOutput(os.Stderr)
		if !cfg.IsDebug() {
			log.SetOutput(os.NewFile(0, os.DevNull))
		}
		return
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

// renameBehaviorSummary describes how rename batches will treat source
// files, so an operator can see the write mode at startup.
func renameBehaviorSummary(cfg *config.Config) string {
	if cfg.PreserveOriginal {
		return fmt.Sprintf("Rename mode: copy sources, output suffix %q", cfg.OutputSuffix)
	}
	if cfg.CreateBackup {
		return "Rename mode: in place with timestamped backups"
	}
	return "Rename mode: in place, no backups"
}

// runServerMode blocks until the server stops or a shutdown signal arrives.
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		log.Printf("Received signal %s, shutting down", sig)
		cancel()
		if err := <-serverErrCh; err != nil {
			log.Printf("Server shutdown with error: %v", err)
			os.Exit(1)
		}
	case err := <-serverErrCh:
		if err != nil {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}
	log.Println("Server stopped")
}

// runStdioMode serves MCP over stdin/stdout. The parent client owns the
// lifecycle; the server returns when stdin closes.
func runStdioMode(ctx context.Context, server *mcp.Server) {
	if err := server.Run(ctx); err != nil {
		if os.Getenv("DEBUG") != "" {
			log.Printf("Server error: %v", err)
		}
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("vpars3 PDF Field Rename Server %s\n", version)
	fmt.Printf("  build time: %s\n", buildTime)
	fmt.Printf("  commit:     %s\n", gitCommit)
	fmt.Printf("  go:         %s\n", runtime.Version())
}
