package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"google.golang.org/api/option"

	"github.com/aryansanganti/receipt-wallet/internal/analytics"
	"github.com/aryansanganti/receipt-wallet/internal/assistant"
	"github.com/aryansanganti/receipt-wallet/internal/receipt"
	"github.com/aryansanganti/receipt-wallet/internal/scanning"
	"github.com/aryansanganti/receipt-wallet/internal/server"
	"github.com/aryansanganti/receipt-wallet/internal/wallet"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("receipt-wallet")
	var (
		port           = fs.IntLong("port", 8080, "HTTP server port")
		receiptsDBPath = fs.StringLong("receipts-db", "receipts.db", "Receipts database file path")
		passesDBPath   = fs.StringLong("passes-db", "passes.db", "Passes database file path")
		storagePath    = fs.StringLong("storage", "./images", "Source image storage directory")
		scannerType    = fs.StringLong("scanner", "gemini", "Scanner type: 'gemini' or 'ollama'")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL      = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, bakllava, qwen2-vl)")
		confidence     = fs.Float64Long("confidence-threshold", receipt.DefaultConfidenceThreshold, "Extraction confidence below which receipts are flagged for review")
		walletIssuerID = fs.StringLong("wallet-issuer-id", "", "Google Wallet issuer account id (optional)")
		walletClassID  = fs.StringLong("wallet-class-id", "", "Google Wallet generic class id")
		walletCreds    = fs.StringLong("wallet-credentials", "", "Path to Google Wallet service account credentials JSON")
		passRetention  = fs.DurationLong("pass-retention", 30*24*time.Hour, "Active passes untouched for this long are expired")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_WALLET"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		TimeFormat: time.Kitchen,
	})))

	// Initialize databases
	slog.Info("Initializing databases...")
	receiptsDB, err := receipt.NewBoltDB(*receiptsDBPath)
	if err != nil {
		slog.Error("Failed to initialize receipts database", "error", err)
		os.Exit(1)
	}
	defer receiptsDB.Close()

	passesDB, err := wallet.NewBoltDB(*passesDBPath)
	if err != nil {
		slog.Error("Failed to initialize passes database", "error", err)
		os.Exit(1)
	}
	defer passesDB.Close()

	// Initialize scanner based on type
	var scanner scanning.Scanner
	switch *scannerType {
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini scanner...", "model", *geminiModel)
		scanner, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", *ollamaURL, "model", *ollamaModel)
		scanner, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid scanner type", "type", *scannerType, "valid", "gemini or ollama")
		os.Exit(1)
	}
	defer scanner.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize the capture pipeline
	classifier := receipt.NewClassifier()
	normalizer := receipt.NewNormalizerWithThreshold(classifier, *confidence)
	receiptService := receipt.NewService(receiptsDB, scanner, store, normalizer)

	// Initialize the wallet issuer. Without credentials every issuance
	// fails permanently with a clear message; the rest of the app works.
	var issuer wallet.Issuer = wallet.UnconfiguredIssuer{}
	if *walletIssuerID != "" {
		var opts []option.ClientOption
		if *walletCreds != "" {
			opts = append(opts, option.WithCredentialsFile(*walletCreds))
		}
		issuer, err = wallet.NewGoogleWallet(context.Background(), *walletIssuerID, *walletClassID, opts...)
		if err != nil {
			slog.Error("Failed to initialize Google Wallet issuer", "error", err)
			os.Exit(1)
		}
		slog.Info("Google Wallet issuer configured", "issuer_id", *walletIssuerID)
	} else {
		slog.Warn("No wallet issuer configured; pass issuance is disabled")
	}

	passManager := wallet.NewManager(passesDB, issuer)

	// Initialize analytics and the assistant
	engine := analytics.NewEngine(receiptsDB)
	insights := analytics.NewGenerator()
	router := assistant.NewRouter(receiptsDB, engine)

	// Initialize server
	basicAuth := server.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	srv := server.NewServer(receiptService, engine, insights, router, passManager, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := srv.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Sweep stale passes in the background
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-sweepDone:
				return
			case <-ticker.C:
				expired, err := passManager.ExpireStale(*passRetention)
				if err != nil {
					slog.Error("Stale pass sweep failed", "error", err)
					continue
				}
				if expired > 0 {
					slog.Info("Expired stale passes", "count", expired)
				}
			}
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	close(sweepDone)
	slog.Info("Shutting down...")
}
