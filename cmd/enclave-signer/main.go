package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/sealkit/enclave-signer/internal/audit"
	"github.com/sealkit/enclave-signer/internal/custodian"
	"github.com/sealkit/enclave-signer/internal/enclave"
	"github.com/sealkit/enclave-signer/internal/protocol"
	"github.com/sealkit/enclave-signer/internal/sigops"
)

var dataDirFlag = &cli.StringFlag{
	Name:  "data-dir",
	Value: defaultDataDir(),
	Usage: "directory holding the sealed key material and audit log",
}

var logLevelFlag = &cli.StringFlag{
	Name:  "log-level",
	Value: "info",
	Usage: "log level (debug, info, warn, error)",
}

var auditBufferFlag = &cli.IntFlag{
	Name:  "audit-buffer",
	Value: 256,
	Usage: "audit logger buffer size",
}

func main() {
	app := &cli.App{
		Name:   "enclave-signer",
		Usage:  "hardware-backed signing bridge over stdin/stdout",
		Flags:  []cli.Flag{dataDirFlag, logLevelFlag, auditBufferFlag},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cCtx *cli.Context) error {
	// stdout is the protocol channel; everything else goes to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cCtx.String(logLevelFlag.Name)),
	})))

	dataDir := cCtx.String(dataDirFlag.Name)

	provider, err := enclave.NewSealedProvider(dataDir)
	if err != nil {
		return fmt.Errorf("open keystore: %w", err)
	}

	auditFile, err := os.OpenFile(filepath.Join(dataDir, "audit.log"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer auditFile.Close()

	auditLogger := audit.NewLogger(cCtx.Int(auditBufferFlag.Name), auditFile)
	defer auditLogger.Close()

	id, err := custodian.Initialize(provider, custodian.KeyTag)
	if err != nil {
		return err
	}

	// Startup diagnostics: the parent process greps stderr for the
	// PUBLIC_KEY prefix, so these are exact plain lines.
	fmt.Fprintln(os.Stderr, "enclave-signer: hardware-backed signing bridge")
	if id.Generated() {
		fmt.Fprintln(os.Stderr, "generated new key")
	} else {
		fmt.Fprintln(os.Stderr, "loaded existing key")
	}
	fmt.Fprintf(os.Stderr, "PUBLIC_KEY:%s\n", sigops.PublicKeyBase64(id))

	loop := protocol.NewLoop(id, os.Stdin, os.Stdout, os.Stderr,
		protocol.Recovery(),
		protocol.Logging(),
		protocol.Audit(auditLogger),
	)
	return loop.Run()
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".enclave-signer"
	}
	return filepath.Join(home, ".enclave-signer")
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
