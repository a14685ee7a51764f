package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/siohaza/nuggets/internal/server"
	"github.com/siohaza/nuggets/pkg/config"
	"github.com/siohaza/nuggets/pkg/grid"

	"github.com/spf13/cobra"
)

// shutdownGrace lets transports flush the final report after game over.
const shutdownGrace = 2 * time.Second

var (
	configPath string
	logLevel   string
	version    = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   "nuggets <map> <seed>",
	Short: "Nuggets - multiplayer gold hunt server",
	Long: `Nuggets hosts a gold hunt on a text map. Up to 26 players explore the
map with limited sight and race to collect every pile of gold; one spectator
may watch the whole board.`,
	Version:      version,
	Args:         cobra.ExactArgs(2),
	RunE:         runServer,
	SilenceUsage: true,
}

var startCmd = &cobra.Command{
	Use:          "start <map> <seed>",
	Short:        "Start the Nuggets server",
	Long:         "Start the Nuggets server on the given map with the given random seed",
	Args:         cobra.ExactArgs(2),
	RunE:         runServer,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Nuggets v%s\n", version)
		fmt.Println("Multiplayer gold hunt server")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
}

func parseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig reads path, falling back to defaults only when the default file
// is absent.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func parseSeed(arg string) (int64, error) {
	seed, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("seed must be an integer, got %q", arg)
	}
	return seed, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	mapPath := args[0]

	seed, err := parseSeed(args[1])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var logWriter io.Writer = os.Stdout

	if cfg.Server.LogToFile {
		logDir := "logs"
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		timestamp := time.Now().Unix()
		logPath := filepath.Join(logDir, fmt.Sprintf("nuggets_%d.log", timestamp))

		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logFile.Close()

		logWriter = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("starting nuggets server", "version", version, "seed", seed)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	master, err := grid.LoadFile(mapPath)
	if err != nil {
		return fmt.Errorf("failed to load map: %w", err)
	}

	rng := rand.New(rand.NewSource(seed))
	srv, err := server.New(cfg, master, filepath.Base(mapPath), rng, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("server running",
		"name", cfg.Server.Name,
		"address", fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port),
		"web_port", cfg.Server.WebPort,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutting down server")
	case <-srv.Done():
		logger.Info("all gold collected, shutting down")
		time.Sleep(shutdownGrace)
	}

	srv.Stop()
	logger.Info("server stopped successfully")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
