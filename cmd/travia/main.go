package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"Travia/internal/chatbot"
	"Travia/internal/config"
	"Travia/internal/knowledge"
	"Travia/internal/storage"
	"Travia/internal/telemetry"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "travia",
	Short: "TRAViA - smart travel assistant",
	Long: `TRAViA answers free-text travel questions over a catalog of train, bus,
flight, taxi and bike routes, ranks options by price, time, comfort or
eco-friendliness, and simulates booking website offers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := loaded.ApplyEnv(os.Getenv); err != nil {
			return err
		}
		applyFlags(cmd, loaded)
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = loaded
		return nil
	},
}

var flagValues struct {
	debug     bool
	dbPath    string
	dataDir   string
	kbDir     string
	logDir    string
	telemetry bool
	seed      int64
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "travia.yaml", "config file path")
	flags.BoolVar(&flagValues.debug, "debug", false, "enable debug logging")
	flags.StringVar(&flagValues.dbPath, "db", "", "SQLite database path")
	flags.StringVar(&flagValues.dataDir, "data-dir", "", "directory of seed JSON files")
	flags.StringVar(&flagValues.kbDir, "kb-dir", "", "knowledge base directory")
	flags.StringVar(&flagValues.logDir, "log-dir", "", "directory for logs, traces and metrics")
	flags.BoolVar(&flagValues.telemetry, "telemetry", true, "write OpenTelemetry traces and metrics")
	flags.Int64Var(&flagValues.seed, "seed", 0, "random seed for greetings and offers (0 = clock)")

	rootCmd.AddCommand(serveCmd, chatCmd, seedCmd)
}

// applyFlags copies explicitly set flags over the loaded config.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("debug") {
		c.Log.Debug = flagValues.debug
	}
	if flags.Changed("db") {
		c.Database.Path = flagValues.dbPath
	}
	if flags.Changed("data-dir") {
		c.Data.Dir = flagValues.dataDir
	}
	if flags.Changed("kb-dir") {
		c.Knowledge.Dir = flagValues.kbDir
	}
	if flags.Changed("log-dir") {
		c.Log.Dir = flagValues.logDir
	}
	if flags.Changed("telemetry") {
		c.Telemetry.Enabled = flagValues.telemetry
	}
	if flags.Changed("seed") {
		c.Offers.Seed = flagValues.seed
	}
	if flags.Changed("addr") {
		c.Server.Addr = serveAddr
	}
}

// app holds what every command needs.
type app struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	meter   metric.Meter
	db      *storage.DB
	closers []func()
}

func newApp(ctx context.Context, echo io.Writer) (*app, error) {
	logger, logCloser, err := telemetry.InitLogger(cfg.Log.Dir, cfg.Log.Debug, echo)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a := &app{logger: logger}
	a.closers = append(a.closers, func() { logCloser.Close() })

	if cfg.Telemetry.Enabled {
		tracer, meter, cleanup, err := telemetry.InitTelemetry(ctx, cfg.Log.Dir)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		a.tracer, a.meter = tracer, meter
		a.closers = append(a.closers, cleanup)
	} else {
		a.tracer, a.meter = telemetry.Noop()
	}

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	})

	n, err := db.Seed(ctx, cfg.Data.Dir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}
	if n > 0 {
		logger.Info("catalog seeded", "rows", n, "dir", cfg.Data.Dir)
	}
	return a, nil
}

func (a *app) chatBot() (*chatbot.ChatBot, error) {
	kb := knowledge.DirSource{Dir: cfg.Knowledge.Dir, Logger: a.logger}
	bot, err := chatbot.NewChatBot(cfg, a.db, kb, a.logger, a.tracer, a.meter)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chatbot: %w", err)
	}
	return bot, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
