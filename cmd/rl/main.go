package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rosterline/internal/app"
	"rosterline/internal/db"
	"rosterline/internal/engine"
	"rosterline/internal/validation"
)

var rootCmd = &cobra.Command{
	Use:   "rl",
	Short: "Rosterline CLI",
	Long: `Rosterline keeps people, places and things (entities) and the things that happen
to them over time (events), joined by participations.
- Entities: person, organization, location, resource. Each kind has its own fields (a person needs name and email).
- Events: have a kind (shift, employment, schedule or any kind you add), a start, an optional end and a status.
- Participations: bind an entity to an event. A participant can't be booked into two overlapping events
  with the same participation type.
- Attributes are given flat with --set key=value; kind-specific fields land in the record's properties.
- Change journal: every change is recorded, view with 'rl log tail'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

var logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func initConfig() {
	workspace := viper.GetString("workspace")
	if workspace == "" {
		workspace = "."
	}
	_ = godotenv.Load(filepath.Join(workspace, ".env"))
	viper.SetEnvPrefix("ROSTERLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error); defaults to rosterline.yml")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(entityCmd())
	rootCmd.AddCommand(kindCmd())
	rootCmd.AddCommand(eventCmd())
	rootCmd.AddCommand(participationCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

// --- helpers ---

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.Level = logLevel
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// applyLogLevel sets the level from --log-level, falling back to the
// workspace config.
func applyLogLevel(configured string) error {
	level := viper.GetString("log-level")
	if level == "" {
		level = configured
	}
	if level == "" {
		return nil
	}
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	return nil
}

func withWorkspace(ctx context.Context, fn func(context.Context, *app.Workspace) error) error {
	logger := newLogger()
	defer logger.Sync()
	ws, err := app.Open(ctx, viper.GetString("workspace"), logger)
	if err != nil {
		return err
	}
	defer ws.Close()
	if err := applyLogLevel(ws.Config.Log.Level); err != nil {
		return err
	}
	return fn(ctx, ws)
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	return withWorkspace(ctx, func(ctx context.Context, ws *app.Workspace) error {
		return fn(ctx, ws.Engine)
	})
}

// parseSets turns repeated key=value flags into flat attributes. An empty
// value is kept so optional fields can be cleared.
func parseSets(sets []string) (map[string]any, error) {
	attrs := make(map[string]any, len(sets))
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q (want key=value)", s)
		}
		attrs[key] = value
	}
	return attrs, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printError(err error) {
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		fmt.Fprintln(os.Stderr, "error: validation failed")
		for _, e := range fe {
			fmt.Fprintf(os.Stderr, "  - %s %s\n", e.Field, e.Message)
		}
		return
	}
	fmt.Fprintln(os.Stderr, "error:", err)
}
