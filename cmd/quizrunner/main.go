package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/quizrunner/internal/datefmt"
	"github.com/pavelanni/quizrunner/internal/handler"
	appI18n "github.com/pavelanni/quizrunner/internal/i18n"
	"github.com/pavelanni/quizrunner/internal/lib/slogcustom"
	"github.com/pavelanni/quizrunner/internal/model"
	"github.com/pavelanni/quizrunner/internal/quiz"
	"github.com/pavelanni/quizrunner/internal/source"
	"github.com/pavelanni/quizrunner/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "quizrunner",
		Short:        "Multiple-choice test runner with a persistent result history",
		SilenceUsage: true,
	}

	serve := serveCmd()
	root.AddCommand(serve, takeCmd(), scoreCmd(), historyCmd(), clearHistoryCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `quizrunner --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP test server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("default-test", "geography.json", "Test shown on the start page")
	f.StringSlice("cors-origins", nil, "Origins allowed to call the JSON API")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /quiz)")
	addStoreFlags(f)
	addSourceFlags(f)
	addCommonFlags(f)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the result history as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addStoreFlags(f)
	addCommonFlags(f)
	return cmd
}

func addStoreFlags(f *pflag.FlagSet) {
	f.String("db", "quizrunner.db", "Database path (sqlite) or connection URL (postgres)")
	f.String("db-driver", "sqlite", "Database driver (sqlite, postgres)")
}

func addSourceFlags(f *pflag.FlagSet) {
	f.String("tests-dir", "tests", "Directory holding question set files")
	f.String("tests-url", "", "Base URL to fetch question sets from instead of tests-dir")
	f.Duration("fetch-timeout", 10*time.Second, "Timeout for fetching a question set over HTTP")
}

func addCommonFlags(f *pflag.FlagSet) {
	f.StringP("lang", "l", appI18n.DefaultLanguage, "UI language")
	f.String("date-locale", "en-US", "Locale used to write dates in the history")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json, pretty)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(cmd.ErrOrStderr(), handlerOpts)
	case "pretty":
		logHandler = slogcustom.NewPrettyHandler(cmd.ErrOrStderr(), logLevel)
	default:
		logHandler = slog.NewTextHandler(cmd.ErrOrStderr(), handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("QUIZRUNNER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("quizrunner")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizrunner")
	v.AddConfigPath("/etc/quizrunner")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// loadConfig reads every configuration key a command may use.
func loadConfig(v *viper.Viper) model.Config {
	return model.Config{
		Addr:         v.GetString("addr"),
		DBDriver:     v.GetString("db-driver"),
		DBDSN:        v.GetString("db"),
		TestsDir:     v.GetString("tests-dir"),
		TestsURL:     v.GetString("tests-url"),
		FetchTimeout: v.GetDuration("fetch-timeout"),
		DefaultTest:  v.GetString("default-test"),
		DateLocale:   v.GetString("date-locale"),
		CORSOrigins:  v.GetStringSlice("cors-origins"),
		BasePath:     handler.NormalizeBasePath(v.GetString("base-path")),
	}
}

func openStore(ctx context.Context, cfg model.Config) (*store.Store, error) {
	driver, err := store.ParseDriver(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	db, err := store.New(ctx, driver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func openSource(cfg model.Config) (quiz.Source, error) {
	if cfg.TestsURL != "" {
		return source.NewHTTP(cfg.TestsURL, cfg.FetchTimeout), nil
	}
	dir, err := source.NewDir(cfg.TestsDir)
	if err != nil {
		return nil, fmt.Errorf("open tests dir: %w", err)
	}
	return dir, nil
}

// openService wires the question source, the history store and the date
// formatter into a quiz.Service. Commands that never load a test pass
// withSource false. The returned func closes the store.
func openService(ctx context.Context, v *viper.Viper, withSource bool) (*quiz.Service, model.Config, func(), error) {
	cfg := loadConfig(v)

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return nil, cfg, nil, fmt.Errorf("init i18n: %w", err)
	}
	dates, err := datefmt.New(cfg.DateLocale)
	if err != nil {
		return nil, cfg, nil, err
	}
	var src quiz.Source
	if withSource {
		if src, err = openSource(cfg); err != nil {
			return nil, cfg, nil, err
		}
	}
	db, err := openStore(ctx, cfg)
	if err != nil {
		return nil, cfg, nil, err
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			slog.Warn("close database", "error", err)
		}
	}
	return quiz.NewService(src, db, quiz.WithDateFormatter(dates)), cfg, closeFn, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	svc, cfg, closeFn, err := openService(cmd.Context(), v, true)
	if err != nil {
		return err
	}
	defer closeFn()

	h, err := handler.New(svc, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	lang := v.GetString("lang")
	slog.Info("starting server",
		"addr", cfg.Addr,
		"lang", lang,
		"db_driver", cfg.DBDriver,
		"tests_dir", cfg.TestsDir,
		"tests_url", cfg.TestsURL,
		"default_test", cfg.DefaultTest,
		"date_locale", cfg.DateLocale,
		"base_path", cfg.BasePath,
	)
	return http.ListenAndServe(cfg.Addr, h.Router(lang))
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	db, err := openStore(ctx, loadConfig(v))
	if err != nil {
		return err
	}
	defer db.Close()

	export, err := db.Export(ctx)
	if err != nil {
		return fmt.Errorf("export history: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	slog.Info("exported history", "entries", export.Count, "output", outPath)
	return nil
}
