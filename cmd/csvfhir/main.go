package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/synthea-tools/csvfhir/internal/config"
	"github.com/synthea-tools/csvfhir/internal/convert"
	"github.com/synthea-tools/csvfhir/internal/fhirclient"
	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
	"github.com/synthea-tools/csvfhir/internal/platform/middleware"
	"github.com/synthea-tools/csvfhir/internal/platform/synthea"
	"github.com/synthea-tools/csvfhir/internal/store"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "csvfhir",
		Short: "Synthea CSV to FHIR R4 converter",
	}

	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(reverseCmd())
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(pushCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}
	return logger
}

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert Synthea CSV files to FHIR resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			table, _ := cmd.Flags().GetString("table")
			output, _ := cmd.Flags().GetString("output")
			asBundle, _ := cmd.Flags().GetBool("bundle")
			parquetOut, _ := cmd.Flags().GetString("parquet")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			if input == "" {
				input = cfg.InputDir
			}
			if output == "" {
				output = cfg.OutputDir
			}
			if input == "" {
				return fmt.Errorf("--input (or INPUT_DIR) is required")
			}
			if output == "" {
				output = "."
			}
			if err := os.MkdirAll(output, 0o755); err != nil {
				return err
			}

			svc := convert.NewService(logger, cfg.Workers)
			ctx := cmd.Context()

			if parquetOut != "" {
				rows, err := synthea.ReadFile(input)
				if err != nil {
					return err
				}
				n, err := convert.WriteObservationParquet(parquetOut, rows)
				if err != nil {
					return err
				}
				fmt.Printf("Wrote %d observation record(s) to %s\n", n, parquetOut)
				return nil
			}

			info, err := os.Stat(input)
			if err != nil {
				return err
			}
			if info.IsDir() {
				paths, err := svc.ConvertDir(ctx, input, output, asBundle)
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Println(p)
				}
				fmt.Printf("Converted %d file(s).\n", len(paths))
				return nil
			}

			path, err := svc.ConvertFile(ctx, input, table, output, asBundle)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
	cmd.Flags().String("input", "", "CSV file or directory of Synthea CSV files")
	cmd.Flags().String("table", "", "Table name (inferred from the file name when empty)")
	cmd.Flags().String("output", "", "Output directory")
	cmd.Flags().Bool("bundle", false, "Write a transaction Bundle instead of NDJSON")
	cmd.Flags().String("parquet", "", "Write observations to the given Parquet file instead of FHIR")
	return cmd
}

func reverseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reverse",
		Short: "Convert FHIR resources back to Synthea CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			output, _ := cmd.Flags().GetString("output")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			if output == "" {
				output = cfg.OutputDir
			}
			if input == "" {
				return fmt.Errorf("--input is required")
			}
			if output == "" {
				output = "."
			}
			if err := os.MkdirAll(output, 0o755); err != nil {
				return err
			}

			svc := convert.NewService(logger, cfg.Workers)
			paths, err := svc.ReverseFile(cmd.Context(), input, output)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			fmt.Printf("Wrote %d CSV file(s).\n", len(paths))
			return nil
		},
	}
	cmd.Flags().String("input", "", "Bundle JSON or NDJSON file of FHIR resources")
	cmd.Flags().String("output", "", "Output directory")
	return cmd
}

func loadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Convert CSV files and load the resources into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			if input == "" {
				input = cfg.InputDir
			}
			if input == "" {
				return fmt.Errorf("--input (or INPUT_DIR) is required")
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for load")
			}

			ctx := cmd.Context()
			st, err := store.New(ctx, logger, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.EnsureSchema(ctx); err != nil {
				return err
			}

			svc := convert.NewService(logger, cfg.Workers)
			total := 0
			for path, table := range csvFiles(input) {
				rows, err := synthea.ReadFile(path)
				if err != nil {
					return err
				}
				resources, err := svc.ConvertRows(ctx, table, rows)
				if err != nil {
					return err
				}
				n, err := st.UpsertBatch(ctx, resources)
				if err != nil {
					return err
				}
				logger.Info().Str("table", table).Int("resources", n).Msg("loaded")
				total += n
			}
			fmt.Printf("Loaded %d resource(s).\n", total)
			return nil
		},
	}
	cmd.Flags().String("input", "", "CSV file or directory of Synthea CSV files")
	return cmd
}

func pushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Convert CSV files and push transaction bundles to a FHIR server",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			if input == "" {
				input = cfg.InputDir
			}
			if input == "" {
				return fmt.Errorf("--input (or INPUT_DIR) is required")
			}
			if cfg.FHIRBaseURL == "" {
				return fmt.Errorf("FHIR_BASE_URL is required for push")
			}

			ctx := cmd.Context()
			svc := convert.NewService(logger, cfg.Workers)
			client := fhirclient.New(logger, cfg.FHIRBaseURL)

			total := 0
			for path, table := range csvFiles(input) {
				rows, err := synthea.ReadFile(path)
				if err != nil {
					return err
				}
				resources, err := svc.ConvertRows(ctx, table, rows)
				if err != nil {
					return err
				}
				if len(resources) == 0 {
					continue
				}
				bundle, err := fhir.NewTransactionBundle(resources)
				if err != nil {
					return err
				}
				if _, err := client.PushBundle(ctx, bundle); err != nil {
					return err
				}
				logger.Info().Str("table", table).Int("resources", len(resources)).Msg("pushed")
				total += len(resources)
			}
			fmt.Printf("Pushed %d resource(s).\n", total)
			return nil
		},
	}
	cmd.Flags().String("input", "", "CSV file or directory of Synthea CSV files")
	return cmd
}

// csvFiles yields path/table pairs for a single CSV file or every known
// table CSV inside a directory. Unknown file names are skipped so mixed
// directories (logs, README files) do not abort a run.
func csvFiles(input string) map[string]string {
	files := map[string]string{}
	info, err := os.Stat(input)
	if err != nil {
		return files
	}
	if !info.IsDir() {
		table := tableName(input)
		if table != "" {
			files[input] = table
		}
		return files
	}
	entries, err := os.ReadDir(input)
	if err != nil {
		return files
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		table := tableName(entry.Name())
		if table == "" {
			continue
		}
		files[filepath.Join(input, entry.Name())] = table
	}
	return files
}

func tableName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext != ".csv" {
		return ""
	}
	name := base[:len(base)-len(ext)]
	if _, ok := synthea.LookupTable(name); !ok {
		return ""
	}
	return name
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the conversion API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("csvfhir " + version)
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := context.Background()

	// The store is optional: without DATABASE_URL the server converts
	// in-memory only and the health check skips the database ping.
	var pinger convert.Pinger
	if cfg.DatabaseURL != "" {
		st, err := store.New(ctx, logger, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer st.Close()
		if err := st.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure schema")
		}
		pinger = st
		logger.Info().Msg("connected to database")
	}

	svc := convert.NewService(logger, cfg.Workers)
	handler := convert.NewHandler(svc, pinger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.Sanitize())
	e.Use(middleware.BodyLimit("1M", cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(60 * time.Second))

	e.GET("/healthz", handler.Health)

	api := e.Group("/api")
	if cfg.JWTSecret != "" {
		api.Use(middleware.JWTAuth(cfg.JWTSecret))
	}
	handler.RegisterRoutes(api)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
