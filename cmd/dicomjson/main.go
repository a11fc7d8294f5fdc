package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/caio-sobreiro/dicomjson/auth"
	"github.com/caio-sobreiro/dicomjson/client"
	"github.com/caio-sobreiro/dicomjson/config"
	"github.com/caio-sobreiro/dicomjson/datasource"
	"github.com/caio-sobreiro/dicomjson/dicom"
	"github.com/caio-sobreiro/dicomjson/index"
	"github.com/caio-sobreiro/dicomjson/ingest"
	"github.com/caio-sobreiro/dicomjson/interfaces"
	"github.com/caio-sobreiro/dicomjson/server"
	"github.com/caio-sobreiro/dicomjson/services"
	"github.com/caio-sobreiro/dicomjson/types"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dicomjson",
		Short:         "DICOM JSON study list data source",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(encodeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app is everything a command needs, built from the loaded config.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	ds       *datasource.DataSource
	store    *services.MetadataStore
	registry *services.ImageIDRegistry
}

func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(cfg)

	var provider interfaces.AuthHeaderProvider = auth.StaticToken(cfg.UploadToken)
	if cfg.JWTSecret != "" {
		provider = &auth.SignedToken{
			Key:      []byte(cfg.JWTSecret),
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			Subject:  "dicomjson",
			TTL:      cfg.JWTTTL,
		}
	}

	store := services.NewMetadataStore(services.WithStoreLogger(logger))
	registry := services.NewImageIDRegistry(services.WithRegistryLogger(logger))
	ds := datasource.New(cfg.Source(), datasource.Deps{
		Index:    index.New(),
		Fetcher:  ingest.NewHTTPFetcher(ingest.WithAuth(provider), ingest.WithHTTPClient(newHTTPClient(cfg.FetchTimeout))),
		Registry: registry,
		Store:    store,
		Encoder:  dicom.NewEncoder(dicom.WithLogger(logger)),
		Upload: client.Config{
			Timeout: cfg.UploadTimeout,
			Auth:    provider,
			Logger:  &logger,
		},
	}, datasource.WithLogger(logger), datasource.WithConcurrency(cfg.Concurrency))

	return &app{cfg: cfg, logger: logger, ds: ds, store: store, registry: registry}, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the data source over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if a.cfg.SourceURL != "" {
				uids, err := a.ds.Initialize(ctx, a.cfg.SourceURL)
				if err != nil {
					return fmt.Errorf("initialize %s: %w", a.cfg.SourceURL, err)
				}
				a.logger.Info().Strs("study_instance_uids", uids).Msg("Source ingested")
			}

			opts := []server.Option{
				server.WithLogger(a.logger),
			}
			if a.cfg.RequireAuth {
				opts = append(opts, server.WithStoreMiddleware(auth.JWTMiddleware(auth.JWTConfig{
					Issuer:     a.cfg.JWTIssuer,
					Audience:   a.cfg.JWTAudience,
					SigningKey: []byte(a.cfg.JWTSecret),
				})))
			}

			handler := server.NewHandler(a.ds, a.store, a.registry)
			err = server.ListenAndServe(ctx, a.cfg.ListenAddr, handler, opts...)
			a.ds.Close()
			if err != nil && ctx.Err() == nil {
				return err
			}
			a.logger.Info().Msg("server stopped")
			return nil
		},
	}
}

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <url>",
		Short: "Fetch a study list and print its StudyInstanceUIDs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			uids, err := a.ds.Initialize(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"studyInstanceUIDs": uids,
				"state":             a.ds.State(args[0]).String(),
			})
		},
	}
}

func searchCmd() *cobra.Command {
	var sourceURL string
	cmd := &cobra.Command{
		Use:   "search <key> <value>",
		Short: "Search the studies of a study list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if sourceURL == "" {
				sourceURL = a.cfg.SourceURL
			}
			if sourceURL == "" {
				return fmt.Errorf("--url is required")
			}
			if _, err := a.ds.Initialize(cmd.Context(), sourceURL); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), a.ds.Search(args[0], args[1]))
		},
	}
	cmd.Flags().StringVar(&sourceURL, "url", "", "study list URL to search")
	return cmd
}

func encodeCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "encode <dataset.json>",
		Short: "Encode a naturalized dataset as a Part10 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var attrs types.Attributes
			if err := json.Unmarshal(raw, &attrs); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
			data, err := dicom.NewEncoder(dicom.WithLogger(logger)).Encode(dicom.Part10Input{Dataset: attrs})
			if err != nil {
				return err
			}

			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "file to write (default: stdout)")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
