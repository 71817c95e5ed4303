package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/zigwangles/tokydownloader/internal/client"
	"github.com/zigwangles/tokydownloader/internal/config"
	"github.com/zigwangles/tokydownloader/internal/metrics"
	"github.com/zigwangles/tokydownloader/internal/pause"
	"github.com/zigwangles/tokydownloader/internal/progress"
	"github.com/zigwangles/tokydownloader/internal/services"
)

var (
	outputFlag   string
	orderFlag    string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:           "tokydownloader [book-url]",
	Short:         "Download every chapter of an audiobook",
	Long:          "Fetch an audiobook page, extract its chapter list and download each chapter from the audio mirrors into a local folder.",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "folder to save chapters in (prompted when omitted)")
	rootCmd.Flags().StringVar(&orderFlag, "order", "", "chapter order: reverse or forward (default from config)")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "", "override the configured log level")
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()
	if logLevelFlag != "" {
		config.SetLogLevel(logLevelFlag)
	}
	logger := config.GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reporter, err := newErrorReporter(cfg.SentryDSN)
	if err != nil {
		logger.Warn().Err(err).Msg("Sentry disabled")
	}
	defer reporter.Flush()

	if err := download(ctx, cmd, args, cfg, reporter); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn().Msg("Interrupted, remaining chapters skipped")
			return err
		}
		logger.Error().Err(err).Msg("Download run failed")
		reporter.CaptureRunError(err)
		return err
	}
	return nil
}

func download(ctx context.Context, cmd *cobra.Command, args []string, cfg *config.Config, reporter *errorReporter) error {
	logger := config.GetLogger()
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	var bookURL string
	if len(args) > 0 {
		bookURL = args[0]
	} else {
		bookURL = prompt(in, out, "Enter the audiobook URL: ", "")
	}
	if bookURL == "" {
		return errors.New("no audiobook URL given")
	}

	outputDir := outputFlag
	if !cmd.Flags().Changed("output") {
		outputDir = prompt(in, out, fmt.Sprintf("Enter the folder to save to [%s]: ", cfg.OutputDir), cfg.OutputDir)
	}

	orderRaw := cfg.Order
	if orderFlag != "" {
		orderRaw = orderFlag
	}
	order, err := services.ParseOrder(orderRaw)
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer(cfg.Metrics.Address, cfg.Metrics.Port)
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("Starting Prometheus metrics HTTP server")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Failed to serve metrics")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("Failed to shutdown metrics server")
			}
		}()
	}

	pageClient := client.NewClient(cfg)
	defer pageClient.Close()

	chapters, err := pageClient.FetchChapters(ctx, bookURL)
	if err != nil {
		return fmt.Errorf("failed to read chapters from %s: %w", bookURL, err)
	}
	if len(chapters) == 0 {
		logger.Warn().Str("url", bookURL).Msg("Book page lists no chapters, nothing to download")
		return nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output folder %s: %w", outputDir, err)
	}

	pauseKey, _ := utf8.DecodeRuneInString(cfg.PauseKey)
	if pauseKey == utf8.RuneError {
		pauseKey = 'p'
	}

	progressReporter := progress.NewReporter(progress.Options{
		Logger:   logger,
		Interval: config.ParseDuration("progress_interval", cfg.ProgressInterval, 500*time.Millisecond),
		PauseKey: string(pauseKey),
	})

	pollInterval := config.ParseDuration("poll_interval", cfg.PollInterval, pause.DefaultPollInterval)
	controller := pause.NewController()
	listener := pause.NewListener(controller, pauseKey, pollInterval, progressReporter.PauseChanged)

	listenCtx, stopListening := context.WithCancel(ctx)
	defer stopListening()
	fmt.Fprintf(out, "Press '%c' to pause/resume downloads.\n", pauseKey)
	go listener.Run(listenCtx, in)

	downloader := services.NewMirrorDownloader(client.NewDownloadHTTPClient(cfg), services.MirrorOptions{
		Mirrors:      cfg.Mirrors,
		ChunkSize:    cfg.ChunkSize,
		Extension:    cfg.Extension,
		ReadTimeout:  config.ParseDuration("client_timeout", cfg.ClientTimeout, 10*time.Second),
		PollInterval: pollInterval,
		Gate:         controller,
		Observer:     services.MultiObserver{progressReporter, reporter},
	})

	summary := services.NewDownloadQueue(downloader, outputDir, order).Run(ctx, chapters)
	stopListening()

	logger.Info().
		Int("succeeded", len(summary.Succeeded)).
		Int("failed", len(summary.Failed)).
		Str("folder", outputDir).
		Msg("All downloads complete!")

	return ctx.Err()
}
