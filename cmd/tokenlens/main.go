package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/songzhibin97/tokenlens/internal/analysis"
	"github.com/songzhibin97/tokenlens/internal/configs"
	"github.com/songzhibin97/tokenlens/internal/server"
)

var (
	flagconf string

	config *configs.Config

	logLevel = new(slog.LevelVar)

	// 日志写 stderr，stdout 留给 analyze 的输出
	log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	}))
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tokenlens",
		Short:         "Social and market risk signals for Solana tokens",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
	}
	root.PersistentFlags().StringVar(&flagconf, "conf", "", "config path, eg: --conf configs/config.json")

	root.AddCommand(newServeCmd(), newAnalyzeCmd())
	return root
}

func loadConfig() error {
	c, err := configs.Load(flagconf)
	if err != nil {
		return err
	}
	config = c

	level, _ := config.SlogLevel()
	logLevel.Set(level)

	if config.Proxy != "" {
		_ = os.Setenv("HTTP_PROXY", config.Proxy)
		_ = os.Setenv("HTTPS_PROXY", config.Proxy)
		log.Debug("set proxy ok", "proxy", config.Proxy)
	}

	log.Debug("loaded config", "conf", flagconf, "metadata_sources", config.Sources.Metadata, "market_sources", config.Sources.Market)
	return nil
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server with the analysis form and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				config.Server.Addr = addr
			}

			service, err := buildService(config, log)
			if err != nil {
				return err
			}

			srv, err := server.New(server.Options{
				Addr:           config.Server.Addr,
				RequestTimeout: config.RequestTimeout(),
			}, service, server.NewMetrics(), log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <address>",
		Short: "Analyze one token and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := buildService(config, log)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if timeout := config.RequestTimeout(); timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			report, err := service.Analyze(ctx, args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func printReport(w io.Writer, report *analysis.Report) {
	rec := report.Recommendation

	fmt.Fprintf(w, "%s (%s)\n", report.Metadata.DisplayName(), report.Address)
	fmt.Fprintf(w, "Score: %.1f/100  %s\n", rec.Score, strings.ToUpper(rec.Verdict))
	fmt.Fprintf(w, "  social %.1f  notable %.1f (%d accounts)  market %.1f\n",
		rec.SocialScore, rec.NotableScore, rec.NotableCount, rec.MarketScore)
	for _, reason := range rec.Reasons {
		fmt.Fprintf(w, "  - %s\n", reason)
	}

	fmt.Fprintf(w, "Market: price $%g  liquidity $%.0f  volume24h $%.0f\n",
		report.Market.PriceUSD, report.Market.Liquidity, report.Market.Volume24h)
	fmt.Fprintf(w, "Social: %d mentions  engagement %.1f\n",
		report.Social.Mentions, report.Social.EngagementScore)

	for _, f := range report.Fetches {
		if !f.OK {
			fmt.Fprintf(w, "warning: %s unavailable: %s\n", f.Concern, f.Error)
		}
	}
	fmt.Fprintln(w, rec.Disclaimer)
}
