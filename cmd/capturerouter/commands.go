package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"CaptureRouter/internal/app"
	"CaptureRouter/internal/config"
	"CaptureRouter/internal/logging"
	"CaptureRouter/internal/usecase"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "capturerouter",
		Short:         "Route Telegram captures into Readwise Reader and push curated digests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config (default $CAPTURE_ROUTER_CONFIG)")

	root.AddCommand(
		newServeCmd(opts),
		newDigestCmd(opts),
		newDomainDigestCmd(opts),
		newCheckCmd(opts),
		newWebhookCmd(opts),
	)
	return root
}

// bootstrap loads and validates config, then builds the application.
func bootstrap(ctx context.Context, opts *rootOptions) (*app.Application, *slog.Logger, error) {
	cfg := config.Load(opts.configPath)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger := logging.New(cfg.Logging.Level)
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return application, logger, nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the capture bot and the daily digest scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, logger, err := bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer application.Close()

			logger.Info("capture router starting")
			return application.Serve(cmd.Context())
		},
	}
}

func newDigestCmd(opts *rootOptions) *cobra.Command {
	var digestOpts usecase.DigestOptions
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Build and push the daily digest once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, _, err := bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer application.Close()

			report, err := application.Digest.Run(cmd.Context(), digestOpts)
			if err != nil {
				return err
			}
			printReport(cmd, report, digestOpts.DryRun)
			return nil
		},
	}
	cmd.Flags().BoolVar(&digestOpts.DryRun, "dry-run", false, "print the digest instead of sending it")
	cmd.Flags().BoolVar(&digestOpts.NoAI, "no-ai", false, "use keyword rules instead of the generative filter")
	return cmd
}

func newDomainDigestCmd(opts *rootOptions) *cobra.Command {
	var (
		hours  int
		dryRun bool
		list   bool
	)
	cmd := &cobra.Command{
		Use:   "domain-digest [key|all]",
		Short: "Push per-domain feed digests",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer application.Close()

			if list {
				for _, d := range application.Domains.Domains() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s %s\n", d.Key, d.Glyph, d.Name)
				}
				return nil
			}

			key := "all"
			if len(args) == 1 {
				key = strings.ToLower(args[0])
			}
			if key == "all" {
				return application.Domains.RunAll(cmd.Context(), hours, dryRun)
			}

			report, err := application.Domains.Run(cmd.Context(), key, hours, dryRun)
			if err != nil {
				return err
			}
			printReport(cmd, report, dryRun)
			return nil
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 24, "look back this many hours")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the digest instead of sending it")
	cmd.Flags().BoolVar(&list, "list", false, "list configured domains")
	return cmd
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Probe Reader, Telegram, the LLM backend and storage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, _, err := bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer application.Close()

			failed := 0
			for _, r := range application.Check(cmd.Context()) {
				if r.Err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "✗ %-9s %v\n", r.Name, r.Err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %-9s %s\n", r.Name, r.Detail)
			}
			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}

func newWebhookCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the Telegram webhook registration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set",
			Short: "Register PUBLIC_URL/webhook with Telegram",
			RunE: func(cmd *cobra.Command, _ []string) error {
				application, _, err := bootstrap(cmd.Context(), opts)
				if err != nil {
					return err
				}
				defer application.Close()

				url, err := application.SetWebhook(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "webhook set to", url)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Remove the webhook so long polling can be used",
			RunE: func(cmd *cobra.Command, _ []string) error {
				application, _, err := bootstrap(cmd.Context(), opts)
				if err != nil {
					return err
				}
				defer application.Close()

				if err := application.DeleteWebhook(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "webhook deleted")
				return nil
			},
		},
	)
	return cmd
}

func printReport(cmd *cobra.Command, report usecase.DigestReport, dryRun bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "candidates: %d, selected: %d, sent: %t\n", report.Candidates, len(report.Selected), report.Sent)
	if dryRun {
		fmt.Fprintln(out, "---")
		fmt.Fprintln(out, report.Message)
	}
}
