package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"resumify/internal/auth"
	"resumify/internal/catalog"
	"resumify/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a resume to PDF with a local headless browser",
	RunE:  runExport,
}

var (
	exportTemplate string
	exportInput    string
	exportOutDir   string
	exportPremium  bool
	exportBackend  string
	exportBrowser  string
	exportTimeout  time.Duration
)

func init() {
	exportCmd.Flags().StringVarP(&exportTemplate, "template", "t", catalog.Onyx, "Template ID")
	exportCmd.Flags().StringVarP(&exportInput, "in", "i", "", "Resume file, JSON or YAML (defaults to the sample resume)")
	exportCmd.Flags().StringVarP(&exportOutDir, "out-dir", "o", ".", "Directory for the PDF")
	exportCmd.Flags().BoolVar(&exportPremium, "premium", false, "Export as a premium member (unlocks premium templates, no watermark)")
	exportCmd.Flags().StringVar(&exportBackend, "backend", envOr("EXPORT_BACKEND", "rod"), "Capture backend: rod or chromedp")
	exportCmd.Flags().StringVar(&exportBrowser, "browser", os.Getenv("EXPORT_BROWSER_BIN"), "Chromium executable (empty lets the backend pick one)")
	exportCmd.Flags().DurationVar(&exportTimeout, "timeout", 60*time.Second, "Capture timeout")

	rootCmd.AddCommand(exportCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runExport(cmd *cobra.Command, _ []string) error {
	t, err := catalog.Default().Get(exportTemplate)
	if err != nil {
		return err
	}
	data, err := loadResume(exportInput)
	if err != nil {
		return err
	}

	var identity *auth.Identity
	if exportPremium {
		identity = &auth.Identity{IsPremium: true}
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	capturer := export.NewCapturer(exportBackend, exportBrowser, exportTimeout, logger)
	if closer, ok := capturer.(io.Closer); ok {
		defer closer.Close()
	}
	pipeline := export.NewPipeline(capturer, export.Options{Logger: logger})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := pipeline.Run(ctx, export.Request{
		Key:      "local",
		Template: t,
		Data:     data,
		Identity: identity,
		OnState: func(s export.State) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", s)
		},
	})
	if errors.Is(err, export.ErrEntitlement) {
		return fmt.Errorf("template %s requires premium (rerun with --premium)", t.ID)
	}
	if err != nil {
		return err
	}

	path := filepath.Join(exportOutDir, res.FileName)
	if err := os.WriteFile(path, res.PDF, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d pages)\n", path, res.Pages)
	return nil
}
