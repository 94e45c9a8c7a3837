package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brogergvhs/mangapdf/internal/assembler"
	"github.com/brogergvhs/mangapdf/internal/chapters"
	"github.com/brogergvhs/mangapdf/internal/config"
	"github.com/brogergvhs/mangapdf/internal/downloader"
	"github.com/brogergvhs/mangapdf/internal/pipeline"
	"github.com/brogergvhs/mangapdf/internal/providers/generic"
	"github.com/brogergvhs/mangapdf/internal/ui"
	"github.com/brogergvhs/mangapdf/internal/util"

	"github.com/spf13/cobra"
)

var (
	flagURL       string
	flagAllowExt  string
	flagSelectors []string

	// runtime
	flagOutput       string
	flagNoPDF        bool
	flagKeepImages   bool
	flagDryRun       bool
	flagDelay        time.Duration
	flagImageWorkers int
	flagRetries      int

	// headers
	flagUserAgent  string
	flagCloudflare bool
)

func init() {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download every page image of a chapter and build a PDF. Uses the defaults from the selected config, overwritten by CLI flags",
		RunE:  runDownload,
	}

	downloadCmd.Flags().StringVar(&flagURL, "url", "", "chapter page URL")
	downloadCmd.Flags().StringVar(&flagAllowExt, "allow-ext", "", "image extensions bound into the PDF (e.g. \"webp|jpg|png\")")
	downloadCmd.Flags().StringArrayVar(&flagSelectors, "selector", nil, "extra CSS selector for page images, tried after the built-in ones (repeatable)")

	downloadCmd.Flags().StringVar(&flagOutput, "output", "", "destination folder")
	downloadCmd.Flags().BoolVar(&flagNoPDF, "no-pdf", false, "only download the images")
	downloadCmd.Flags().BoolVar(&flagKeepImages, "keep-images", false, "keep the image folder after the PDF is built")
	downloadCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "list the page images that would be downloaded")
	downloadCmd.Flags().DurationVar(&flagDelay, "delay", 0, "pause between requests to the same host (default from config, 250ms)")
	downloadCmd.Flags().IntVar(&flagImageWorkers, "image-workers", 1, "parallel image downloads")
	downloadCmd.Flags().IntVar(&flagRetries, "retries", 1, "attempts per image; only server errors and network failures are retried")

	downloadCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	downloadCmd.Flags().BoolVar(&flagCloudflare, "cloudflare", false, "use a browser-like TLS fingerprint for Cloudflare protected sites")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, _ []string) error {
	opts := config.Options{
		IgnoreConfig: flagIgnoreConfig,
		Debug:        flagDebug,
		Output:       flagOutput,
		NoPDF:        flagNoPDF,
		KeepImages:   flagKeepImages,
		UserAgent:    flagUserAgent,
		Cloudflare:   flagCloudflare,
		Delay:        flagDelay,
	}
	if cmd.Flags().Changed("image-workers") {
		opts.ImageWorkers = flagImageWorkers
	}
	if cmd.Flags().Changed("retries") {
		opts.ImageRetries = flagRetries
	}

	cfg, usedPath, err := config.LoadMerged(opts)
	if err != nil {
		return err
	}

	if flagAllowExt != "" {
		cfg.AllowExt = splitExt(flagAllowExt)
	}
	cfg.ExtraSelectors = append(cfg.ExtraSelectors, flagSelectors...)

	logSvc := ui.NewLogger(cfg.Debug)
	if usedPath != "" {
		fmt.Printf("Config file: %s\n", usedPath)
	}

	if cfg.Debug {
		fmt.Println("Full config:")
		cfg.Print()
		fmt.Println()
	}

	if strings.TrimSpace(flagURL) == "" {
		return fmt.Errorf("missing --url")
	}

	client := util.NewHTTPClient(util.HTTPClientOptions{
		UserAgent:        cfg.UserAgent,
		CloudflareBypass: cfg.CloudflareBypass,
		DebugLogger:      logSvc,
	})

	ctx, cancel := util.InterruptContext(context.Background())
	defer cancel()

	scr := generic.NewScraper(client, logSvc, cfg.ScraperOptions())

	if flagDryRun {
		return dryRun(ctx, scr, flagURL, cfg)
	}

	obs := ui.NewProgressObserver(logSvc, os.Stdout)
	runner := pipeline.New(
		scr,
		downloader.New(client, logSvc, cfg.DownloaderOptions()),
		assembler.New(cfg.AssemblerOptions(), logSvc),
		obs,
	)

	start := time.Now()
	res, runErr := runner.Start(ctx, pipeline.Request{
		SourceURL:    flagURL,
		DestDir:      cfg.Output,
		MakeDocument: cfg.MakePDF,
		RetainImages: cfg.KeepImages,
	})
	obs.Close()

	if errors.Is(runErr, pipeline.ErrBusy) || errors.Is(runErr, pipeline.ErrInvalidURL) || errors.Is(runErr, pipeline.ErrNoDestination) {
		return runErr
	}

	fmt.Println()
	fmt.Println("Download Summary:")
	ui.Summary{
		Chapter:    res.Chapter.ID,
		Candidates: len(res.Candidates),
		Saved:      res.Batch.Succeeded(),
		Failed:     len(res.Batch.Failed()),
		Bytes:      res.Batch.Bytes(),
		Pages:      res.Document.Pages,
		Document:   res.DocumentPath,
		Elapsed:    time.Since(start),
	}.Print(logSvc)

	for _, it := range res.Batch.Failed() {
		logSvc.Debugf("page %d: %v\n", it.Index, it.Err)
	}
	for _, s := range res.Document.Skipped {
		logSvc.Warnf("not in PDF: %s (%v)\n", s.Path, s.Err)
	}

	if res.Outcome == pipeline.Failed {
		return runErr
	}

	return nil
}

func dryRun(ctx context.Context, scr *generic.Scraper, pageURL string, cfg *config.Config) error {
	images, err := scr.GetImages(ctx, pageURL)
	if err != nil {
		return err
	}

	ch := chapters.New(pageURL)
	fmt.Printf("Dry-run: %d pages for %s\n\n", len(images), ch.ID)
	for i, u := range images {
		fmt.Printf("%3d) %s\n     %s\n", i+1, chapters.PageFileName(i+1, u), u)
	}

	if cfg.MakePDF {
		fmt.Printf("\nPDF: %s\n", ch.OutputPDFPath(cfg.Output))
	}

	return nil
}

func splitExt(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ',' || r == ' '
	})

	return util.NormalizeExtList(fields)
}
