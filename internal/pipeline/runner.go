// Package pipeline runs one chapter through fetch, locate, download and
// assembly, reporting progress to an Observer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync/atomic"

	"github.com/brogergvhs/mangapdf/internal/assembler"
	"github.com/brogergvhs/mangapdf/internal/chapters"
	"github.com/brogergvhs/mangapdf/internal/downloader"
	"github.com/brogergvhs/mangapdf/internal/providers"
	"github.com/brogergvhs/mangapdf/internal/util"
)

var (
	ErrBusy            = errors.New("a run is already in progress")
	ErrInvalidURL      = errors.New("source must be an http(s) URL")
	ErrNoDestination   = errors.New("no destination directory chosen")
	ErrUnsupportedPage = errors.New("no images found: site not supported or blocked")
)

// downloadShare is the part of the progress range used by image downloads.
const downloadShare = 0.8

type Downloader interface {
	DownloadAll(ctx context.Context, urls []string, folder, referer string, progress downloader.Progress) (downloader.BatchResult, error)
}

type Assembler interface {
	Assemble(ctx context.Context, dir, outPath string, progress assembler.Progress) (assembler.Result, error)
}

type Outcome int

const (
	Failed Outcome = iota
	Succeeded
	PartialSuccess
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case PartialSuccess:
		return "partial success"
	default:
		return "failed"
	}
}

type Request struct {
	SourceURL    string
	DestDir      string
	MakeDocument bool
	RetainImages bool
}

type Result struct {
	Outcome    Outcome
	Chapter    chapters.Chapter
	Candidates []string
	Batch      downloader.BatchResult
	Document   assembler.Result
	// DocumentPath is set only when the PDF was written.
	DocumentPath   string
	WorkDir        string
	WorkDirRemoved bool
	Err            error
}

// Runner executes at most one run at a time.
type Runner struct {
	scraper providers.Scraper
	dl      Downloader
	asm     Assembler
	obs     Observer

	running atomic.Bool
}

func New(s providers.Scraper, dl Downloader, asm Assembler, obs Observer) *Runner {
	if obs == nil {
		obs = NopObserver{}
	}

	return &Runner{scraper: s, dl: dl, asm: asm, obs: obs}
}

func (r *Runner) Running() bool {
	return r.running.Load()
}

// Start performs a complete run and blocks until it ends. A run already in
// progress or an invalid request is rejected without changing run state.
// The error is non-nil for rejections and failed runs.
func (r *Runner) Start(ctx context.Context, req Request) (res Result, err error) {
	if r.running.Load() {
		r.obs.OnStatus("Already running...", SeverityWarning)
		return Result{}, ErrBusy
	}

	req.SourceURL = strings.TrimSpace(req.SourceURL)
	req.DestDir = strings.TrimSpace(req.DestDir)

	if err := validate(req); err != nil {
		r.obs.OnStatus(err.Error(), SeverityError)
		return Result{}, err
	}

	if !r.running.CompareAndSwap(false, true) {
		r.obs.OnStatus("Already running...", SeverityWarning)
		return Result{}, ErrBusy
	}
	defer r.running.Store(false)

	defer func() {
		if p := recover(); p != nil {
			res, err = r.fail(res, fmt.Errorf("unexpected error: %v", p))
		}
	}()

	return r.run(ctx, req)
}

func validate(req Request) error {
	lu := strings.ToLower(req.SourceURL)
	if !strings.HasPrefix(lu, "http://") && !strings.HasPrefix(lu, "https://") {
		return ErrInvalidURL
	}

	if u, err := url.Parse(req.SourceURL); err != nil || u.Host == "" {
		return ErrInvalidURL
	}

	if req.DestDir == "" {
		return ErrNoDestination
	}

	return nil
}

func (r *Runner) run(ctx context.Context, req Request) (Result, error) {
	ch := chapters.New(req.SourceURL)
	res := Result{Chapter: ch, WorkDir: ch.WorkDir(req.DestDir)}

	r.obs.OnProgressFraction(0)
	r.obs.OnStatus("Fetching page...", SeverityProgress)

	doc, err := r.scraper.FetchPage(ctx, req.SourceURL)
	if err != nil {
		return r.fail(res, fmt.Errorf("fetch page: %w", err))
	}

	images := r.scraper.FindImages(doc, req.SourceURL)
	res.Candidates = images
	r.obs.OnCandidateCount(len(images))

	if len(images) == 0 {
		return r.fail(res, ErrUnsupportedPage)
	}

	if err := os.MkdirAll(req.DestDir, 0755); err != nil {
		return r.fail(res, fmt.Errorf("create output folder: %w", err))
	}

	total := len(images)
	r.obs.OnStatus(fmt.Sprintf("Downloading %d pages...", total), SeverityProgress)

	batch, err := r.dl.DownloadAll(ctx, images, res.WorkDir, req.SourceURL, func(done, total int) {
		r.obs.OnItemProgress(done, total)
		r.obs.OnProgressFraction(float64(done) / float64(total) * downloadShare)
	})
	res.Batch = batch
	if err != nil {
		return r.fail(res, err)
	}

	saved := batch.Succeeded()
	failedNote := ""
	if n := len(batch.Failed()); n > 0 {
		failedNote = fmt.Sprintf(" (%d of %d pages failed)", n, total)
	}

	if !req.MakeDocument {
		res.Outcome = Succeeded
		r.obs.OnProgressFraction(1)
		r.obs.OnStatus(fmt.Sprintf("Done! %d pages saved in %s/%s", saved, ch.FolderName(), failedNote), SeveritySuccess)
		return res, nil
	}

	r.obs.OnStatus("Making PDF...", SeverityProgress)

	pdfPath := ch.OutputPDFPath(req.DestDir)
	built, err := r.asm.Assemble(ctx, res.WorkDir, pdfPath, func(done, total int) {
		r.obs.OnProgressFraction(downloadShare + float64(done)/float64(total)*(1-downloadShare))
	})
	res.Document = built

	if err != nil {
		if ctx.Err() != nil {
			return r.fail(res, ctx.Err())
		}

		res.Outcome = PartialSuccess
		res.Err = err
		r.obs.OnStatus(fmt.Sprintf("PDF failed (%v), but images are saved in %s/", err, ch.FolderName()), SeverityWarning)
		return res, nil
	}

	res.DocumentPath = pdfPath
	res.Outcome = Succeeded
	r.obs.OnProgressFraction(1)

	if req.RetainImages {
		r.obs.OnStatus(fmt.Sprintf("Done! %d-page PDF + images in %s/%s", built.Pages, ch.FolderName(), failedNote), SeveritySuccess)
		return res, nil
	}

	if err := util.CleanupFolder(res.WorkDir); err != nil {
		r.obs.OnStatus(fmt.Sprintf("Could not remove %s: %v", res.WorkDir, err), SeverityWarning)
	} else {
		res.WorkDirRemoved = true
	}

	r.obs.OnStatus(fmt.Sprintf("Done! %d pages → %s%s", built.Pages, ch.OutputPDF(), failedNote), SeveritySuccess)

	return res, nil
}

func (r *Runner) fail(res Result, err error) (Result, error) {
	res.Outcome = Failed
	res.Err = err

	r.obs.OnStatus("Failed: "+err.Error(), SeverityError)
	r.obs.OnProgressFraction(0)

	return res, err
}
