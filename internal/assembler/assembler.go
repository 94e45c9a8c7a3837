// Package assembler turns a directory of page images into one multi-page PDF.
package assembler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	_ "golang.org/x/image/webp"

	"github.com/brogergvhs/mangapdf/internal/util"
)

// ErrNoImages is returned when no file in the directory could be used.
var ErrNoImages = errors.New("no usable images to assemble")

const DefaultQuality = 90

func init() {
	// Keep pdfcpu from creating a config directory in the user's home.
	api.DisableConfigDir()
}

type Options struct {
	Quality  int
	AllowExt []string
}

type Assembler struct {
	opts Options
	log  util.DebugLogger
}

func New(opts Options, log util.DebugLogger) *Assembler {
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}
	if len(opts.AllowExt) == 0 {
		opts.AllowExt = util.DefaultImageExt
	}

	return &Assembler{opts: opts, log: log}
}

type SkippedFile struct {
	Path string
	Err  error
}

type Result struct {
	Path    string
	Pages   int
	Skipped []SkippedFile
}

// Progress is called after each page is prepared.
type Progress func(done, total int)

// Assemble writes every decodable image in dir, in file name order, as one
// page of outPath. When nothing survives it returns ErrNoImages and writes
// nothing.
func (a *Assembler) Assemble(ctx context.Context, dir, outPath string, progress Progress) (Result, error) {
	res := Result{Path: outPath}

	files, err := util.ListImageFiles(dir, a.opts.AllowExt)
	if err != nil {
		return res, fmt.Errorf("list %s: %w", dir, err)
	}

	pages := make([]*bytes.Buffer, 0, len(files))

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		buf, err := a.preparePage(f)
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedFile{Path: f, Err: err})
			if a.log != nil {
				a.log.Debugf("skipping %s: %v\n", filepath.Base(f), err)
			}
		} else {
			pages = append(pages, buf)
		}

		if progress != nil {
			progress(i+1, len(files))
		}
	}

	if len(pages) == 0 {
		return res, ErrNoImages
	}

	readers := make([]io.Reader, len(pages))
	for i, p := range pages {
		readers[i] = p
	}

	err = writePDF(outPath, readers)
	for _, p := range pages {
		p.Reset()
	}
	if err != nil {
		return res, err
	}

	res.Pages = len(pages)

	return res, nil
}

// preparePage decodes one image and re-encodes it as an opaque RGB JPEG.
func (a *Assembler) preparePage(path string) (*bytes.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, Flatten(img), &jpeg.Options{Quality: a.opts.Quality}); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	return buf, nil
}

func writePDF(outPath string, pages []io.Reader) error {
	conf := model.NewDefaultConfiguration()
	conf.WriteObjectStream = true
	conf.WriteXRefStream = true

	imp := pdfcpu.DefaultImportConfig()
	imp.Pos = types.Full

	tmp := outPath + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	err = api.ImportImages(nil, out, pages, imp, conf)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write pdf: %w", err)
	}

	return util.ReplaceFile(tmp, outPath)
}
