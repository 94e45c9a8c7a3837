package chapters

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// DefaultID names chapters whose URL carries no usable path segment.
const DefaultID = "chapter"

// DefaultExt is used for page files whose URL has no recognizable extension.
const DefaultExt = ".jpg"

var (
	reExt = regexp.MustCompile(`^\.[A-Za-z0-9]{1,5}$`)
)

type Chapter struct {
	URL string
	ID  string
}

func New(rawURL string) Chapter {
	return Chapter{URL: rawURL, ID: IDFromURL(rawURL)}
}

// IDFromURL derives a filesystem-safe identifier from the last non-empty
// segment of the URL path. The segment is taken as escaped, so an encoded
// slash stays part of it.
func IDFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return DefaultID
	}

	p := strings.Trim(u.EscapedPath(), "/")
	if p == "" {
		return DefaultID
	}

	parts := strings.Split(p, "/")
	id := sanitize(parts[len(parts)-1])
	if id == "" || id == "." || id == ".." {
		return DefaultID
	}

	return id
}

func sanitize(s string) string {
	repl := []string{
		"-", "_",
		"/", "_",
		"\\", "_",
	}
	for i := 0; i < len(repl); i += 2 {
		s = strings.ReplaceAll(s, repl[i], repl[i+1])
	}

	clean := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsControl(r) || strings.ContainsRune(`<>:"|?*`, r) {
			continue
		}
		clean = append(clean, r)
	}

	return strings.TrimSpace(string(clean))
}

func (c Chapter) FolderName() string {
	return c.ID
}

func (c Chapter) WorkDir(out string) string {
	return filepath.Join(out, c.FolderName())
}

func (c Chapter) OutputPDF() string {
	return c.ID + ".pdf"
}

func (c Chapter) OutputPDFPath(out string) string {
	return filepath.Join(out, c.OutputPDF())
}

// PageFileName returns page_NNN<ext> for a 1-based page index.
func PageFileName(index int, imageURL string) string {
	return fmt.Sprintf("page_%03d%s", index, extFromURL(imageURL))
}

func extFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return DefaultExt
	}

	ext := path.Ext(u.Path)
	if !reExt.MatchString(ext) {
		return DefaultExt
	}

	return ext
}
