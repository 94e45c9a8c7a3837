package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func withConfigRoot(t *testing.T) {
	t.Helper()

	t.Setenv("APPDATA", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoadMerged_NoProfileUsesDefaults(t *testing.T) {
	withConfigRoot(t)

	cfg, src, err := LoadMerged(Options{})
	if err != nil {
		t.Fatalf("LoadMerged() error = %v", err)
	}
	if src == "" {
		t.Error("empty source description")
	}

	if !cfg.MakePDF || cfg.KeepImages {
		t.Errorf("make_pdf/keep_images = %t/%t, want true/false", cfg.MakePDF, cfg.KeepImages)
	}
	if cfg.PageTimeout != 20*time.Second || cfg.ImageTimeout != 15*time.Second || cfg.Delay != 250*time.Millisecond {
		t.Errorf("timeouts = %s/%s/%s", cfg.PageTimeout, cfg.ImageTimeout, cfg.Delay)
	}
	if cfg.ImageWorkers != 1 || cfg.ImageRetries != 1 || cfg.FallbackThreshold != 3 || cfg.PDFQuality != 90 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadMerged_FlagsOverrideProfile(t *testing.T) {
	withConfigRoot(t)

	path, err := DefaultStore().Init()
	if err != nil {
		t.Fatalf("InitDefaultConfig() error = %v", err)
	}

	raw := []byte(`output: /srv/manga
make_pdf: true
delay: 1s
page_timeout: 45s
image_workers: 3
extra_selectors:
  - div.viewer img
allow_ext: [".PNG", " jpg "]
pdf_quality: 300
`)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, src, err := LoadMerged(Options{NoPDF: true, ImageRetries: 4, Output: "out"})
	if err != nil {
		t.Fatalf("LoadMerged() error = %v", err)
	}
	if src != path {
		t.Errorf("source = %q, want %q", src, path)
	}

	if cfg.Output != "out" || cfg.MakePDF || cfg.ImageRetries != 4 {
		t.Errorf("flag overrides not applied: %+v", cfg)
	}
	if cfg.Delay != time.Second || cfg.PageTimeout != 45*time.Second || cfg.ImageWorkers != 3 {
		t.Errorf("profile values lost: %+v", cfg)
	}
	if cfg.ImageTimeout != 15*time.Second {
		t.Errorf("missing key did not keep its default: %s", cfg.ImageTimeout)
	}
	if len(cfg.ExtraSelectors) != 1 || cfg.ExtraSelectors[0] != "div.viewer img" {
		t.Errorf("extra_selectors = %v", cfg.ExtraSelectors)
	}
	if len(cfg.AllowExt) != 2 || cfg.AllowExt[0] != "png" || cfg.AllowExt[1] != "jpg" {
		t.Errorf("allow_ext = %v", cfg.AllowExt)
	}
	if cfg.PDFQuality != 90 {
		t.Errorf("out of range quality not reset: %d", cfg.PDFQuality)
	}

	if o := cfg.DownloaderOptions(); o.Attempts != 4 || o.Workers != 3 || o.Delay != time.Second {
		t.Errorf("DownloaderOptions() = %+v", o)
	}
	if o := cfg.ScraperOptions(); o.PageTimeout != 45*time.Second || o.FallbackThreshold != 3 {
		t.Errorf("ScraperOptions() = %+v", o)
	}
}

func TestLoadMerged_IgnoreConfig(t *testing.T) {
	withConfigRoot(t)

	path, err := DefaultStore().Init()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("output: /elsewhere\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := LoadMerged(Options{IgnoreConfig: true})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output != "." {
		t.Errorf("Output = %q, profile should be ignored", cfg.Output)
	}
}

func TestLoadMerged_BrokenProfile(t *testing.T) {
	withConfigRoot(t)

	path, err := DefaultStore().Init()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("delay: [nope\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := LoadMerged(Options{}); err == nil {
		t.Error("LoadMerged() error = nil for invalid yaml")
	}
}

func TestStore_Lifecycle(t *testing.T) {
	root := t.TempDir()
	st := NewStore(root)

	if _, err := st.Current(); !errors.Is(err, ErrNoConfig) {
		t.Errorf("Current() on empty store error = %v, want ErrNoConfig", err)
	}
	if list, err := st.List(); err != nil || len(list) != 0 {
		t.Errorf("List() on empty store = %v, %v", list, err)
	}

	if _, err := st.Init(); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Init(); !errors.Is(err, os.ErrExist) {
		t.Errorf("second Init() error = %v, want ErrExist", err)
	}

	if _, err := st.Create("fast", DefaultConfig()); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := st.Create("fast", DefaultConfig()); err == nil {
		t.Error("Create() replaced an existing profile")
	}
	if _, err := st.Switch("fast"); err != nil {
		t.Fatal(err)
	}
	if err := st.Rename("fast", "quick"); err != nil {
		t.Fatal(err)
	}

	label, err := st.Current()
	if err != nil || label != "quick" {
		t.Errorf("Current() = %q, %v; want quick", label, err)
	}

	list, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Label != DefaultLabel || !list[1].Active {
		t.Errorf("List() = %+v", list)
	}

	if _, err := st.Remove(DefaultLabel); err == nil {
		t.Error("removing Default should fail")
	}
	fallback, err := st.Remove("quick")
	if err != nil {
		t.Fatal(err)
	}
	if fallback != DefaultLabel {
		t.Errorf("Remove() fallback = %q", fallback)
	}
	if label, _ := st.Current(); label != DefaultLabel {
		t.Errorf("active label after removal = %q", label)
	}
	if _, err := os.Stat(filepath.Join(root, "configs", "quick.yaml")); !os.IsNotExist(err) {
		t.Error("profile file still exists")
	}
}

func TestStore_RejectsBadLabels(t *testing.T) {
	st := NewStore(t.TempDir())

	for _, label := range []string{"", "  ", "..", "../escape", `a\b`, "x/y"} {
		if _, err := st.Create(label, DefaultConfig()); !errors.Is(err, ErrBadLabel) {
			t.Errorf("Create(%q) error = %v, want ErrBadLabel", label, err)
		}
	}
}

func TestStore_SwitchValidatesProfile(t *testing.T) {
	st := NewStore(t.TempDir())

	path, err := st.Create("odd", DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	raw := []byte("pdf_quality: 150\nfallback_threshold: 0\ndelay: -1s\nimage_workers: 2\nthreads: 8\n")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}

	problems, err := st.Switch("odd")
	if err != nil {
		t.Fatalf("Switch() error = %v", err)
	}

	var keys []string
	for _, p := range problems {
		keys = append(keys, p.Key)
	}
	want := []string{"threads", "delay", "fallback_threshold", "pdf_quality"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Errorf("problems = %v, want keys %v", problems, want)
	}
	if label, _ := st.Current(); label != "odd" {
		t.Errorf("active = %q, want odd", label)
	}

	broken, err := st.Create("broken", DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(broken, []byte("delay: [1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Switch("broken"); err == nil {
		t.Error("Switch() accepted an unparsable profile")
	}
	if label, _ := st.Current(); label != "odd" {
		t.Errorf("failed switch changed the active label to %q", label)
	}
	if _, err := st.Switch("missing"); err == nil {
		t.Error("Switch() to a missing profile succeeded")
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"defaults", "", nil},
		{"valid", "pdf_quality: 100\ndelay: 0s\nallow_ext: [png]\n", nil},
		{"timeouts", "page_timeout: 0s\nimage_timeout: -2s\n", []string{"page_timeout", "image_timeout"}},
		{"counts", "image_workers: 0\nimage_retries: -1\n", []string{"image_workers", "image_retries"}},
		{"quality", "pdf_quality: 0\n", []string{"pdf_quality"}},
		{"extensions", "allow_ext: [\" \", \".\"]\n", []string{"allow_ext"}},
		{"unknown sorted", "zoom: 2\ncookie: x\n", []string{"cookie", "zoom"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems, err := Check([]byte(tt.raw))
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}

			var keys []string
			for _, p := range problems {
				keys = append(keys, p.Key)
				if p.String() == "" {
					t.Error("empty problem message")
				}
			}
			if strings.Join(keys, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Check() keys = %v, want %v", keys, tt.want)
			}
		})
	}

	if _, err := Check([]byte("pdf_quality: high\n")); err == nil {
		t.Error("Check() accepted a non-numeric quality")
	}
}

func TestLoadFile_Normalises(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.yaml")
	if err := os.WriteFile(path, []byte("pdf_quality: 500\nimage_workers: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PDFQuality != 90 || cfg.ImageWorkers != 1 {
		t.Errorf("LoadFile() = %+v", cfg)
	}
}
