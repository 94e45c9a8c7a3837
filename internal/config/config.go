package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brogergvhs/mangapdf/internal/assembler"
	"github.com/brogergvhs/mangapdf/internal/downloader"
	"github.com/brogergvhs/mangapdf/internal/providers/generic"
	"github.com/brogergvhs/mangapdf/internal/util"
)

type Config struct {
	Output     string `yaml:"output"`
	MakePDF    bool   `yaml:"make_pdf"`
	KeepImages bool   `yaml:"keep_images"`
	Debug      bool   `yaml:"debug"`

	UserAgent        string `yaml:"user_agent"`
	CloudflareBypass bool   `yaml:"cloudflare_bypass"`

	PageTimeout  time.Duration `yaml:"page_timeout"`
	ImageTimeout time.Duration `yaml:"image_timeout"`
	Delay        time.Duration `yaml:"delay"`
	ImageWorkers int           `yaml:"image_workers"`
	ImageRetries int           `yaml:"image_retries"`

	FallbackThreshold int      `yaml:"fallback_threshold"`
	ExtraSelectors    []string `yaml:"extra_selectors"`

	AllowExt   []string `yaml:"allow_ext"`
	PDFQuality int      `yaml:"pdf_quality"`
}

// Options carries command line overrides. Zero values leave the profile
// value untouched.
type Options struct {
	IgnoreConfig bool
	Debug        bool
	Output       string
	NoPDF        bool
	KeepImages   bool
	UserAgent    string
	Cloudflare   bool
	Delay        time.Duration
	ImageWorkers int
	ImageRetries int
}

func DefaultConfig() *Config {
	return &Config{
		Output:            ".",
		MakePDF:           true,
		KeepImages:        false,
		Debug:             false,
		UserAgent:         "",
		CloudflareBypass:  false,
		PageTimeout:       generic.DefaultPageTimeout,
		ImageTimeout:      downloader.DefaultImageTimeout,
		Delay:             downloader.DefaultDelay,
		ImageWorkers:      1,
		ImageRetries:      1,
		FallbackThreshold: generic.DefaultFallbackThreshold,
		ExtraSelectors:    nil,
		AllowExt:          append([]string(nil), util.DefaultImageExt...),
		PDFQuality:        assembler.DefaultQuality,
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// loadYAML starts from the defaults so keys missing in older profiles keep
// their default values.
func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadFile reads a profile from any path and normalises it.
func LoadFile(path string) (*Config, error) {
	cfg, err := loadYAML(path)
	if err != nil {
		return nil, err
	}

	normalizeDefaults(cfg)
	return cfg, nil
}

func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := DefaultStore().Active()
	if errors.Is(err, ErrNoConfig) {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory)\nRun `mangapdf config init` to create an actual config\n", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, activePath, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.NoPDF {
		c.MakePDF = false
	}
	if o.KeepImages {
		c.KeepImages = true
	}
	if o.Debug {
		c.Debug = true
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.Cloudflare {
		c.CloudflareBypass = true
	}
	if o.Delay != 0 {
		c.Delay = o.Delay
	}
	if o.ImageWorkers != 0 {
		c.ImageWorkers = o.ImageWorkers
	}
	if o.ImageRetries != 0 {
		c.ImageRetries = o.ImageRetries
	}
}

func normalizeDefaults(c *Config) {
	if c.Output == "" {
		c.Output = "."
	}
	if c.PageTimeout <= 0 {
		c.PageTimeout = generic.DefaultPageTimeout
	}
	if c.ImageTimeout <= 0 {
		c.ImageTimeout = downloader.DefaultImageTimeout
	}
	if c.Delay < 0 {
		c.Delay = 0
	}
	if c.ImageWorkers <= 0 {
		c.ImageWorkers = 1
	}
	if c.ImageRetries <= 0 {
		c.ImageRetries = 1
	}
	if c.FallbackThreshold <= 0 {
		c.FallbackThreshold = generic.DefaultFallbackThreshold
	}
	if c.PDFQuality <= 0 || c.PDFQuality > 100 {
		c.PDFQuality = assembler.DefaultQuality
	}

	c.AllowExt = util.NormalizeExtList(c.AllowExt)
	if len(c.AllowExt) == 0 {
		c.AllowExt = append([]string(nil), util.DefaultImageExt...)
	}
}

func (c *Config) ScraperOptions() generic.Options {
	return generic.Options{
		PageTimeout:       c.PageTimeout,
		ExtraSelectors:    c.ExtraSelectors,
		FallbackThreshold: c.FallbackThreshold,
	}
}

func (c *Config) DownloaderOptions() downloader.Options {
	return downloader.Options{
		Workers:      c.ImageWorkers,
		Attempts:     c.ImageRetries,
		Delay:        c.Delay,
		ImageTimeout: c.ImageTimeout,
	}
}

func (c *Config) AssemblerOptions() assembler.Options {
	return assembler.Options{
		Quality:  c.PDFQuality,
		AllowExt: c.AllowExt,
	}
}

func (c *Config) Print() {
	if c.Output != "" {
		fmt.Printf(" -output: %s\n", c.Output)
	}
	fmt.Printf(" -make_pdf: %t\n", c.MakePDF)
	if c.KeepImages {
		fmt.Printf(" -keep_images: %t\n", c.KeepImages)
	}
	if c.Debug {
		fmt.Printf(" -debug: %t\n", c.Debug)
	}
	if c.UserAgent != "" {
		fmt.Printf(" -user_agent: %s\n", c.UserAgent)
	}
	if c.CloudflareBypass {
		fmt.Printf(" -cloudflare_bypass: %t\n", c.CloudflareBypass)
	}
	fmt.Printf(" -page_timeout: %s\n", c.PageTimeout)
	fmt.Printf(" -image_timeout: %s\n", c.ImageTimeout)
	fmt.Printf(" -delay: %s\n", c.Delay)
	fmt.Printf(" -image_workers: %d\n", c.ImageWorkers)
	fmt.Printf(" -image_retries: %d\n", c.ImageRetries)
	fmt.Printf(" -fallback_threshold: %d\n", c.FallbackThreshold)
	if len(c.ExtraSelectors) > 0 {
		fmt.Printf(" -extra_selectors: %s\n", strings.Join(c.ExtraSelectors, ", "))
	}
	if len(c.AllowExt) > 0 {
		fmt.Printf(" -allow_ext: %s\n", strings.Join(c.AllowExt, ", "))
	}
	fmt.Printf(" -pdf_quality: %d\n", c.PDFQuality)
}
