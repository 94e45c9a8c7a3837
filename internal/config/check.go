package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brogergvhs/mangapdf/internal/util"
)

// Problem is a profile value that is ignored or replaced when the profile is
// loaded.
type Problem struct {
	Key string
	Msg string
}

func (p Problem) String() string {
	return p.Key + ": " + p.Msg
}

var knownKeys = func() map[string]bool {
	keys := map[string]bool{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
		if name != "" && name != "-" {
			keys[name] = true
		}
	}
	return keys
}()

// Check reports unknown keys and out of range values in a raw profile. An
// error means the profile cannot be loaded at all.
func Check(raw []byte) ([]Problem, error) {
	var top map[string]any
	if err := yaml.Unmarshal(raw, &top); err != nil {
		return nil, err
	}

	var problems []Problem

	keys := make([]string, 0, len(top))
	for k := range top {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !knownKeys[k] {
			problems = append(problems, Problem{Key: k, Msg: "unknown key, ignored"})
		}
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, err
	}

	return append(problems, rangeProblems(c)...), nil
}

func rangeProblems(c *Config) []Problem {
	var out []Problem
	add := func(key, format string, args ...any) {
		out = append(out, Problem{Key: key, Msg: fmt.Sprintf(format, args...)})
	}

	if c.PageTimeout <= 0 {
		add("page_timeout", "%s is not positive, default used", c.PageTimeout)
	}
	if c.ImageTimeout <= 0 {
		add("image_timeout", "%s is not positive, default used", c.ImageTimeout)
	}
	if c.Delay < 0 {
		add("delay", "%s is negative, 0s used", c.Delay)
	}
	if c.ImageWorkers < 1 {
		add("image_workers", "%d is below 1, 1 used", c.ImageWorkers)
	}
	if c.ImageRetries < 1 {
		add("image_retries", "%d is below 1, 1 used", c.ImageRetries)
	}
	if c.FallbackThreshold < 1 {
		add("fallback_threshold", "%d is below 1, default used", c.FallbackThreshold)
	}
	if c.PDFQuality < 1 || c.PDFQuality > 100 {
		add("pdf_quality", "%d is outside 1-100, default used", c.PDFQuality)
	}
	if len(c.AllowExt) > 0 && len(util.NormalizeExtList(c.AllowExt)) == 0 {
		add("allow_ext", "no usable extensions, defaults used")
	}

	return out
}
