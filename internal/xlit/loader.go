package xlit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadSource decodes one rule set document from r. Unknown keys are rejected
// to catch typos in hand-maintained rule files.
func LoadSource(r io.Reader) (RuleSetSource, error) {
	var src RuleSetSource
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&src); err != nil {
		return RuleSetSource{}, fmt.Errorf("xlit: decode rule set yaml: %w", err)
	}
	return src, nil
}

// LoadFile reads and compiles a single rule set document from disk.
func LoadFile(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("xlit: open rule set file %q: %w", path, err)
	}
	defer f.Close()

	src, err := LoadSource(f)
	if err != nil {
		return nil, fmt.Errorf("xlit: rule set file %q: %w", path, err)
	}
	return Compile(src)
}

// LoadDir reads, compiles, and assembles every rule set document
// (*.yaml / *.yml) in dir into an [Engine].
//
// Files are processed in sorted filename order, which fixes load order and
// therefore the alphabet legend and first-invocation tie-breaks; prefix
// filenames ("10-xsampa.yaml") to control it. All compile errors across all
// files are collected and joined, so a broken rule library reports every
// offending (rule set, rule index) pair at once instead of failing one file
// at a time.
func LoadDir(dir string) (*Engine, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("xlit: read rules dir %q: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, fmt.Errorf("xlit: rules dir %q contains no rule set documents", dir)
	}

	var (
		sets []*RuleSet
		errs []error
	)
	for _, name := range names {
		rs, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sets = append(sets, rs)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return New(sets...)
}
