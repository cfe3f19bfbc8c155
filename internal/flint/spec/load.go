package spec

import (
	_ "embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed spec.schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("spec.schema.json", schemaJSON)

// Load reads, validates and decodes one spec file. The spec name defaults
// to the file stem; defaultTag is applied when the file declares no tags.
func Load(path, defaultTag string) (TestSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return TestSpec{}, fmt.Errorf("read %s: %w", path, err)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return TestSpec{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := schema.Validate(doc); err != nil {
		return TestSpec{}, fmt.Errorf("validate %s: %w", path, err)
	}

	var sp TestSpec
	if err := yaml.Unmarshal(raw, &sp); err != nil {
		return TestSpec{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if sp.Name == "" {
		base := filepath.Base(path)
		sp.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if len(sp.Tags) == 0 && defaultTag != "" {
		sp.Tags = []string{defaultTag}
	}
	sp.SourcePath = path
	return sp, nil
}

// Discover walks dir recursively for `.spec` files. Files that fail to
// load are logged and skipped; they never abort discovery. Specs come back
// sorted by name.
func Discover(dir, defaultTag string, logger *log.Logger) (specs []TestSpec, skipped int, err error) {
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".spec") {
			return nil
		}
		sp, err := Load(path, defaultTag)
		if err != nil {
			logger.Printf("skipping spec: %v", err)
			skipped++
			return nil
		}
		specs = append(specs, sp)
		return nil
	})
	if walkErr != nil {
		return nil, skipped, fmt.Errorf("discover %s: %w", dir, walkErr)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs, skipped, nil
}
