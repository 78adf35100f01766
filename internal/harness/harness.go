// Package harness runs the bitvariants generator against the cases under
// testdata/ and compares the result with each case's expected.yaml.
package harness

import (
	"fmt"
	"go/parser"
	"go/token"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/bitvariants/pkg/bitflags"
	"github.com/715d/bitvariants/pkg/bitvariants"
)

// BuildConfiguration represents a single build configuration to test.
type BuildConfiguration struct {
	// Name is a descriptive name for this configuration.
	Name string `yaml:"name"`

	// BuildTags are the build tags to use when loading packages.
	BuildTags []string `yaml:"build_tags"`

	// GOOS sets the target operating system.
	GOOS string `yaml:"goos,omitempty"`

	// GOARCH sets the target architecture.
	GOARCH string `yaml:"goarch,omitempty"`

	// StringMethod overrides the generator default when set.
	StringMethod *bool `yaml:"string_method,omitempty"`

	// ExpectedFiles lists the files the generator should produce.
	ExpectedFiles []ExpectedFile `yaml:"expected_files"`

	// ExpectedErrors lists substrings that must all appear in the
	// generator error. When set, generation is expected to fail.
	ExpectedErrors []string `yaml:"expected_errors"`
}

// TestCase represents a single test scenario.
type TestCase struct {
	// Dir is the directory containing the test code.
	Dir string `yaml:"-"`

	// BuildConfigurations defines multiple build configurations to test.
	BuildConfigurations []BuildConfiguration `yaml:"build_configurations"`
}

// ExpectedFile is one generated file, identified by its path relative to the
// test case directory.
type ExpectedFile struct {
	File string `yaml:"file"`

	// Orphaned marks a stale generated file the generator should remove.
	Orphaned bool `yaml:"orphaned,omitempty"`

	Sets []ExpectedSet `yaml:"sets"`

	// Contains lists snippets that must appear in the rendered source.
	Contains []string `yaml:"contains,omitempty"`
}

// ExpectedSet is one flag set inside a generated file.
type ExpectedSet struct {
	Container string            `yaml:"container"`
	Type      string            `yaml:"type"`
	Values    map[string]uint64 `yaml:"values"`
}

// TestHarness manages test execution.
type TestHarness struct {
	// root is the root directory for test data
	root string
}

// NewHarness creates a new test harness.
func NewHarness(root string) *TestHarness {
	return &TestHarness{root: root}
}

// Run executes a test case with all its build configurations.
func (h *TestHarness) Run(t *testing.T, tc *TestCase) *TestResult {
	t.Helper()
	require.NotEmpty(t, tc.BuildConfigurations, "test case has no build configurations")

	var results []ConfigurationResult
	allSuccess := true

	for _, cfg := range tc.BuildConfigurations {
		cfgResult := h.runConfiguration(t, tc, cfg)
		results = append(results, *cfgResult)
		if !cfgResult.Success {
			allSuccess = false
		}
	}

	var resultMsg string
	if allSuccess {
		resultMsg = fmt.Sprintf("All %d configurations passed", len(tc.BuildConfigurations))
	} else {
		failedCount := 0
		var msgs []string
		for _, cr := range results {
			if !cr.Success {
				failedCount++
				msgs = append(msgs, fmt.Sprintf("[%s] %s:\n  %s",
					cr.Configuration.Name, cr.Message, strings.Join(cr.Details, "\n  ")))
			}
		}
		resultMsg = fmt.Sprintf("%d/%d configurations failed:\n%s",
			failedCount, len(tc.BuildConfigurations), strings.Join(msgs, "\n"))
	}

	return &TestResult{
		TestCase:             tc,
		ConfigurationResults: results,
		Success:              allSuccess,
		Message:              resultMsg,
	}
}

// runConfiguration runs the generator for a single build configuration.
func (h *TestHarness) runConfiguration(t *testing.T, tc *TestCase, cfg BuildConfiguration) *ConfigurationResult {
	t.Helper()
	caseDir := filepath.Join(h.root, tc.Dir)
	pkgs := LoadPackages(t, &LoaderConfig{
		Dir:       caseDir,
		BuildTags: cfg.BuildTags,
		GOOS:      cfg.GOOS,
		GOARCH:    cfg.GOARCH,
	})

	opts := bitvariants.DefaultOptions()
	if cfg.StringMethod != nil {
		opts.StringMethod = *cfg.StringMethod
	}
	files, err := bitvariants.NewGenerator(opts).Generate(t.Context(), pkgs)
	if err != nil {
		return checkExpectedErrors(cfg, err)
	}
	if len(cfg.ExpectedErrors) > 0 {
		return &ConfigurationResult{
			Configuration: cfg,
			Message:       "Expected generation to fail",
			Details:       cfg.ExpectedErrors,
		}
	}

	return validateFiles(cfg, caseDir, files)
}

func checkExpectedErrors(cfg BuildConfiguration, err error) *ConfigurationResult {
	result := &ConfigurationResult{Configuration: cfg}
	if len(cfg.ExpectedErrors) == 0 {
		result.Message = "Unexpected error"
		result.Details = []string{err.Error()}
		return result
	}

	for _, want := range cfg.ExpectedErrors {
		if !strings.Contains(err.Error(), want) {
			result.Details = append(result.Details, fmt.Sprintf("Error should contain %q", want))
		}
	}
	if len(result.Details) > 0 {
		result.Message = "Error mismatch"
		result.Details = append(result.Details, "got: "+err.Error())
		return result
	}

	result.Success = true
	result.Message = fmt.Sprintf("Got expected error: %v", err)
	return result
}

// validateFiles compares generated files with the expected ones.
func validateFiles(cfg BuildConfiguration, caseDir string, files []bitvariants.GeneratedFile) *ConfigurationResult {
	result := &ConfigurationResult{Configuration: cfg, Files: files}

	actual := make(map[string]bitvariants.GeneratedFile)
	for _, f := range files {
		rel, err := filepath.Rel(caseDir, f.Path)
		if err != nil {
			rel = f.Path
		}
		actual[filepath.ToSlash(rel)] = f
	}

	var details []string
	expected := make(map[string]bool)
	for _, exp := range cfg.ExpectedFiles {
		expected[exp.File] = true
		got, ok := actual[exp.File]
		if !ok {
			details = append(details, "Missing generated file: "+exp.File)
			continue
		}
		details = append(details, compareFile(exp, got)...)
	}
	for rel := range actual {
		if !expected[rel] {
			details = append(details, "Unexpected generated file: "+rel)
		}
	}

	sort.Strings(details)
	result.Details = details
	result.Success = len(details) == 0
	if result.Success {
		result.Message = fmt.Sprintf("All %d expected files generated", len(cfg.ExpectedFiles))
	} else {
		result.Message = fmt.Sprintf("Test failed: %d problems", len(details))
	}
	return result
}

func compareFile(exp ExpectedFile, got bitvariants.GeneratedFile) []string {
	var details []string
	if exp.Orphaned != got.Orphaned() {
		return []string{fmt.Sprintf("%s: orphaned = %v, want %v", exp.File, got.Orphaned(), exp.Orphaned)}
	}
	if got.Orphaned() {
		return nil
	}

	if _, err := parser.ParseFile(token.NewFileSet(), exp.File, got.Content, parser.ParseComments); err != nil {
		details = append(details, fmt.Sprintf("%s: generated source does not parse: %v", exp.File, err))
	}
	for _, snippet := range exp.Contains {
		if !strings.Contains(string(got.Content), snippet) {
			details = append(details, fmt.Sprintf("%s: missing snippet %q", exp.File, snippet))
		}
	}

	sets := make(map[string]*bitflags.Set)
	for _, s := range got.Sets {
		sets[s.Container()] = s
	}
	if len(sets) != len(exp.Sets) {
		details = append(details, fmt.Sprintf("%s: %d sets generated, want %d", exp.File, len(sets), len(exp.Sets)))
	}
	for _, es := range exp.Sets {
		set, ok := sets[es.Container]
		if !ok {
			details = append(details, fmt.Sprintf("%s: missing set %s", exp.File, es.Container))
			continue
		}
		details = append(details, compareSet(exp.File, es, set)...)
	}
	return details
}

func compareSet(file string, exp ExpectedSet, set *bitflags.Set) []string {
	var details []string
	if exp.Type != "" && exp.Type != set.Width().String() {
		details = append(details, fmt.Sprintf("%s: %s has type %s, want %s", file, exp.Container, set.Width(), exp.Type))
	}

	consts := set.Constants()
	if len(consts) != len(exp.Values) {
		details = append(details, fmt.Sprintf("%s: %s has %d constants, want %d", file, exp.Container, len(consts), len(exp.Values)))
	}
	for name, want := range exp.Values {
		got, ok := set.Value(name)
		switch {
		case !ok:
			details = append(details, fmt.Sprintf("%s: %s.%s not generated", file, exp.Container, name))
		case got != want:
			details = append(details, fmt.Sprintf("%s: %s.%s = %d, want %d", file, exp.Container, name, got, want))
		}
	}
	return details
}

// ConfigurationResult represents the result of running a single build configuration.
type ConfigurationResult struct {
	// Configuration is the build configuration that was run.
	Configuration BuildConfiguration

	// Files is the raw result from the generator.
	Files []bitvariants.GeneratedFile

	// Success indicates if this configuration passed.
	Success bool

	// Message provides a summary of the result for this configuration.
	Message string

	// Details provides detailed information about failures for this configuration.
	Details []string
}

// TestResult represents the result of running a test case.
type TestResult struct {
	// TestCase is the test case that was run.
	TestCase *TestCase

	// ConfigurationResults contains results for each build configuration.
	ConfigurationResults []ConfigurationResult

	// Success indicates if the test passed (all configurations passed)
	Success bool

	// Message provides a summary of the result.
	Message string
}
