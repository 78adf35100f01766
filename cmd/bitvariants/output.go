package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/715d/bitvariants/pkg/bitvariants"
)

// Actions reported per file.
const (
	actionWritten   = "written"
	actionRemoved   = "removed"
	actionStale     = "stale"
	actionUnchanged = "unchanged"
)

// FileResult describes what happened to one generated file.
type FileResult struct {
	Path       string   `json:"path"`
	Package    string   `json:"package"`
	Action     string   `json:"action"`
	Containers []string `json:"containers"`
	Constants  int      `json:"constants"`
}

// Result is the outcome of one generator run.
type Result struct {
	Files []FileResult `json:"files"`
	Stats struct {
		Files     int           `json:"files"`
		Changed   int           `json:"changed"`
		Constants int           `json:"constants"`
		Duration  time.Duration `json:"duration"`
	} `json:"stats"`
}

// newResult classifies files. Paths in changed get action, or actionRemoved
// for orphans when writing; every other file is unchanged.
func newResult(files []bitvariants.GeneratedFile, changed []string, action string, dur time.Duration) *Result {
	var r Result
	r.Stats.Duration = dur
	r.Files = make([]FileResult, 0, len(files))

	for _, f := range files {
		fr := FileResult{
			Path:    f.Path,
			Package: f.Package,
			Action:  actionUnchanged,
		}
		for _, set := range f.Sets {
			fr.Containers = append(fr.Containers, set.Container())
			fr.Constants += len(set.Constants())
		}
		if slices.Contains(changed, f.Path) {
			fr.Action = action
			if f.Orphaned() && action == actionWritten {
				fr.Action = actionRemoved
			}
			r.Stats.Changed++
		}
		r.Stats.Files++
		r.Stats.Constants += fr.Constants
		r.Files = append(r.Files, fr)
	}

	slices.SortFunc(r.Files, func(a, b FileResult) int {
		return strings.Compare(a.Path, b.Path)
	})
	return &r
}

func writeResults(w io.Writer, result *Result, cfg *Config) error {
	var output string
	var err error

	if cfg.JSON {
		output, err = formatJSONOutput(result)
	} else {
		output = formatTextOutput(result, cfg)
	}
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, output)
	return err
}

func formatJSONOutput(result *Result) (string, error) {
	data, err := json.MarshalIndent(jOutput{
		Files:     result.Files,
		Stats:     result.Stats,
		Version:   version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling json output: %w", err)
	}
	return string(data) + "\n", nil
}

var statusColors = map[string]*color.Color{
	actionWritten:   color.New(color.FgGreen),
	actionRemoved:   color.New(color.FgYellow),
	actionStale:     color.New(color.FgRed, color.Bold),
	actionUnchanged: color.New(color.Faint),
}

func formatTextOutput(result *Result, cfg *Config) string {
	var output strings.Builder

	if cfg.Verbose {
		slog.Info("",
			"files", result.Stats.Files,
			"changed", result.Stats.Changed,
			"constants", result.Stats.Constants,
			"duration", result.Stats.Duration.String())
	}

	if result.Stats.Changed == 0 {
		slog.Info("generated files are up to date")
	}

	for _, f := range result.Files {
		if f.Action == actionUnchanged && !cfg.Verbose {
			continue
		}
		// Format: status path (containers)
		status := fmt.Sprintf("%-9s", f.Action)
		if c, ok := statusColors[f.Action]; ok {
			status = c.Sprint(status)
		}
		if len(f.Containers) == 0 {
			output.WriteString(fmt.Sprintf("%s %s\n", status, f.Path))
			continue
		}
		output.WriteString(fmt.Sprintf("%s %s (%s)\n", status, f.Path, strings.Join(f.Containers, ", ")))
	}

	return output.String()
}

// printFiles writes generated sources to w. When there is more than one
// file each is preceded by a comment naming its path.
func printFiles(w io.Writer, files []bitvariants.GeneratedFile) error {
	var printable []bitvariants.GeneratedFile
	for _, f := range files {
		if !f.Orphaned() {
			printable = append(printable, f)
		}
	}

	for i, f := range printable {
		if len(printable) > 1 {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "// %s\n", f.Path); err != nil {
				return err
			}
		}
		if _, err := w.Write(f.Content); err != nil {
			return err
		}
	}
	return nil
}

// applyColorMode sets fatih/color's global switch from the --color flag.
// "auto" keeps the library's terminal and NO_COLOR detection.
func applyColorMode(mode string) error {
	switch mode {
	case "auto":
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (want auto, on or off)", mode)
	}
	return nil
}

func colorEnabled() bool { return !color.NoColor }

type jOutput struct {
	Files     []FileResult `json:"files"`
	Stats     any          `json:"stats"`
	Version   string       `json:"version"`
	Timestamp string       `json:"timestamp"`
}
