package bitvariants

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// ErrNotGenerated is returned when an output path holds a file that was not
// written by bitvariants.
var ErrNotGenerated = errors.New("refusing to overwrite file without generated header")

// WriteFiles writes every generated file and removes orphaned ones.
// Files that already hold the same content are left untouched.
func WriteFiles(files []GeneratedFile) error {
	for _, file := range files {
		if err := writeFile(file); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(file GeneratedFile) error {
	existing, err := os.ReadFile(file.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		existing = nil
	case err != nil:
		return fmt.Errorf("reading %s: %w", file.Path, err)
	case !hasHeader(existing):
		return fmt.Errorf("%s: %w", file.Path, ErrNotGenerated)
	}

	if file.Orphaned() {
		if existing == nil {
			return nil
		}
		if err := os.Remove(file.Path); err != nil {
			return fmt.Errorf("removing %s: %w", file.Path, err)
		}
		return nil
	}

	if bytes.Equal(existing, file.Content) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(file.Path), dirPerm); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(file.Path, file.Content, filePerm); err != nil {
		return fmt.Errorf("writing file %s: %w", file.Path, err)
	}
	return nil
}

// CheckFiles compares files with what is on disk and returns the paths that
// would change if WriteFiles were called.
func CheckFiles(files []GeneratedFile) ([]string, error) {
	var stale []string
	for _, file := range files {
		existing, err := os.ReadFile(file.Path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			if !file.Orphaned() {
				stale = append(stale, file.Path)
			}
		case err != nil:
			return nil, fmt.Errorf("reading %s: %w", file.Path, err)
		case file.Orphaned() || !bytes.Equal(existing, file.Content):
			stale = append(stale, file.Path)
		}
	}
	return stale, nil
}

func hasHeader(content []byte) bool {
	line, _, _ := bytes.Cut(content, []byte("\n"))
	return strings.TrimSpace(string(line)) == Header
}

// writeDebugUnformatted writes unformatted code to a sidecar file next to the
// intended output. This is best-effort and should never make generation fail
// harder.
func writeDebugUnformatted(outPath string, content []byte) error {
	if outPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), dirPerm); err != nil {
		return err
	}
	debugPath := strings.TrimSuffix(outPath, ".go") + ".unformatted.go"
	return os.WriteFile(debugPath, content, filePerm)
}
