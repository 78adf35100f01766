package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"

	yaml "gopkg.in/yaml.v3"

	"github.com/stretchr/testify/require"

	"github.com/715d/bitvariants/pkg/bitvariants"
)

// LoaderConfig configures package loading.
type LoaderConfig struct {
	// Dir is the directory to load packages from.
	Dir string

	// BuildTags are build tags to apply.
	BuildTags []string

	// GOOS overrides the target operating system.
	GOOS string

	// GOARCH overrides the target architecture.
	GOARCH string
}

// LoadPackages loads every package under loaderCfg.Dir.
func LoadPackages(t *testing.T, loaderCfg *LoaderConfig) []*packages.Package {
	t.Helper()

	env := updateEnv(os.Environ(), "CGO_ENABLED", "0")
	if loaderCfg.GOOS != "" {
		env = updateEnv(env, "GOOS", loaderCfg.GOOS)
	}
	if loaderCfg.GOARCH != "" {
		env = updateEnv(env, "GOARCH", loaderCfg.GOARCH)
	}

	t.Logf("Loading packages from %q", loaderCfg.Dir)
	pkgs, err := bitvariants.LoadPackages(t.Context(), bitvariants.LoaderOptions{
		Packages:  []string{"./..."},
		BuildTags: loaderCfg.BuildTags,
		Dir:       loaderCfg.Dir,
		Env:       env,
	})
	require.NoError(t, err)
	return pkgs
}

// LoadTestCase loads the expected.yaml in dir. The case's Dir is stored
// relative to root.
func LoadTestCase(t *testing.T, dir, root string) *TestCase {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, "expected.yaml"))
	require.NoError(t, err)

	tc := &TestCase{}
	require.NoError(t, yaml.Unmarshal(data, tc))

	relPath, err := filepath.Rel(root, dir)
	if err != nil {
		relPath = filepath.Base(dir)
	}
	tc.Dir = relPath
	return tc
}

// updateEnv updates or adds an environment variable
func updateEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
