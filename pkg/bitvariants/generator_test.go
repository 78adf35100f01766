package bitvariants

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"

	"github.com/715d/bitvariants/pkg/bitflags"
)

// createTestPackage writes files into dir and returns a type-checked package
// shaped like the ones LoadPackages returns.
func createTestPackage(t *testing.T, dir, pkgPath string, files map[string]string) *packages.Package {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))

	fset := token.NewFileSet()
	var syntax []*ast.File
	var goFiles []string
	for _, name := range slices.Sorted(maps.Keys(files)) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(files[name]), 0o644))
		f, err := parser.ParseFile(fset, path, files[name], parser.ParseComments)
		require.NoError(t, err)
		syntax = append(syntax, f)
		goFiles = append(goFiles, path)
	}

	conf := types.Config{Error: func(error) {}}
	tpkg, _ := conf.Check(pkgPath, fset, syntax, nil)

	return &packages.Package{
		ID:      pkgPath,
		PkgPath: pkgPath,
		Name:    syntax[0].Name.Name,
		Fset:    fset,
		GoFiles: goFiles,
		Syntax:  syntax,
		Types:   tpkg,
	}
}

func TestGenerator_Generate(t *testing.T) {
	dir := t.TempDir()
	pkg := createTestPackage(t, dir, "example.com/perms", map[string]string{
		"perms.go": `package perms

//bitvariants:gen pub Perm; u8; Read, Write, Exec

func canWrite(p Perm) bool { return p&Write != 0 }
`,
	})

	files, err := NewGenerator(DefaultOptions()).Generate(t.Context(), []*packages.Package{pkg})
	require.NoError(t, err)
	require.Len(t, files, 1)

	file := files[0]
	require.Equal(t, filepath.Join(dir, DefaultOutputName), file.Path)
	require.Equal(t, "example.com/perms", file.Package)
	require.False(t, file.Orphaned())
	require.Contains(t, string(file.Content), "package perms")
	require.Contains(t, string(file.Content), "Exec  Perm = 1 << 2")
	require.Contains(t, string(file.Content), "func (v Perm) String() string")

	require.Len(t, file.Sets, 1)
	v, ok := file.Sets[0].Value("Exec")
	require.True(t, ok)
	require.Equal(t, uint64(4), v)
	require.Equal(t, bitflags.WidthUint8, file.Sets[0].Width())
}

func TestGenerator_Errors(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string]string
		expectedErr error
		contains    string
	}{
		{
			name: "duplicate names in one directive",
			files: map[string]string{"a.go": `package a

//bitvariants:gen flags; u8; A, A
`},
			expectedErr: bitflags.ErrDuplicateName,
			contains:    "a.go:3:1",
		},
		{
			name: "too many names",
			files: map[string]string{"a.go": `package a

//bitvariants:gen flags; u8; A, B, C, D, E, F, G, H, I
`},
			expectedErr: bitflags.ErrTooManyNames,
		},
		{
			name: "same name in two files",
			files: map[string]string{
				"a.go": "package a\n\n//bitvariants:gen first; u8; A, B\n",
				"b.go": "package a\n\n//bitvariants:gen second; u8; C, A\n",
			},
			expectedErr: ErrConflict,
			contains:    "A already declared by directive at",
		},
		{
			name: "collides with existing declaration",
			files: map[string]string{"a.go": `package a

//bitvariants:gen flags; u8; A, B

const B = 7
`},
			expectedErr: ErrConflict,
			contains:    "B already declared at",
		},
		{
			name: "malformed directive",
			files: map[string]string{"a.go": `package a

//bitvariants:gen flags u8 A B
`},
			contains: "malformed directive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := createTestPackage(t, t.TempDir(), "example.com/a", tt.files)
			files, err := NewGenerator(DefaultOptions()).Generate(t.Context(), []*packages.Package{pkg})
			require.Error(t, err)
			require.Nil(t, files)
			require.Contains(t, err.Error(), "package example.com/a")
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
			}
			if tt.contains != "" {
				require.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestGenerator_SkipsOwnOutput(t *testing.T) {
	dir := t.TempDir()
	previous, err := Render("a", []*bitflags.Set{bitflags.MustDefine(bitflags.Declaration{
		Container: "flags", Names: []string{"A", "B"},
	})}, RenderOptions{})
	require.NoError(t, err)

	pkg := createTestPackage(t, dir, "example.com/a", map[string]string{
		"a.go":            "package a\n\n//bitvariants:gen flags; u8; A, B, C\n",
		DefaultOutputName: string(previous),
	})

	files, err := NewGenerator(Options{}).Generate(t.Context(), []*packages.Package{pkg})
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Contains(t, string(files[0].Content), "type flags uint8")
	require.Contains(t, string(files[0].Content), "C flags = 1 << 2")
	require.NotContains(t, string(files[0].Content), "String()")
}

func TestGenerator_Orphaned(t *testing.T) {
	dir := t.TempDir()
	previous, err := Render("a", []*bitflags.Set{bitflags.MustDefine(bitflags.Declaration{
		Container: "flags", Names: []string{"A"},
	})}, RenderOptions{})
	require.NoError(t, err)

	orphan := createTestPackage(t, dir, "example.com/a", map[string]string{
		"a.go":            "package a\n",
		DefaultOutputName: string(previous),
	})
	empty := createTestPackage(t, filepath.Join(dir, "empty"), "example.com/a/empty", map[string]string{
		"e.go": "package empty\n",
	})

	files, err := NewGenerator(DefaultOptions()).Generate(t.Context(), []*packages.Package{orphan, empty})
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.True(t, files[0].Orphaned())
	require.Equal(t, filepath.Join(dir, DefaultOutputName), files[0].Path)
}

func TestGenerator_PackagesAreIndependent(t *testing.T) {
	root := t.TempDir()
	var pkgs []*packages.Package
	for _, name := range []string{"one", "two", "three", "four"} {
		pkgs = append(pkgs, createTestPackage(t, filepath.Join(root, name), "example.com/"+name, map[string]string{
			name + ".go": "package " + name + "\n\n//bitvariants:gen pub Flag; u32; On, Off\n",
		}))
	}

	files, err := NewGenerator(DefaultOptions()).Generate(t.Context(), pkgs)
	require.NoError(t, err)
	require.Len(t, files, 4)
	for i, f := range files {
		require.Equal(t, pkgs[i].PkgPath, f.Package)
	}
}

func TestGenerator_NoPackages(t *testing.T) {
	_, err := NewGenerator(DefaultOptions()).Generate(t.Context(), nil)
	require.Error(t, err)
}

func TestGenerator_SharedOutputConflict(t *testing.T) {
	root := t.TempDir()
	var pkgs []*packages.Package
	for _, name := range []string{"left", "right"} {
		pkgs = append(pkgs, createTestPackage(t, filepath.Join(root, name), "example.com/"+name, map[string]string{
			name + ".go": "package " + name + "\n\n//bitvariants:gen pub Side; u8; Up, Down\n",
		}))
	}

	_, err := NewGenerator(Options{OutputName: filepath.Join("..", "flags_gen.go")}).Generate(t.Context(), pkgs)
	require.ErrorIs(t, err, ErrConflict)
	require.Contains(t, err.Error(), filepath.Join(root, "flags_gen.go")+" is also generated for package example.com/")
}

func TestGenerator_SharedOutputIsNotOrphaned(t *testing.T) {
	root := t.TempDir()
	previous, err := Render("shared", []*bitflags.Set{bitflags.MustDefine(bitflags.Declaration{
		Container: "old", Names: []string{"A"},
	})}, RenderOptions{})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "flags_gen.go"), previous, 0o644))

	writer := createTestPackage(t, filepath.Join(root, "writer"), "example.com/writer", map[string]string{
		"w.go": "package writer\n\n//bitvariants:gen pub Side; u8; Up, Down\n",
	})
	idle := createTestPackage(t, filepath.Join(root, "idle"), "example.com/idle", map[string]string{
		"i.go": "package idle\n",
	})

	files, err := NewGenerator(Options{OutputName: filepath.Join("..", "flags_gen.go")}).Generate(t.Context(), []*packages.Package{idle, writer})
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.False(t, files[0].Orphaned())
	require.Equal(t, "example.com/writer", files[0].Package)
}

func TestGenerator_ConcurrentCalls(t *testing.T) {
	root := t.TempDir()
	pkg := createTestPackage(t, root, "example.com/c", map[string]string{
		"c.go": "package c\n\n//bitvariants:gen mode; u8; a, b\n",
	})

	gen := NewGenerator(DefaultOptions())
	results := make(chan error, 8)
	for range 8 {
		go func() {
			files, err := gen.Generate(t.Context(), []*packages.Package{pkg})
			if err == nil && len(files) != 1 {
				err = fmt.Errorf("got %d files", len(files))
			}
			results <- err
		}()
	}
	for range 8 {
		require.NoError(t, <-results)
	}
}
