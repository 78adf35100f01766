//go:build debug

package tap

// DebugBuild is true in binaries built with -tags debug.
const DebugBuild = true
