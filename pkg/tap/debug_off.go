//go:build !debug

package tap

// DebugBuild reports whether the binary was built with -tags debug. The
// default printer uses it as its debug flag.
const DebugBuild = false
