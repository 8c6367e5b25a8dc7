//go:build !wasm && !cgo

package matcher

// New creates a portable, pure-Go matcher for native builds without CGO.
// Hyperscan and Vectorscan both require CGO, so CGO_ENABLED=0 builds fall
// back to PortableRegexpMatcher: slower, but lets scanforge cross-compile
// and run anywhere the Go toolchain targets.
func New(cfg Config) (Matcher, error) {
	return NewPortableRegexp(cfg.Rules, cfg.ContextLines)
}
