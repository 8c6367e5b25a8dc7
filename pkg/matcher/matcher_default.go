//go:build !wasm && !vectorscan && cgo

package matcher

// New creates a Hyperscan-based matcher for native CGO builds.
func New(cfg Config) (Matcher, error) {
	return NewHyperscan(cfg.Rules, cfg.ContextLines)
}
