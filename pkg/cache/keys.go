package cache

import (
	"slices"
	"time"
)

// Keyer builds cache keys for pipeline results.
type Keyer interface {
	// PayloadKey addresses the topology aggregated from a span set.
	PayloadKey(spansHash string, opts PayloadKeyOpts) string
	// LayoutKey addresses a computed layout of a payload.
	LayoutKey(payloadHash string, opts LayoutKeyOpts) string
}

// PayloadKeyOpts holds the aggregation inputs that change the payload.
type PayloadKeyOpts struct {
	Since  time.Time
	Until  time.Time
	Filter string
}

// LayoutKeyOpts holds the layout inputs that change positions.
type LayoutKeyOpts struct {
	Expanded   []string
	ConfigHash string
}

// DefaultKeyer hashes every option into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the unscoped keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// PayloadKey returns "payload:<hash>".
func (DefaultKeyer) PayloadKey(spansHash string, opts PayloadKeyOpts) string {
	return hashKey("payload", spansHash, opts.Since.UTC(), opts.Until.UTC(), opts.Filter)
}

// LayoutKey returns "layout:<hash>". The expand set is order-insensitive.
func (DefaultKeyer) LayoutKey(payloadHash string, opts LayoutKeyOpts) string {
	expanded := slices.Clone(opts.Expanded)
	slices.Sort(expanded)
	expanded = slices.Compact(expanded)
	return hashKey("layout", payloadHash, expanded, opts.ConfigHash)
}
