package cache

import (
	"github.com/matzehuels/agentgraph/pkg/errors"
)

// ScopedKeyer prefixes every key with a project and dataset so that several
// telemetry sources can share one backend without collisions.
//
//	k, err := NewScopedKeyer(nil, "checkout", "prod")
//	k.PayloadKey(h, opts) // "scope:checkout/prod:payload:..."
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer validates the scope names and wraps inner (the default
// keyer when nil). Empty project and dataset yield a pass-through keyer.
func NewScopedKeyer(inner Keyer, project, dataset string) (Keyer, error) {
	if err := errors.ValidateScopeName("project", project); err != nil {
		return nil, err
	}
	if err := errors.ValidateScopeName("dataset", dataset); err != nil {
		return nil, err
	}
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	if project == "" && dataset == "" {
		return inner, nil
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: "scope:" + project + "/" + dataset + ":",
	}, nil
}

// Prefix returns the prefix added to every key.
func (k *ScopedKeyer) Prefix() string { return k.prefix }

// PayloadKey generates a prefixed payload key.
func (k *ScopedKeyer) PayloadKey(spansHash string, opts PayloadKeyOpts) string {
	return k.prefix + k.inner.PayloadKey(spansHash, opts)
}

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(payloadHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(payloadHash, opts)
}
