// Package leader provides the active-master oracle the dispatcher consults
// once per request. This core has no quorum/replication algorithm to
// determine leadership; it only defines the oracle's shape and a
// single-node implementation suitable for standalone deployments and tests.
package leader

import "sync/atomic"

// Oracle reports whether the local instance is the active master.
type Oracle struct {
	active atomic.Bool
}

// New builds an Oracle starting in the given state.
func New(active bool) *Oracle {
	o := &Oracle{}
	o.active.Store(active)
	return o
}

// IsLeader reports the current leadership state. Safe for concurrent use;
// matches the func() bool shape dispatch.Dispatcher.IsLeader expects.
func (o *Oracle) IsLeader() bool {
	return o.active.Load()
}

// SetLeader updates the leadership state, e.g. on promotion/demotion signals
// from an external coordination system not implemented here.
func (o *Oracle) SetLeader(active bool) {
	o.active.Store(active)
}
