// Package mount implements the facade backing Mount, UnMount,
// GetMountTable, and GetMountInfo. UpdateMount is intentionally absent
// here: per the dispatcher's design, it is a placeholder no-op that never
// reaches this facade.
package mount

import (
	"fmt"
	"time"

	"github.com/curviron/master/internal/namespace"
	"github.com/curviron/master/internal/store/boltstore"
)

// Info is the caller-facing view of a mount table entry.
type Info struct {
	MountPoint string
	Target     string
	ReadOnly   bool
	CreatedAt  time.Time
}

// Facade manages the mount table.
type Facade struct {
	store *boltstore.Store
}

// New builds a Facade backed by store.
func New(store *boltstore.Store) *Facade {
	return &Facade{store: store}
}

// Mount registers a new mount point. The mount point must be an absolute
// namespace path and must not already be mounted.
func (f *Facade) Mount(mountPoint, target string, readOnly bool) error {
	if !namespace.IsNamespacePath(mountPoint) {
		return fmt.Errorf("mount point %q must be an absolute path", mountPoint)
	}
	if _, ok, err := f.store.GetMount(mountPoint); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("mount point %q already mounted", mountPoint)
	}
	return f.store.PutMount(boltstore.MountRecord{
		MountPoint: mountPoint, Target: target, ReadOnly: readOnly, CreatedAt: time.Now(),
	})
}

// UnMount removes a mount point. It is not an error to unmount a path
// that isn't currently mounted.
func (f *Facade) UnMount(mountPoint string) error {
	return f.store.DeleteMount(mountPoint)
}

// GetMountTable returns every registered mount point.
func (f *Facade) GetMountTable() ([]Info, error) {
	recs, err := f.store.ListMounts()
	if err != nil {
		return nil, err
	}
	out := make([]Info, len(recs))
	for i, rec := range recs {
		out[i] = toInfo(rec)
	}
	return out, nil
}

// GetMountInfo returns the mount entry at mountPoint.
func (f *Facade) GetMountInfo(mountPoint string) (Info, bool, error) {
	rec, ok, err := f.store.GetMount(mountPoint)
	if err != nil || !ok {
		return Info{}, ok, err
	}
	return toInfo(rec), true, nil
}

func toInfo(rec boltstore.MountRecord) Info {
	return Info{MountPoint: rec.MountPoint, Target: rec.Target, ReadOnly: rec.ReadOnly, CreatedAt: rec.CreatedAt}
}
