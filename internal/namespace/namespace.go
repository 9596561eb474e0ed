// Package namespace implements the file-tree facade the dispatcher calls
// into for every metadata operation (Mkdir, CreateFile, Delete, Rename,
// ...). It serializes mutations behind one facade-wide lock and delegates
// persistence to boltstore, so concurrent handlers never observe a half-written rename
// or a file created twice under the same path.
package namespace

import (
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/curviron/master/internal/store/boltstore"
)

// Status is the caller-facing view of an inode, independent of the
// storage layer's on-disk shape.
type Status struct {
	Path      string
	IsDir     bool
	IsSymlink string // non-empty target path if this entry is a symlink
	Size      int64
	Mode      uint32
	ModTime   time.Time
	Complete  bool
}

// Facade is the namespace operations surface consumed by dispatch
// handlers. One Facade serves the whole master; it is safe for
// concurrent use.
type Facade struct {
	store *boltstore.Store

	// mu serializes structural mutations (create, delete, rename) so two
	// concurrent requests can't both observe an absent path and both
	// decide to create it. Reads (FileStatus, ListStatus, Exists) take
	// the read lock and never block each other.
	mu sync.RWMutex
}

// New builds a Facade backed by store.
func New(store *boltstore.Store) *Facade {
	return &Facade{store: store}
}

func normalize(p string) string {
	if p == "" {
		return "/"
	}
	cleaned := path.Clean("/" + p)
	return cleaned
}

func parentOf(p string) string {
	if p == "/" {
		return "/"
	}
	return path.Dir(p)
}

func toStatus(rec boltstore.InodeRecord) Status {
	s := Status{
		Path:     rec.Path,
		IsDir:    rec.Kind == boltstore.KindDirectory,
		Size:     rec.Size,
		Mode:     rec.Mode,
		ModTime:  rec.ModTime,
		Complete: rec.Complete,
	}
	if rec.Kind == boltstore.KindSymlink {
		s.IsSymlink = rec.SymlinkTo
	}
	return s
}

// Mkdir creates a directory at p, creating no parents: the immediate
// parent must already exist. Re-running Mkdir on a path that is already a
// directory is not an error (idempotent at the facade layer).
func (f *Facade) Mkdir(p string) error {
	p = normalize(p)
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok, err := f.store.GetInode(p); err != nil {
		return err
	} else if ok {
		if existing.Kind == boltstore.KindDirectory {
			return nil
		}
		return fmt.Errorf("mkdir %s: path exists and is not a directory", p)
	}

	if p != "/" {
		if _, ok, err := f.store.GetInode(parentOf(p)); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("mkdir %s: parent does not exist", p)
		}
	}

	return f.store.PutInode(boltstore.InodeRecord{
		Path: p, Kind: boltstore.KindDirectory, ModTime: time.Now(), CreatedAt: time.Now(),
	})
}

// CreateFile creates a new, empty, incomplete file at p. Returns an error
// if the path already exists. The dispatcher's retry policy for this
// operation is status-replay, not facade-level idempotency: a second call
// with the same path but a new request ID is a genuine conflict here.
func (f *Facade) CreateFile(p string, mode uint32) error {
	p = normalize(p)
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok, err := f.store.GetInode(p); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("create file %s: already exists", p)
	}

	return f.store.PutInode(boltstore.InodeRecord{
		Path: p, Kind: boltstore.KindFile, Mode: mode, ModTime: time.Now(), CreatedAt: time.Now(),
	})
}

// AppendFile appends blockIDs to the file's block list and advances its
// size. The file must exist and not yet be marked complete.
func (f *Facade) AppendFile(p string, blockIDs []string, addedSize int64) error {
	p = normalize(p)
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok, err := f.store.GetInode(p)
	if err != nil {
		return err
	}
	if !ok || rec.Kind != boltstore.KindFile {
		return fmt.Errorf("append %s: not a file", p)
	}
	if rec.Complete {
		return fmt.Errorf("append %s: file already complete", p)
	}

	rec.BlockIDs = append(rec.BlockIDs, blockIDs...)
	rec.Size += addedSize
	rec.ModTime = time.Now()
	return f.store.PutInode(rec)
}

// AddBlock appends a single newly-allocated block to the file's block
// list without changing its completion state, for the AddBlock RPC issued
// mid-write before the block's final size is known. Adding a block ID the
// file already lists is a no-op, so a repeated AddBlock is safe.
func (f *Facade) AddBlock(p, blockID string) error {
	p = normalize(p)
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok, err := f.store.GetInode(p)
	if err != nil {
		return err
	}
	if !ok || rec.Kind != boltstore.KindFile {
		return fmt.Errorf("add block %s: not a file", p)
	}
	for _, id := range rec.BlockIDs {
		if id == blockID {
			return nil
		}
	}
	rec.BlockIDs = append(rec.BlockIDs, blockID)
	rec.ModTime = time.Now()
	return f.store.PutInode(rec)
}

// CompleteFile marks a file as complete, with a final size. Calling it
// again with the same size is a no-op; the dispatcher's handler-internal
// retry policy relies on that.
func (f *Facade) CompleteFile(p string, finalSize int64) error {
	p = normalize(p)
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok, err := f.store.GetInode(p)
	if err != nil {
		return err
	}
	if !ok || rec.Kind != boltstore.KindFile {
		return fmt.Errorf("complete %s: not a file", p)
	}
	if rec.Complete {
		return nil
	}
	rec.Complete = true
	rec.Size = finalSize
	rec.ModTime = time.Now()
	return f.store.PutInode(rec)
}

// FileStatus returns the status of the inode at p.
func (f *Facade) FileStatus(p string) (Status, bool, error) {
	p = normalize(p)
	f.mu.RLock()
	defer f.mu.RUnlock()

	rec, ok, err := f.store.GetInode(p)
	if err != nil || !ok {
		return Status{}, ok, err
	}
	return toStatus(rec), true, nil
}

// Exists reports whether p names any inode.
func (f *Facade) Exists(p string) (bool, error) {
	p = normalize(p)
	f.mu.RLock()
	defer f.mu.RUnlock()

	_, ok, err := f.store.GetInode(p)
	return ok, err
}

// Delete removes the inode at p. Deleting a directory requires it to have
// no children unless recursive is true.
func (f *Facade) Delete(p string, recursive bool) error {
	p = normalize(p)
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok, err := f.store.GetInode(p)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("delete %s: not found", p)
	}

	if rec.Kind == boltstore.KindDirectory {
		children, err := f.store.ListChildren(p)
		if err != nil {
			return err
		}
		if len(children) > 0 && !recursive {
			return fmt.Errorf("delete %s: directory not empty", p)
		}
		for _, child := range children {
			if err := f.deleteRecursiveLocked(child.Path); err != nil {
				return err
			}
		}
	}

	return f.store.DeleteInode(p)
}

func (f *Facade) deleteRecursiveLocked(p string) error {
	rec, ok, err := f.store.GetInode(p)
	if err != nil || !ok {
		return err
	}
	if rec.Kind == boltstore.KindDirectory {
		children, err := f.store.ListChildren(p)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := f.deleteRecursiveLocked(child.Path); err != nil {
				return err
			}
		}
	}
	return f.store.DeleteInode(p)
}

// Rename moves the inode at oldPath to newPath. newPath must not already
// exist.
func (f *Facade) Rename(oldPath, newPath string) error {
	oldPath, newPath = normalize(oldPath), normalize(newPath)
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok, err := f.store.GetInode(newPath); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("rename: destination %s already exists", newPath)
	}
	return f.store.RenameInode(oldPath, newPath)
}

// ListStatus returns the status of every direct child of dir.
func (f *Facade) ListStatus(dir string) ([]Status, error) {
	dir = normalize(dir)
	f.mu.RLock()
	defer f.mu.RUnlock()

	children, err := f.store.ListChildren(dir)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(children))
	for _, c := range children {
		out = append(out, toStatus(c))
	}
	return out, nil
}

// GetBlockLocations returns the worker IDs holding each block of the file
// at p, in block order.
func (f *Facade) GetBlockLocations(p string, lookup func(blockID string) ([]string, error)) ([][]string, error) {
	p = normalize(p)
	f.mu.RLock()
	rec, ok, err := f.store.GetInode(p)
	f.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if !ok || rec.Kind != boltstore.KindFile {
		return nil, fmt.Errorf("get block locations %s: not a file", p)
	}

	out := make([][]string, len(rec.BlockIDs))
	for i, blockID := range rec.BlockIDs {
		workers, err := lookup(blockID)
		if err != nil {
			return nil, err
		}
		out[i] = workers
	}
	return out, nil
}

// SetAttr updates the mode of the inode at p.
func (f *Facade) SetAttr(p string, mode uint32) error {
	p = normalize(p)
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok, err := f.store.GetInode(p)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("set attr %s: not found", p)
	}
	rec.Mode = mode
	rec.ModTime = time.Now()
	return f.store.PutInode(rec)
}

// Symlink creates a symlink at p pointing to target.
func (f *Facade) Symlink(p, target string) error {
	p = normalize(p)
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok, err := f.store.GetInode(p); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("symlink %s: already exists", p)
	}

	return f.store.PutInode(boltstore.InodeRecord{
		Path: p, Kind: boltstore.KindSymlink, SymlinkTo: target, ModTime: time.Now(), CreatedAt: time.Now(),
	})
}

// IsNamespacePath reports whether p looks like an absolute namespace path
// (it starts with "/"), used by the mount facade to reject relative mount
// points. It does not check for overlapping mount points.
func IsNamespacePath(p string) bool {
	return strings.HasPrefix(p, "/")
}
