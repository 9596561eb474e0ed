// Package boltstore persists namespace inodes and mount table entries in a
// single embedded bbolt database. It is the durable backing for
// internal/namespace and internal/mount; both facades read and write
// through this store on every call and keep no in-memory copy.
package boltstore

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketInodes = []byte("inodes")
	bucketMounts = []byte("mounts")
	bucketBlocks = []byte("blocks")
)

// InodeKind distinguishes file, directory, and symlink inodes.
type InodeKind int

const (
	KindFile InodeKind = iota
	KindDirectory
	KindSymlink
)

// InodeRecord is the persisted representation of one namespace entry.
type InodeRecord struct {
	Path       string
	Kind       InodeKind
	Size       int64
	Mode       uint32
	ModTime    time.Time
	SymlinkTo  string
	BlockIDs   []string
	Complete   bool
	CreatedAt  time.Time
}

// MountRecord is the persisted representation of one mount table entry.
type MountRecord struct {
	MountPoint string
	Target     string
	ReadOnly   bool
	CreatedAt  time.Time
}

// BlockLocationRecord records which workers hold a block.
type BlockLocationRecord struct {
	BlockID string
	Workers []string
}

// Store wraps a bbolt database holding the inode and mount buckets.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the bbolt database at path and ensures
// its buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketInodes, bucketMounts, bucketBlocks} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutInode writes or overwrites the inode at rec.Path.
func (s *Store) PutInode(rec InodeRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal inode: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketInodes).Put([]byte(rec.Path), data)
	})
}

// GetInode returns the inode at path, or ok=false if it doesn't exist.
func (s *Store) GetInode(path string) (rec InodeRecord, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketInodes).Get([]byte(path))
		if v == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(v, &rec)
	})
	return rec, ok, err
}

// DeleteInode removes the inode at path.
func (s *Store) DeleteInode(path string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketInodes).Delete([]byte(path))
	})
}

// RenameInode moves the inode at oldPath to newPath in a single
// transaction, so a crash never leaves both or neither path populated.
func (s *Store) RenameInode(oldPath, newPath string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketInodes)
		data := b.Get([]byte(oldPath))
		if data == nil {
			return fmt.Errorf("rename: source %q not found", oldPath)
		}
		var rec InodeRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		rec.Path = newPath
		newData, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(newPath), newData); err != nil {
			return err
		}
		return b.Delete([]byte(oldPath))
	})
}

// ListChildren returns every inode whose path is a direct child of dir
// ("/a" is a child of "/", "/a/b" is a child of "/a").
func (s *Store) ListChildren(dir string) ([]InodeRecord, error) {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	var out []InodeRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketInodes).Cursor()
		for k, v := c.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, v = c.Next() {
			rest := strings.TrimPrefix(string(k), prefix)
			if strings.Contains(rest, "/") {
				continue // grandchild, not a direct child
			}
			var rec InodeRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// PutMount writes or overwrites a mount table entry.
func (s *Store) PutMount(rec MountRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal mount: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMounts).Put([]byte(rec.MountPoint), data)
	})
}

// GetMount returns the mount entry at mountPoint, or ok=false if absent.
func (s *Store) GetMount(mountPoint string) (rec MountRecord, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMounts).Get([]byte(mountPoint))
		if v == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(v, &rec)
	})
	return rec, ok, err
}

// DeleteMount removes the mount entry at mountPoint.
func (s *Store) DeleteMount(mountPoint string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMounts).Delete([]byte(mountPoint))
	})
}

// ListMounts returns every mount table entry.
func (s *Store) ListMounts() ([]MountRecord, error) {
	var out []MountRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMounts).ForEach(func(_, v []byte) error {
			var rec MountRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	return out, err
}

// PutBlockLocations records which workers hold a block.
func (s *Store) PutBlockLocations(rec BlockLocationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal block locations: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBlocks).Put([]byte(rec.BlockID), data)
	})
}

// GetBlockLocations returns the known worker set for a block.
func (s *Store) GetBlockLocations(blockID string) (rec BlockLocationRecord, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBlocks).Get([]byte(blockID))
		if v == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(v, &rec)
	})
	return rec, ok, err
}
