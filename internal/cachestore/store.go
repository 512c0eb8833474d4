package cachestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kelvie/precache/internal/metadata"
	"github.com/kelvie/precache/pkg/failure"
	"github.com/kelvie/precache/pkg/fileutil"
	"github.com/kelvie/precache/pkg/hashutil"
)

/*
Responsibilities
- Own a named, persistent key→response mapping on disk
- Create a store lazily on first open by name
- Ensure deterministic object filenames
- Keep writes idempotent and overwrite-safe

Layout
- <root>/<name>/index.json            lookup metadata, one row per key
- <root>/<name>/objects/<hash12>.bin  cached bodies

The object filename is the first 12 hex characters of the hash of the
canonical key, so the same key always lands on the same file and reruns
overwrite instead of accumulating.

The store never removes entries; eviction and versioning are not its job.
*/

const (
	indexFilename = "index.json"
	objectsDir    = "objects"
	hashPrefixLen = 12
)

// Opener opens (creating if absent) a named store. It is the only way to
// obtain a Store handle.
type Opener interface {
	Open(name string) (*Store, failure.ClassifiedError)
}

// DirOpener keeps every named store under a single root directory.
type DirOpener struct {
	root         string
	hashAlgo     hashutil.HashAlgo
	metadataSink metadata.MetadataSink
}

func NewDirOpener(
	root string,
	hashAlgo hashutil.HashAlgo,
	metadataSink metadata.MetadataSink,
) DirOpener {
	return DirOpener{
		root:         root,
		hashAlgo:     hashAlgo,
		metadataSink: metadataSink,
	}
}

// Open returns a handle to the named store, creating its directories and
// an empty index on first open. Reopening a name yields the same store
// with its previously persisted entries.
func (o DirOpener) Open(name string) (*Store, failure.ClassifiedError) {
	if err := validateName(name); err != nil {
		o.recordError("DirOpener.Open", err, name)
		return nil, err
	}

	dir := filepath.Join(o.root, name)
	if err := fileutil.EnsureDir(dir, objectsDir); err != nil {
		storeErr := &StoreError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseOpenFailure,
			Path:      dir,
		}
		o.recordError("DirOpener.Open", storeErr, name)
		return nil, storeErr
	}

	store := &Store{
		name:         name,
		dir:          dir,
		hashAlgo:     o.hashAlgo,
		index:        make(map[string]indexRecord),
		metadataSink: o.metadataSink,
	}

	if err := store.loadIndex(); err != nil {
		o.recordError("DirOpener.Open", err, name)
		return nil, err
	}
	return store, nil
}

func (o DirOpener) recordError(action string, err *StoreError, name string) {
	o.metadataSink.RecordError(
		time.Now(),
		"cachestore",
		action,
		mapStoreErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrStoreName, name),
		},
	)
}

// validateName rejects names that would escape the root or collide with
// the store's own files.
func validateName(name string) *StoreError {
	if strings.TrimSpace(name) == "" {
		return &StoreError{
			Message:   "store name cannot be empty",
			Retryable: false,
			Cause:     ErrCauseInvalidName,
		}
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return &StoreError{
			Message:   fmt.Sprintf("store name %q must be a single path segment", name),
			Retryable: false,
			Cause:     ErrCauseInvalidName,
		}
	}
	return nil
}

// Store is a handle to one named cache store. It is not safe for
// concurrent use; the installer is the single writer and runs its
// populate pass sequentially.
type Store struct {
	name         string
	dir          string
	hashAlgo     hashutil.HashAlgo
	index        map[string]indexRecord
	metadataSink metadata.MetadataSink
}

func (s *Store) Name() string {
	return s.name
}

func (s *Store) Dir() string {
	return s.dir
}

// Put writes the entry body to its object file and updates the index.
// Writing the same key again overwrites in place: the object filename is
// derived from the key, so repeated installs of the same manifest
// converge on identical store contents.
func (s *Store) Put(key string, entry Entry) failure.ClassifiedError {
	objectName, err := s.objectName(key)
	if err != nil {
		s.recordError("Store.Put", err, key)
		return err
	}

	objectPath := filepath.Join(s.dir, objectsDir, objectName)
	if writeErr := fileutil.WriteFileAtomic(objectPath, entry.Body, 0644); writeErr != nil {
		storeErr := &StoreError{
			Message:   writeErr.Error(),
			Retryable: writeErr.Severity() == failure.SeverityRecoverable,
			Cause:     ErrCauseWriteFailure,
			Path:      objectPath,
		}
		s.recordError("Store.Put", storeErr, key)
		return storeErr
	}

	s.index[key] = indexRecord{
		Object:      objectName,
		ContentType: entry.ContentType,
		StatusCode:  entry.StatusCode,
		FetchedAt:   entry.FetchedAt,
		SizeByte:    int64(len(entry.Body)),
	}

	if err := s.persistIndex(); err != nil {
		s.recordError("Store.Put", err, key)
		return err
	}

	s.metadataSink.RecordArtifact(
		metadata.ArtifactObject,
		objectPath,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrKey, key),
			metadata.NewAttr(metadata.AttrStoreName, s.name),
			metadata.NewAttr(metadata.AttrWritePath, objectPath),
		},
	)
	return nil
}

// Get returns the entry stored under key. The second return value is
// false when the key is absent; that is not an error.
func (s *Store) Get(key string) (Entry, bool, failure.ClassifiedError) {
	record, exists := s.index[key]
	if !exists {
		return Entry{}, false, nil
	}

	objectPath := filepath.Join(s.dir, objectsDir, record.Object)
	body, err := os.ReadFile(objectPath)
	if err != nil {
		storeErr := &StoreError{
			Message:   fmt.Sprintf("indexed object missing: %v", err),
			Retryable: false,
			Cause:     ErrCauseReadFailure,
			Path:      objectPath,
		}
		s.recordError("Store.Get", storeErr, key)
		return Entry{}, false, storeErr
	}

	return Entry{
		Body:        body,
		ContentType: record.ContentType,
		StatusCode:  record.StatusCode,
		FetchedAt:   record.FetchedAt,
	}, true, nil
}

func (s *Store) Has(key string) bool {
	_, exists := s.index[key]
	return exists
}

// Keys returns every stored key in lexical order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.index))
	for key := range s.index {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) Len() int {
	return len(s.index)
}

func (s *Store) objectName(key string) (string, *StoreError) {
	hash, err := hashutil.HashString(key, s.hashAlgo)
	if err != nil {
		return "", &StoreError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputationFailed,
		}
	}
	return hash[:hashPrefixLen] + ".bin", nil
}

func (s *Store) loadIndex() *StoreError {
	indexPath := filepath.Join(s.dir, indexFilename)
	content, err := os.ReadFile(indexPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// first open of this name
			return nil
		}
		return &StoreError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseOpenFailure,
			Path:      indexPath,
		}
	}

	var idx storeIndex
	if err := json.Unmarshal(content, &idx); err != nil {
		return &StoreError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseIndexCorrupt,
			Path:      indexPath,
		}
	}
	if idx.Entries != nil {
		s.index = idx.Entries
	}
	return nil
}

func (s *Store) persistIndex() *StoreError {
	indexPath := filepath.Join(s.dir, indexFilename)

	content, err := json.MarshalIndent(storeIndex{
		Name:    s.name,
		Entries: s.index,
	}, "", "  ")
	if err != nil {
		return &StoreError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      indexPath,
		}
	}

	if writeErr := fileutil.WriteFileAtomic(indexPath, content, 0644); writeErr != nil {
		return &StoreError{
			Message:   writeErr.Error(),
			Retryable: writeErr.Severity() == failure.SeverityRecoverable,
			Cause:     ErrCauseWriteFailure,
			Path:      indexPath,
		}
	}

	s.metadataSink.RecordArtifact(
		metadata.ArtifactIndex,
		indexPath,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrStoreName, s.name),
			metadata.NewAttr(metadata.AttrWritePath, indexPath),
		},
	)
	return nil
}

func (s *Store) recordError(action string, err *StoreError, key string) {
	s.metadataSink.RecordError(
		time.Now(),
		"cachestore",
		action,
		mapStoreErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrKey, key),
			metadata.NewAttr(metadata.AttrStoreName, s.name),
			metadata.NewAttr(metadata.AttrWritePath, err.Path),
		},
	)
}
