// Package disk implements storage.Storage over a plain directory tree,
// adapted from the teacher's segmentmanager.diskSegmentManager: the same
// directory-scan-on-open, regex-named-file, functional-options shape,
// generalised from a single active log segment to a generation-numbered
// TOC plus a set of named index segments (spec.md §4.8, §6).
package disk

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flashindex/flashindex/schema"
	"github.com/flashindex/flashindex/storage"
)

const (
	tocFileExt     = ".toc"
	lockRetryDelay = 10 * time.Millisecond
)

var tocFileNamePattern = regexp.MustCompile(`^toc-(\d+)\.toc$`)

// Storage is a storage.Storage backed by one directory per index under
// root. Like the teacher's diskSegmentManager it carries only a path and
// a mutex, not live file handles, so it stays serialisable for
// multiprocess workers (spec.md §5).
type Storage struct {
	mu           sync.Mutex
	root         string
	filePerm     os.FileMode
	lockWait     time.Duration
	sessionNames map[*storage.Session]string
}

// Option configures a Storage, mirroring the teacher's
// DiskSegmentManagerOption/WithMaxSegmentSize pattern.
type Option func(*Storage)

// WithFilePerm overrides the permission bits used for new TOC and
// segment files. Default 0o644.
func WithFilePerm(perm os.FileMode) Option {
	return func(s *Storage) { s.filePerm = perm }
}

// WithLockWait overrides how long Lock.Acquire retries before giving up.
// Default 2s.
func WithLockWait(d time.Duration) Option {
	return func(s *Storage) { s.lockWait = d }
}

// New returns a Storage rooted at dir, creating it if absent.
func New(dir string, opts ...Option) (*Storage, error) {
	s := &Storage{root: dir, filePerm: 0o644, lockWait: 2 * time.Second, sessionNames: make(map[*storage.Session]string)}
	for _, opt := range opts {
		opt(s)
	}
	if err := isDirectoryValid(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
			return s, nil
		}
		return nil, err
	}
	return s, nil
}

func isDirectoryValid(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("storage/disk: path exists but is not a directory: %s", path)
	}
	return nil
}

func (s *Storage) indexDir(indexName string) string {
	return filepath.Join(s.root, indexName)
}

func (s *Storage) tocPath(indexName string, generation int) string {
	return filepath.Join(s.indexDir(indexName), fmt.Sprintf("toc-%08d%s", generation, tocFileExt))
}

// Open returns a Session onto indexName. Writable sessions require the
// index directory to already exist (created by CreateIndex); read
// sessions do too, since there is nothing to read otherwise.
func (s *Storage) Open(indexName string, writable bool) (*storage.Session, error) {
	if err := isDirectoryValid(s.indexDir(indexName)); err != nil {
		return nil, fmt.Errorf("storage/disk: opening %q: %w", indexName, err)
	}
	session := &storage.Session{Storage: s, Writable: writable}
	s.mu.Lock()
	s.sessionNames[session] = indexName
	s.mu.Unlock()
	return session, nil
}

// SaveTOC writes toc to a new generation file via write-temp-then-rename,
// the same atomic-publish idiom spec.md §6 requires, guarded by the
// index's named lock so concurrent writers never race on the rename.
func (s *Storage) SaveTOC(session *storage.Session, toc *storage.TOC) error {
	if !session.Writable {
		return storage.ErrReadOnly
	}
	indexName, err := s.sessionIndexName(session)
	if err != nil {
		return err
	}

	lock, err := s.Lock(indexName)
	if err != nil {
		return err
	}
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer lock.Release()

	raw, err := storage.EncodeTOC(toc)
	if err != nil {
		return err
	}

	dir := s.indexDir(indexName)
	tmp, err := os.CreateTemp(dir, "toc-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, s.filePerm); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.tocPath(indexName, toc.Generation))
}

// LoadTOC loads the TOC at generation, or the latest if generation < 0.
func (s *Storage) LoadTOC(session *storage.Session, generation int) (*storage.TOC, error) {
	indexName, err := s.sessionIndexName(session)
	if err != nil {
		return nil, err
	}
	if generation < 0 {
		generation, err = s.LatestGeneration(session)
		if err != nil {
			return nil, err
		}
	}
	raw, err := os.ReadFile(s.tocPath(indexName, generation))
	if errors.Is(err, os.ErrNotExist) {
		return nil, storage.ErrTocNotFound
	}
	if err != nil {
		return nil, err
	}
	return storage.DecodeTOC(raw)
}

// LatestGeneration scans the index directory for toc-NNNNNNNN.toc files
// and returns the highest generation number present.
func (s *Storage) LatestGeneration(session *storage.Session) (int, error) {
	indexName, err := s.sessionIndexName(session)
	if err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(s.indexDir(indexName))
	if err != nil {
		return 0, err
	}
	best := -1
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		matches := tocFileNamePattern.FindStringSubmatch(entry.Name())
		if len(matches) != 2 {
			continue
		}
		gen, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}
		if gen > best {
			best = gen
		}
	}
	if best < 0 {
		return 0, storage.ErrEmptyIndex
	}
	return best, nil
}

// sessionIndexName recovers which index directory a Session belongs to.
// Storage doesn't store indexName on Session (storage.Session is shared
// across all Storage implementations), so disk.Storage tracks it via a
// side table keyed by the Session pointer.
func (s *Storage) sessionIndexName(session *storage.Session) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.sessionNames[session]
	if !ok {
		return "", fmt.Errorf("storage/disk: session not opened against this storage")
	}
	return name, nil
}

// Lock returns a file-based lock scoped to name. No lock library appears
// anywhere in the retrieval pack, so this is a direct, documented
// stdlib-only implementation: an exclusive-create lock file, polled at
// lockRetryDelay intervals until lockWait elapses.
func (s *Storage) Lock(name string) (storage.Lock, error) {
	return &fileLock{path: filepath.Join(s.root, name+".lock"), wait: s.lockWait}, nil
}

type fileLock struct {
	path string
	wait time.Duration
	file *os.File
}

func (l *fileLock) Acquire() error {
	deadline := time.Now().Add(l.wait)
	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
		if err == nil {
			l.file = f
			return nil
		}
		if !errors.Is(err, os.ErrExist) {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("storage/disk: timed out acquiring lock %s", l.path)
		}
		time.Sleep(lockRetryDelay)
	}
}

func (l *fileLock) Release() error {
	if l.file == nil {
		return nil
	}
	l.file.Close()
	return os.Remove(l.path)
}

// TempStorage returns a Storage rooted at a scratch subdirectory, used
// for pool runs and in-progress segment builds before they're committed
// into the main index directory. A uuid suffix (rather than name alone)
// keeps concurrent callers from colliding on the same scratch directory.
func (s *Storage) TempStorage(name string) (storage.Storage, error) {
	dir := filepath.Join(s.root, ".tmp", fmt.Sprintf("%s-%s", name, uuid.NewString()))
	return New(dir, WithFilePerm(s.filePerm), WithLockWait(s.lockWait))
}

// Cleanup removes generation files superseded by toc, and scratch
// directories left behind by a completed or cancelled write.
func (s *Storage) Cleanup(session *storage.Session, toc *storage.TOC) error {
	indexName, err := s.sessionIndexName(session)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(s.indexDir(indexName))
	if err != nil {
		return err
	}
	for _, entry := range entries {
		matches := tocFileNamePattern.FindStringSubmatch(entry.Name())
		if len(matches) != 2 {
			continue
		}
		gen, err := strconv.Atoi(matches[1])
		if err != nil || gen >= toc.Generation {
			continue
		}
		os.Remove(filepath.Join(s.indexDir(indexName), entry.Name()))
	}
	return os.RemoveAll(filepath.Join(s.root, ".tmp"))
}

// CleanSegment removes one segment's files once no live TOC references
// it (e.g. after compaction folds it away).
func (s *Storage) CleanSegment(session *storage.Session, seg *storage.SegmentDescriptor) error {
	if !session.Writable {
		return storage.ErrReadOnly
	}
	indexName, err := s.sessionIndexName(session)
	if err != nil {
		return err
	}
	dir := s.indexDir(indexName)
	for _, f := range []string{seg.PostingFile, seg.TermTableFile, seg.LengthFile, seg.StoredFile} {
		if f == "" {
			continue
		}
		if err := os.Remove(filepath.Join(dir, f)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// CreateIndex initialises indexName's directory and writes generation 0
// with no segments. TOC.SchemaBlob is scoped as an opaque, caller-encoded
// byte string (see TOC's doc comment: Field's Analyzer collaborator has
// no generic encoding), so disk.Storage stores only the field name list
// here — enough for search.FieldNumbers to rebuild its sorted id mapping
// on reopen. Callers that need the full schema back persist it
// themselves alongside the index.
func (s *Storage) CreateIndex(sch *schema.Schema, indexName string) (*storage.TOC, error) {
	dir := s.indexDir(indexName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	session := &storage.Session{Storage: s, Writable: true}
	s.mu.Lock()
	s.sessionNames[session] = indexName
	s.mu.Unlock()

	toc := &storage.TOC{Generation: 0, SchemaBlob: encodeFieldNames(sch)}
	if err := s.SaveTOC(session, toc); err != nil {
		return nil, err
	}
	return toc, nil
}

func encodeFieldNames(sch *schema.Schema) []byte {
	if sch == nil {
		return nil
	}
	names := sch.Names()
	out := make([]byte, 0, 32*len(names))
	for i, n := range names {
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, n...)
	}
	return out
}

// OpenIndex loads indexName's TOC at generation (or latest if negative).
func (s *Storage) OpenIndex(indexName string, generation int) (*storage.TOC, error) {
	session, err := s.Open(indexName, false)
	if err != nil {
		return nil, storage.ErrTocNotFound
	}
	return s.LoadTOC(session, generation)
}

var _ storage.Storage = (*Storage)(nil)
var _ io.Closer = (*fileLock)(nil)

func (l *fileLock) Close() error { return l.Release() }
