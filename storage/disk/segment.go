package disk

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/edsrzf/mmap-go"
	"github.com/golang/snappy"

	"github.com/flashindex/flashindex/indexing"
	"github.com/flashindex/flashindex/posting"
	"github.com/flashindex/flashindex/schema"
	"github.com/flashindex/flashindex/search"
	"github.com/flashindex/flashindex/storage"
	"github.com/flashindex/flashindex/storage/table"
)

// TableKind selects which storage/table backing a committed segment's
// term table uses: Hash (unordered, simpler write path) or FST (ordered,
// supports Range/Lexicon without a full scan). Grounded on spec.md §6's
// "hash for unordered, ordered-hash... for lexicon iteration".
type TableKind byte

const (
	HashTableKind TableKind = 0
	FSTTableKind  TableKind = 1
)

const defaultBloomFalsePositiveRate = 0.01

// WriteSegmentInput is everything WriteSegment needs to commit one
// segment's files: the finished pool output (indexing.Pool already fed
// via AddContent and spilled to runs), the schema/field numbering it was
// built against, and the per-document stored field values.
type WriteSegmentInput struct {
	Dir          string
	Name         string
	Schema       *schema.Schema
	FieldNumbers *search.FieldNumbers
	Pool         *indexing.Pool
	Stored       []map[string]any
	Table        TableKind
}

// WriteSegment drives indexing.WriteAll to merge a pool's runs and
// residual into one posting file and term table, alongside a compressed
// length file and a stored-fields file, and returns the
// storage.SegmentDescriptor naming all four. This is the commit step
// sst/writer.go's diskSSTWriter plays for the teacher's KV store,
// generalised from key/value entries to posting blocks.
func WriteSegment(in WriteSegmentInput) (*storage.SegmentDescriptor, error) {
	docCount := in.Pool.DocCount()
	formatOf := func(fieldID uint16) posting.Format {
		name, ok := in.FieldNumbers.Name(fieldID)
		if !ok {
			return posting.Format{}
		}
		f, err := in.Schema.Field(name)
		if err != nil {
			return posting.Format{}
		}
		return f.Format()
	}

	postingPath := filepath.Join(in.Dir, in.Name+".post")
	postingFile, err := os.Create(postingPath)
	if err != nil {
		return nil, fmt.Errorf("storage/disk: creating posting file: %w", err)
	}
	defer postingFile.Close()

	var tableBuf bytes.Buffer
	var tw indexing.TermTableWriter
	switch in.Table {
	case FSTTableKind:
		fw, err := table.NewFSTWriter(&tableBuf)
		if err != nil {
			return nil, err
		}
		tw = fw
	default:
		tw = table.NewHashWriter(&tableBuf)
	}

	bf := bloom.NewWithEstimates(estimateTermCount(docCount), defaultBloomFalsePositiveRate)
	bw := &bloomWriter{inner: tw, bloom: bf}

	runs := in.Pool.Runs()
	residual := in.Pool.SortedResidual()
	if err := indexing.WriteAll(runs, residual, postingFile, bw, formatOf); err != nil {
		return nil, fmt.Errorf("storage/disk: writing postings: %w", err)
	}
	if err := postingFile.Sync(); err != nil {
		return nil, err
	}

	ttPath := filepath.Join(in.Dir, in.Name+".tt")
	if err := writeTermTableFile(ttPath, byte(in.Table), tableBuf.Bytes(), bf); err != nil {
		return nil, err
	}

	lengthPath := filepath.Join(in.Dir, in.Name+".len")
	avgLength, err := writeLengthFile(lengthPath, in.Schema, in.FieldNumbers, in.Pool, docCount)
	if err != nil {
		return nil, err
	}

	storedPath := filepath.Join(in.Dir, in.Name+".stored")
	if err := writeStoredFile(storedPath, avgLength, in.Stored); err != nil {
		return nil, err
	}

	return &storage.SegmentDescriptor{
		Name:          in.Name,
		PostingFile:   filepath.Base(postingPath),
		TermTableFile: filepath.Base(ttPath),
		LengthFile:    filepath.Base(lengthPath),
		StoredFile:    filepath.Base(storedPath),
		DocCount:      docCount,
	}, nil
}

// estimateTermCount sizes the bloom filter when the real term count
// isn't known upfront; a few bytes of oversizing costs nothing, and
// bloom.NewWithEstimates degrades gracefully (higher false-positive
// rate, never false negatives) if the actual count runs higher.
func estimateTermCount(docCount int) uint {
	n := uint(docCount) * 8
	if n < 1024 {
		n = 1024
	}
	return n
}

// bloomWriter wraps the chosen term table writer and feeds every
// (field, term) key into a bloom filter as it is written, giving the
// committed segment a MayContain capability (TermTable.Get checks the
// filter before the table) without the table backing itself needing to
// know about bloom filters.
type bloomWriter struct {
	inner indexing.TermTableWriter
	bloom *bloom.BloomFilter
}

func (b *bloomWriter) Put(fieldID uint16, term []byte, entry indexing.TermEntry) error {
	b.bloom.Add(bloomKey(fieldID, term))
	return b.inner.Put(fieldID, term, entry)
}

func (b *bloomWriter) Close() error { return b.inner.Close() }

func bloomKey(fieldID uint16, term []byte) []byte {
	key := make([]byte, 2+len(term))
	binary.BigEndian.PutUint16(key, fieldID)
	copy(key[2:], term)
	return key
}

// writeTermTableFile frames one segment's term table file: a kind byte,
// the length-prefixed table bytes from storage/table, then the bloom
// filter's (k, m, bits) triple — the same write-K-then-Cap-then-WriteTo
// sequence the teacher's sst/writer.go uses for its own bloom filter.
func writeTermTableFile(path string, kind byte, tableBytes []byte, bf *bloom.BloomFilter) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write([]byte{kind}); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(tableBytes))); err != nil {
		return err
	}
	if _, err := f.Write(tableBytes); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(bf.K())); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(bf.Cap())); err != nil {
		return err
	}
	if _, err := bf.WriteTo(f); err != nil {
		return err
	}
	return f.Sync()
}

// writeLengthFile assembles indexing.WriteLengthFile's record from the
// pool's recorded per-field length bytes, snappy-compresses it (the
// teacher's wal.go doesn't compress, but golang/snappy has no other home
// in this module and a length file is exactly the kind of small,
// highly-repetitive fixed-width blob snappy is built for), and returns
// each field's dequantised average length for the stored file to carry
// alongside StoredFields.
func writeLengthFile(path string, sch *schema.Schema, fieldNums *search.FieldNumbers, pool *indexing.Pool, docCount int) (map[string]float32, error) {
	fieldLens := make(map[uint16][]byte)
	avg := make(map[string]float32)
	for _, name := range sch.Names() {
		id, ok := fieldNums.ID(name)
		if !ok {
			continue
		}
		arr := pool.FieldLengths(id)
		if arr == nil {
			continue
		}
		fieldLens[id] = arr

		var sum int
		for _, b := range arr {
			sum += indexing.DequantizeLength(b)
		}
		if docCount > 0 {
			avg[name] = float32(sum) / float32(docCount)
		}
	}

	var buf bytes.Buffer
	if err := indexing.WriteLengthFile(&buf, fieldLens, docCount); err != nil {
		return nil, err
	}
	compressed := snappy.Encode(nil, buf.Bytes())
	if err := os.WriteFile(path, compressed, 0o644); err != nil {
		return nil, err
	}
	return avg, nil
}

// storedPayload is the stored file's on-disk shape: the per-field
// average lengths writeLengthFile computed, plus each document's stored
// field values, gob-encoded. No serialisation library in the retrieval
// pack targets arbitrary map[string]any the way spec.md's stored fields
// need; encoding/gob is the idiomatic stdlib choice for this shape, akin
// to TOC.SchemaBlob's caller-encoded-opaque-bytes scoping.
type storedPayload struct {
	AvgLength map[string]float32
	Docs      []map[string]any
}

func init() {
	gob.Register("")
	gob.Register(int(0))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(float32(0))
	gob.Register(true)
	gob.Register([]byte(nil))
}

func writeStoredFile(path string, avgLength map[string]float32, docs []map[string]any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(storedPayload{AvgLength: avgLength, Docs: docs}); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// orderedOrHashTable is the method set storage/table's HashTable and
// FSTTable both satisfy structurally (see table.HashTable's doc comment
// on search.TermTableReader).
type orderedOrHashTable interface {
	Get(fieldID uint16, term []byte) (indexing.TermEntry, bool, error)
	Range(fieldID uint16, start, end []byte) ([][]byte, error)
	Lexicon(fieldID uint16) ([][]byte, error)
}

// diskTermTable adapts a parsed hash/FST table plus its bloom filter
// into search.TermTableReader: Get consults the bloom filter first, the
// fast "definitely absent" check spec.md §6 calls for, before paying for
// the table lookup.
type diskTermTable struct {
	inner orderedOrHashTable
	bloom *bloom.BloomFilter
}

func (t *diskTermTable) Get(fieldID uint16, term []byte) (indexing.TermEntry, bool, error) {
	if t.bloom != nil && !t.bloom.Test(bloomKey(fieldID, term)) {
		return indexing.TermEntry{}, false, nil
	}
	return t.inner.Get(fieldID, term)
}

func (t *diskTermTable) Range(fieldID uint16, start, end []byte) ([][]byte, error) {
	return t.inner.Range(fieldID, start, end)
}

func (t *diskTermTable) Lexicon(fieldID uint16) ([][]byte, error) {
	return t.inner.Lexicon(fieldID)
}

// Segment is the read-only, mmap-backed search.Segment implementation
// over one committed segment's files.
type Segment struct {
	sch        *schema.Schema
	fieldNums  *search.FieldNumbers
	descriptor *storage.SegmentDescriptor
	postingMap mmap.MMap
	postingF   *os.File
	table      *diskTermTable
	lengthFile *indexing.LengthFile
	avgLength  map[string]float32
	stored     []map[string]any
}

// OpenSegment mmaps seg's posting file read-only and loads its term
// table, length file, and stored fields into memory.
func OpenSegment(dir string, seg *storage.SegmentDescriptor, sch *schema.Schema, fieldNums *search.FieldNumbers) (*Segment, error) {
	postingF, err := os.Open(filepath.Join(dir, seg.PostingFile))
	if err != nil {
		return nil, err
	}
	postingMap, err := mmap.Map(postingF, mmap.RDONLY, 0)
	if err != nil {
		postingF.Close()
		return nil, fmt.Errorf("storage/disk: mmapping %s: %w", seg.PostingFile, err)
	}

	tt, err := readTermTableFile(filepath.Join(dir, seg.TermTableFile))
	if err != nil {
		postingMap.Unmap()
		postingF.Close()
		return nil, err
	}

	compressed, err := os.ReadFile(filepath.Join(dir, seg.LengthFile))
	if err != nil {
		postingMap.Unmap()
		postingF.Close()
		return nil, err
	}
	rawLengths, err := snappy.Decode(nil, compressed)
	if err != nil {
		postingMap.Unmap()
		postingF.Close()
		return nil, fmt.Errorf("storage/disk: decompressing length file: %w", err)
	}
	lengthFile, err := indexing.ReadLengthFile(rawLengths)
	if err != nil {
		postingMap.Unmap()
		postingF.Close()
		return nil, err
	}

	storedRaw, err := os.ReadFile(filepath.Join(dir, seg.StoredFile))
	if err != nil {
		postingMap.Unmap()
		postingF.Close()
		return nil, err
	}
	var payload storedPayload
	if err := gob.NewDecoder(bytes.NewReader(storedRaw)).Decode(&payload); err != nil {
		postingMap.Unmap()
		postingF.Close()
		return nil, fmt.Errorf("storage/disk: decoding stored fields: %w", err)
	}

	return &Segment{
		sch:        sch,
		fieldNums:  fieldNums,
		descriptor: seg,
		postingMap: postingMap,
		postingF:   postingF,
		table:      tt,
		lengthFile: lengthFile,
		avgLength:  payload.AvgLength,
		stored:     payload.Docs,
	}, nil
}

func readTermTableFile(path string) (*diskTermTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := bytes.NewReader(raw)

	kind, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	var tableLen uint32
	if err := binary.Read(r, binary.LittleEndian, &tableLen); err != nil {
		return nil, err
	}
	tableStart := len(raw) - r.Len()
	tableBytes := raw[tableStart : tableStart+int(tableLen)]
	if _, err := r.Seek(int64(tableLen), io.SeekCurrent); err != nil {
		return nil, err
	}

	var inner orderedOrHashTable
	switch TableKind(kind) {
	case FSTTableKind:
		inner, err = table.ReadFSTTable(tableBytes)
	default:
		inner, err = table.ReadHashTable(tableBytes)
	}
	if err != nil {
		return nil, err
	}

	var bloomK, bloomM uint32
	if err := binary.Read(r, binary.LittleEndian, &bloomK); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &bloomM); err != nil {
		return nil, err
	}
	bf := bloom.New(uint(bloomM), uint(bloomK))
	if _, err := bf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("storage/disk: reading bloom filter: %w", err)
	}

	return &diskTermTable{inner: inner, bloom: bf}, nil
}

func (s *Segment) Schema() *schema.Schema             { return s.sch }
func (s *Segment) FieldNumbers() *search.FieldNumbers { return s.fieldNums }
func (s *Segment) DocCount() int                      { return s.descriptor.DocCount }
func (s *Segment) IsLive(docID int) bool              { return s.descriptor.IsLive(docID) }
func (s *Segment) TermTable() search.TermTableReader  { return s.table }

func (s *Segment) OpenPostings(fieldName string, entry indexing.TermEntry) (*posting.DocListReader, error) {
	f, err := s.sch.Field(fieldName)
	if err != nil {
		return nil, err
	}
	if entry.FileOffset > uint64(len(s.postingMap)) {
		return nil, fmt.Errorf("storage/disk: posting offset %d out of range", entry.FileOffset)
	}
	return posting.NewDocListReader(f.Format(), s.postingMap[entry.FileOffset:])
}

func (s *Segment) FieldLength(fieldName string, docID int) (int, error) {
	id, ok := s.fieldNums.ID(fieldName)
	if !ok {
		return 0, fmt.Errorf("storage/disk: unknown field %q", fieldName)
	}
	return indexing.DequantizeLength(s.lengthFile.Length(id, docID)), nil
}

func (s *Segment) AvgFieldLength(fieldName string) (float32, error) {
	return s.avgLength[fieldName], nil
}

func (s *Segment) StoredFields(docID int) (map[string]any, error) {
	if docID < 0 || docID >= len(s.stored) {
		return nil, fmt.Errorf("storage/disk: doc %d out of range", docID)
	}
	return s.stored[docID], nil
}

// Close releases the segment's mmap and file handle.
func (s *Segment) Close() error {
	if err := s.postingMap.Unmap(); err != nil {
		return err
	}
	return s.postingF.Close()
}

var _ search.Segment = (*Segment)(nil)
