package indexing

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/flashindex/flashindex/schema"
)

// addJob is one unit of work handed to a worker: index value into field
// for (docID, fieldID) against that worker's own sub-pool.
type addJob struct {
	docID   int
	fieldID uint16
	field   schema.Field
	value   any
	done    chan error
}

// worker owns one sub-Pool and drains jobs from its queue on a dedicated
// goroutine, the same channel+goroutine shape the teacher's WALWriter
// uses for its async append loop.
type worker struct {
	pool  *Pool
	jobs  chan addJob
	wg    sync.WaitGroup
}

func newWorker(dir string, limit int) (*worker, error) {
	p, err := NewPool(dir, limit)
	if err != nil {
		return nil, err
	}
	w := &worker{pool: p, jobs: make(chan addJob, 256)}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *worker) loop() {
	defer w.wg.Done()
	for job := range w.jobs {
		err := w.pool.AddContent(job.docID, job.fieldID, job.field, job.value)
		job.done <- err
	}
}

func (w *worker) stop() {
	close(w.jobs)
	w.wg.Wait()
}

// MultiPool partitions AddContent calls across N worker sub-pools, each
// accumulating and spilling independently (spec.md §4.4 "multiprocess
// pool"). Workers here are goroutines rather than OS processes: Field
// values routinely close over non-serialisable state (custom Analyzers,
// in-process schema references), so partitioning across goroutines gets
// the same parallel-spill throughput without inventing a wire format for
// arbitrary user Field implementations. Each worker still gets its own
// temp directory and its own run files, so Finish's merge step is
// identical to the single-process case, just with more inputs.
type MultiPool struct {
	baseDir string
	workers []*worker
	next    int
	mu      sync.Mutex
}

// NewMultiPool creates n worker sub-pools rooted under baseDir, each with
// the given byte spill limit (0 for DefaultLimit).
func NewMultiPool(baseDir string, n, limit int) (*MultiPool, error) {
	if n < 1 {
		n = 1
	}
	mp := &MultiPool{baseDir: baseDir}
	for i := 0; i < n; i++ {
		dir := filepath.Join(baseDir, fmt.Sprintf("worker-%02d", i))
		w, err := newWorker(dir, limit)
		if err != nil {
			mp.Cancel()
			return nil, err
		}
		mp.workers = append(mp.workers, w)
	}
	return mp, nil
}

// AddContent routes the job to a worker by docID, so every posting for a
// given document lands in the same sub-pool's field-length array (a
// worker's field_lengths are dense per doc id it has seen, which only
// works cleanly if one worker owns a doc's postings exclusively).
func (mp *MultiPool) AddContent(docID int, fieldID uint16, field schema.Field, value any) error {
	w := mp.workers[docID%len(mp.workers)]
	done := make(chan error, 1)
	w.jobs <- addJob{docID: docID, fieldID: fieldID, field: field, value: value, done: done}
	return <-done
}

// Finish stops every worker, then returns the combined run descriptors,
// combined in-memory residuals, and merged field-length arrays ready for
// WriteAll and WriteLengthFile. The caller still does a single k-way
// merge over the union of every worker's runs; spec.md's "pairwise
// bimerge" is equivalent in output and a plain k-way heap merge (already
// built for the single-process case) handles any fan-in without a
// separate divide-and-conquer pass.
func (mp *MultiPool) Finish() (runs []*RunDescriptor, residual []tuple, fieldLens map[uint16][]byte, docCount int, err error) {
	fieldLens = make(map[uint16][]byte)
	for _, w := range mp.workers {
		w.stop()
		runs = append(runs, w.pool.Runs()...)
		residual = append(residual, w.pool.SortedResidual()...)
		if w.pool.DocCount() > docCount {
			docCount = w.pool.DocCount()
		}
	}
	// Each worker's residual arrived pre-sorted, but concatenation across
	// workers isn't: re-sort the union before it becomes a single merge
	// source.
	sort.Slice(residual, func(i, j int) bool { return lessTuple(residual[i], residual[j]) })
	// Union each worker's partial length arrays: workers own disjoint doc
	// id ranges (by docID % n), so unioning is a plain max-extend copy,
	// never an overlapping merge.
	for _, w := range mp.workers {
		for fieldID, arr := range w.pool.fieldLens {
			dst, ok := fieldLens[fieldID]
			if !ok || len(dst) < docCount {
				grown := make([]byte, docCount)
				copy(grown, dst)
				dst = grown
			}
			for doc, v := range arr {
				if v != 0 {
					dst[doc] = v
				}
			}
			fieldLens[fieldID] = dst
		}
	}
	return runs, residual, fieldLens, docCount, nil
}

// Cancel stops every worker and removes every worker's temp directory,
// used when a commit is aborted mid-flight.
func (mp *MultiPool) Cancel() {
	for _, w := range mp.workers {
		w.stop()
		w.pool.Cleanup()
	}
	os.RemoveAll(mp.baseDir)
}
