// Package flashindex is a full-text search and indexing engine: schema
// definition and field analysis (schema), inverted posting lists and
// their codec (posting), numeric range decomposition (numeric), the
// indexing pipeline that turns documents into committed segments
// (indexing), query algebra and matchers/collectors (query, matching),
// segment and multi-segment search with BM25F scoring (search), and the
// storage layer that persists segments and the table of contents
// (storage, storage/table, storage/disk).
//
// There is no command-line entry point; flashindex is consumed as a
// library. Callers typically open or create an index via
// storage/disk.New, build segments through indexing.Pool and
// storage/disk.WriteSegment, and query them through search and query.
package flashindex
