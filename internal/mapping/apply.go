package mapping

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/posimport/internal/cell"
	"github.com/JonMunkholm/posimport/internal/issue"
	"github.com/JonMunkholm/posimport/internal/source"
)

// DefaultChunkSize is the number of rows mapped per chunk.
const DefaultChunkSize = 1000

// Progress is reported after every chunk.
type Progress struct {
	Chunk         int `json:"chunk"`
	RowsProcessed int `json:"rows_processed"`
}

// ApplyOptions configures ApplyMappings.
type ApplyOptions struct {
	ChunkSize  int
	OnProgress func(Progress)
}

// MapRow projects one source row through the primary mappings of set.
// rowNumber is the 1-based data row position in the source.
func (m *Mapper) MapRow(row source.Row, rowNumber int, set *Set) Record {
	rec := Record{
		Fields:          make(map[string]any),
		SourceRowNumber: rowNumber,
		SourceRow:       row,
		MappedAt:        m.now().UTC(),
	}
	for _, fm := range set.PrimaryMappings() {
		raw := row[fm.SourceHeader]
		if cell.Clean(raw) == "" {
			rec.Fields[fm.TargetField] = nil
			continue
		}
		rec.Fields[fm.TargetField] = m.transform(raw, fm, rowNumber)
	}
	return rec
}

// transform runs the chain in order. A failing step is logged and skipped,
// so the value it received passes through to the next step.
func (m *Mapper) transform(raw string, fm *FieldMapping, rowNumber int) any {
	var v any = raw
	for _, t := range fm.Transformations {
		fn, ok := Lookup(t)
		if !ok {
			m.logger.Warn("unknown transformation", "transform", t, "field", fm.TargetField)
			continue
		}
		out, err := fn(v)
		if err != nil {
			m.logger.Warn("transformation failed",
				"kind", issue.TransformationFailure,
				"row", rowNumber,
				"header", fm.SourceHeader,
				"field", fm.TargetField,
				"transform", t,
				"error", err,
			)
			continue
		}
		v = out
	}
	return v
}

// ApplyChunks streams every row of it through set, calling fn once per chunk
// of at most chunkSize records. It stops between chunks when ctx is done and
// returns ctx.Err(); fn errors stop it as well.
func (m *Mapper) ApplyChunks(ctx context.Context, it source.RowIterator, set *Set, chunkSize int, fn func([]Record, Progress) error) error {
	if set == nil {
		return issue.NewSystemError("apply mappings", fmt.Errorf("nil mapping set"))
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var (
		chunk     = make([]Record, 0, chunkSize)
		progress  Progress
		rowNumber int
	)
	flush := func() error {
		progress.Chunk++
		progress.RowsProcessed += len(chunk)
		if err := fn(chunk, progress); err != nil {
			return err
		}
		chunk = make([]Record, 0, chunkSize)
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, ok := it.Next()
		if !ok {
			break
		}
		rowNumber++
		chunk = append(chunk, m.MapRow(row, rowNumber, set))

		if len(chunk) == chunkSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := it.Err(); err != nil {
		return issue.NewSystemError("read rows", err)
	}
	if len(chunk) > 0 {
		return flush()
	}
	return nil
}

// ApplyMappings maps every row of it and returns the records. On
// cancellation it returns the records mapped so far with ctx.Err().
func (m *Mapper) ApplyMappings(ctx context.Context, it source.RowIterator, set *Set, opts ApplyOptions) ([]Record, error) {
	var out []Record
	err := m.ApplyChunks(ctx, it, set, opts.ChunkSize, func(chunk []Record, p Progress) error {
		out = append(out, chunk...)
		if opts.OnProgress != nil {
			opts.OnProgress(p)
		}
		return nil
	})
	return out, err
}
