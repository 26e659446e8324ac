package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubPool struct {
	execSQL      []string
	execErr      error
	execTag      pgconn.CommandTag
	batchResults *stubBatchResults
	queuedBatch  *pgx.Batch
	rowsData     [][]any
	queryErr     error
	queryArgs    []any
	queryRowData []any
	queryRowErr  error
}

func (s *stubPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.execSQL = append(s.execSQL, sql)
	return s.execTag, s.execErr
}

func (s *stubPool) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	s.queuedBatch = b
	if s.batchResults != nil {
		return s.batchResults
	}
	return &stubBatchResults{}
}

func (s *stubPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	data := make([][]any, len(s.rowsData))
	copy(data, s.rowsData)
	return &stubRows{data: data}, nil
}

func (s *stubPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	s.queryArgs = args
	return &stubRow{data: s.queryRowData, err: s.queryRowErr}
}

type stubBatchResults struct {
	execCalls int
	failAt    int
	err       error
}

func (s *stubBatchResults) Exec() (pgconn.CommandTag, error) {
	s.execCalls++
	if s.err != nil && s.execCalls == s.failAt {
		return pgconn.CommandTag{}, s.err
	}
	return pgconn.CommandTag{}, nil
}

func (s *stubBatchResults) Query() (pgx.Rows, error) { return &stubRows{}, nil }
func (s *stubBatchResults) QueryRow() pgx.Row        { return &stubRow{} }
func (s *stubBatchResults) Close() error             { return nil }

type stubRows struct {
	data [][]any
	idx  int
}

func (r *stubRows) Close()                                       {}
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Values() ([]any, error)                       { return nil, nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func (r *stubRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.data) {
		return fmt.Errorf("invalid scan index")
	}
	return assign(r.data[r.idx-1], dest)
}

type stubRow struct {
	data []any
	err  error
}

func (r *stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.data == nil {
		return pgx.ErrNoRows
	}
	return assign(r.data, dest)
}

// assign copies a stub row into Scan destinations. A nil source leaves
// pointer destinations nil, mirroring NULL columns.
func assign(row []any, dest []any) error {
	if len(dest) > len(row) {
		return fmt.Errorf("scan wants %d columns, row has %d", len(dest), len(row))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d)
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return fmt.Errorf("scan destination %d is %T", i, d)
		}
		target = target.Elem()
		if row[i] == nil {
			target.SetZero()
			continue
		}
		src := reflect.ValueOf(row[i])
		switch {
		case src.Type().AssignableTo(target.Type()):
			target.Set(src)
		case target.Kind() == reflect.Pointer && src.Type().AssignableTo(target.Type().Elem()):
			boxed := reflect.New(src.Type())
			boxed.Elem().Set(src)
			target.Set(boxed)
		default:
			return fmt.Errorf("column %d: cannot scan %T into %T", i, row[i], d)
		}
	}
	return nil
}
