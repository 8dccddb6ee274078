package events

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

type fakeTxStarter struct {
	sequences map[string]int64
	failBegin bool
	failScan  bool
	rollbacks int
}

func (f *fakeTxStarter) BeginTx(ctx context.Context, opts *sql.TxOptions) (txRunner, error) {
	if f.failBegin {
		return nil, errors.New("begin failed")
	}
	return &fakeTx{starter: f}, nil
}

type fakeTx struct {
	starter *fakeTxStarter
}

func (f *fakeTx) QueryRowContext(ctx context.Context, query string, args ...any) rowScanner {
	if f.starter.failScan {
		return fakeRow{err: errors.New("scan failed")}
	}
	partition := args[0].(string)
	f.starter.sequences[partition]++
	return fakeRow{value: f.starter.sequences[partition]}
}

func (f *fakeTx) Commit() error { return nil }

func (f *fakeTx) Rollback() error {
	f.starter.rollbacks++
	return nil
}

type fakeRow struct {
	value int64
	err   error
}

func (f fakeRow) Scan(dest ...any) error {
	if f.err != nil {
		return f.err
	}
	ptr, ok := dest[0].(*int64)
	if !ok {
		return errors.New("expected *int64 destination")
	}
	*ptr = f.value
	return nil
}

func TestNextSequenceIncrementsPerPartition(t *testing.T) {
	starter := &fakeTxStarter{sequences: make(map[string]int64)}
	repo := &sequenceRepository{db: starter}

	seq1, err := repo.NextSequence(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq1 != 1 {
		t.Fatalf("expected first sequence to be 1, got %d", seq1)
	}

	seq2, err := repo.NextSequence(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq2 != 2 {
		t.Fatalf("expected second sequence to be 2, got %d", seq2)
	}

	seqOther, err := repo.NextSequence(context.Background(), "session-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seqOther != 1 {
		t.Fatalf("expected new partition to start at 1, got %d", seqOther)
	}

	starter.failScan = true
	if _, err := repo.NextSequence(context.Background(), "session-1"); err == nil {
		t.Fatalf("expected error when scan fails")
	}
	if starter.rollbacks != 1 {
		t.Fatalf("expected rollback after scan failure, got %d", starter.rollbacks)
	}

	starter.failBegin = true
	if _, err := repo.NextSequence(context.Background(), "session-error"); err == nil {
		t.Fatalf("expected error when begin fails")
	}

	if _, err := repo.NextSequence(context.Background(), ""); !errors.Is(err, ErrMissingPartition) {
		t.Fatalf("expected ErrMissingPartition, got %v", err)
	}
}

func TestNextSequenceSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(nextSequenceSQL)).
		WithArgs("session-1").
		WillReturnRows(sqlmock.NewRows([]string{"last_sequence"}).AddRow(int64(7)))
	mock.ExpectCommit()

	seq, err := NewSequenceRepository(db).NextSequence(context.Background(), "session-1")
	require.NoError(t, err)
	require.Equal(t, int64(7), seq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemorySequence(t *testing.T) {
	ctx := context.Background()
	seq := NewMemorySequence()

	for want := int64(1); want <= 3; want++ {
		got, err := seq.NextSequence(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	got, err := seq.NextSequence(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, int64(1), got)

	_, err = seq.NextSequence(ctx, "")
	require.ErrorIs(t, err, ErrMissingPartition)
}
