package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	records []Record
	err     error
}

func (r *recordingSink) Write(_ context.Context, rec Record) error {
	r.records = append(r.records, rec)
	return r.err
}

func TestMultiWriteFansOutToAllSinks(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	multi := Multi{a, b}

	rec := Record{OpCode: "Delete", Subject: "/x"}
	require := assert.New(t)
	require.NoError(multi.Write(context.Background(), rec))
	require.Len(a.records, 1)
	require.Len(b.records, 1)
	require.Equal(rec, a.records[0])
}

func TestMultiWriteContinuesPastError(t *testing.T) {
	failing := &recordingSink{err: errors.New("disk full")}
	ok := &recordingSink{}
	multi := Multi{failing, ok}

	err := multi.Write(context.Background(), Record{OpCode: "Rename"})
	assert.Error(t, err)
	assert.Len(t, ok.records, 1)
}

func TestLogSinkWriteDoesNotError(t *testing.T) {
	sink := LogSink{}
	err := sink.Write(context.Background(), Record{OpCode: "Mkdir", Subject: "/a", Success: true})
	assert.NoError(t, err)
}
