package semesters_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradecalc/internal/core"
	"gradecalc/internal/log"
	"gradecalc/internal/semesters"
	"gradecalc/internal/semesters/memory"
)

type failingKV struct {
	semesters.KV
	failPut, failGet, failDelete bool
	gets                         int
}

func (f *failingKV) Get(ctx context.Context, key string) (string, bool, error) {
	f.gets++
	if f.failGet {
		return "", false, errors.New("read boom")
	}
	return f.KV.Get(ctx, key)
}

func (f *failingKV) Put(ctx context.Context, key, value string) error {
	if f.failPut {
		return errors.New("write boom")
	}
	return f.KV.Put(ctx, key, value)
}

func (f *failingKV) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errors.New("delete boom")
	}
	return f.KV.Delete(ctx, key)
}

type recordingNotifier struct {
	counts []int
	err    error
}

func (r *recordingNotifier) SemestersChanged(_ context.Context, count int) error {
	r.counts = append(r.counts, count)
	return r.err
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: &bytes.Buffer{}})
}

func newStore(kv semesters.KV, opts ...semesters.Option) *semesters.Store {
	return semesters.NewStore(kv, append([]semesters.Option{semesters.WithLogger(quietLogger())}, opts...)...)
}

func TestLoadMissingRecordIsEmpty(t *testing.T) {
	s := newStore(memory.New())
	rows := s.Load(context.Background())
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestLoadMalformedRecordIsEmpty(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"not json", `{"gpa":"3"}`, `[{"gpa":true}]`, ""} {
		kv := memory.New()
		require.NoError(t, kv.Put(ctx, semesters.Key, raw))
		rows := newStore(kv).Load(ctx)
		assert.Emptyf(t, rows, "record %q", raw)
	}
}

func TestLoadReadErrorIsEmpty(t *testing.T) {
	kv := &failingKV{KV: memory.New(), failGet: true}
	assert.Empty(t, newStore(kv).Load(context.Background()))
}

func TestLoadNullRecordIsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Put(ctx, semesters.Key, "null"))
	rows := newStore(kv).Load(ctx)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestReplaceWritesThrough(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newStore(kv)
	s.Load(ctx)

	rows := []core.SemesterRow{{GPA: "3.50", Credit: "15"}, {GPA: "3.00", Credit: "12"}}
	require.NoError(t, s.Replace(ctx, rows))

	raw, ok, err := kv.Get(ctx, semesters.Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"gpa":"3.50","credit":15},{"gpa":"3.00","credit":12}]`, raw)

	// A fresh store over the same record sees the same list.
	assert.Equal(t, rows, newStore(kv).Load(ctx))
	assert.Equal(t, rows, s.Rows())
}

func TestReplaceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newStore(kv)
	rows := []core.SemesterRow{{GPA: "2.75", Credit: "18"}, {GPA: "2.75", Credit: "18"}}

	require.NoError(t, s.Replace(ctx, rows))
	first, _, _ := kv.Get(ctx, semesters.Key)
	require.NoError(t, s.Replace(ctx, rows))
	second, _, _ := kv.Get(ctx, semesters.Key)

	assert.Equal(t, first, second)
	assert.Equal(t, rows, s.Load(ctx))
}

func TestReplaceFailureKeepsPreviousList(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KV: memory.New()}
	s := newStore(kv)
	require.NoError(t, s.Replace(ctx, []core.SemesterRow{{GPA: "3.00", Credit: "10"}}))

	kv.failPut = true
	err := s.Replace(ctx, []core.SemesterRow{{GPA: "1.00", Credit: "1"}})
	require.Error(t, err)
	assert.Equal(t, []core.SemesterRow{{GPA: "3.00", Credit: "10"}}, s.Rows())
	assert.Equal(t, s.Rows(), s.Load(ctx))
}

func TestRowsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := newStore(memory.New())
	require.NoError(t, s.Replace(ctx, []core.SemesterRow{{GPA: "3.00", Credit: "10"}}))

	rows := s.Rows()
	rows[0].GPA = "0.00"
	assert.Equal(t, "3.00", s.Rows()[0].GPA)
}

func TestAppendKeepsExistingRows(t *testing.T) {
	ctx := context.Background()
	s := newStore(memory.New())
	require.NoError(t, s.Append(ctx, core.SemesterRow{GPA: "3.00", Credit: "10"}))
	require.NoError(t, s.Append(ctx, core.SemesterRow{GPA: "4.00", Credit: "5"}))

	assert.Equal(t, []core.SemesterRow{{GPA: "3.00", Credit: "10"}, {GPA: "4.00", Credit: "5"}}, s.Load(ctx))
}

func TestClearRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newStore(kv)
	require.NoError(t, s.Replace(ctx, []core.SemesterRow{{GPA: "3.00", Credit: "10"}}))

	err := s.Clear(ctx, false)
	assert.ErrorIs(t, err, core.ErrClearNotConfirmed)
	assert.Len(t, s.Rows(), 1)

	require.NoError(t, s.Clear(ctx, true))
	assert.Empty(t, s.Rows())
	assert.Empty(t, s.Load(ctx))
	_, ok, _ := kv.Get(ctx, semesters.Key)
	assert.False(t, ok)
}

func TestClearFailureKeepsList(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KV: memory.New()}
	s := newStore(kv)
	require.NoError(t, s.Replace(ctx, []core.SemesterRow{{GPA: "3.00", Credit: "10"}}))

	kv.failDelete = true
	assert.Error(t, s.Clear(ctx, true))
	assert.Len(t, s.Rows(), 1)
}

func TestNotifierSeesEveryWrite(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{err: errors.New("broker down")}
	s := newStore(memory.New(), semesters.WithNotifier(n))

	require.NoError(t, s.Replace(ctx, []core.SemesterRow{{GPA: "3.00", Credit: "10"}}))
	require.NoError(t, s.Append(ctx, core.SemesterRow{GPA: "2.00", Credit: "3"}))
	require.NoError(t, s.Clear(ctx, true))

	assert.Equal(t, []int{1, 2, 0}, n.counts)
}

func TestWithKey(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newStore(kv, semesters.WithKey("other"))
	require.NoError(t, s.Replace(ctx, []core.SemesterRow{{GPA: "1.00", Credit: "1"}}))

	_, ok, _ := kv.Get(ctx, "other")
	assert.True(t, ok)
	_, ok, _ = kv.Get(ctx, semesters.Key)
	assert.False(t, ok)
}

func TestCachedKV(t *testing.T) {
	ctx := context.Background()
	backend := &failingKV{KV: memory.New()}
	kv := semesters.NewCachedKV(backend, time.Minute)

	require.NoError(t, kv.Put(ctx, "k", "v1"))
	v, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", v)
	assert.Equal(t, 0, backend.gets, "put should prime the cache")

	backend.failPut = true
	assert.Error(t, kv.Put(ctx, "k", "v2"))
	backend.failPut = false
	v, _, _ = kv.Get(ctx, "k")
	assert.Equal(t, "v1", v)
	assert.Equal(t, 1, backend.gets)

	require.NoError(t, kv.Delete(ctx, "k"))
	_, ok, _ = kv.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, kv.Cache().Size(), "misses are not cached")
}

func TestDecode(t *testing.T) {
	rows, err := semesters.Decode(`[{"gpa":"3.10","credit":9}]`)
	require.NoError(t, err)
	assert.Equal(t, []core.SemesterRow{{GPA: "3.10", Credit: "9"}}, rows)

	_, err = semesters.Decode("{")
	assert.Error(t, err)
}
