package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(id string) *Record {
	data := make([]byte, 16)
	copy(data, "example.com")
	return &Record{
		RuleID: id,
		Match:  "webstr",
		Data:   data,
		Args:   []string{"--host", "!", "example.com"},
	}
}

func TestFileStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "rules"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(ctx, newRecord("b_rule")))
	require.NoError(t, s.Put(ctx, newRecord("a_rule")))

	rec, err := s.Get(ctx, "a_rule")
	require.NoError(t, err)
	assert.Equal(t, newRecord("a_rule"), rec, "描述结构应原样恢复")

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a_rule", records[0].RuleID)
	assert.Equal(t, "b_rule", records[1].RuleID)

	// 覆盖写入
	updated := newRecord("a_rule")
	updated.Args = []string{"--url", "/x"}
	require.NoError(t, s.Put(ctx, updated))
	rec, err = s.Get(ctx, "a_rule")
	require.NoError(t, err)
	assert.Equal(t, []string{"--url", "/x"}, rec.Args)

	require.NoError(t, s.Delete(ctx, "a_rule"))
	_, err = s.Get(ctx, "a_rule")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "a_rule"), ErrNotFound)
}

func TestFileStoreCreate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Create(ctx, newRecord("r1")))

	dup := newRecord("r1")
	dup.Args = []string{"--url", "/x"}
	assert.ErrorIs(t, s.Create(ctx, dup), ErrExists)

	rec, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, newRecord("r1"), rec, "已存在的规则不应被覆盖")

	// 不留下临时文件
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

// 两个存储实例同时创建同一条规则，只有一个成功
func TestFileStoreCreateConcurrent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	const workers = 8
	var wg sync.WaitGroup
	var created atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := NewFileStore(dir)
			if err != nil {
				return
			}
			err = s.Create(ctx, newRecord("same"))
			if err == nil {
				created.Add(1)
				return
			}
			assert.ErrorIs(t, err, ErrExists)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
}

func TestFileStoreInvalidRuleID(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", "..", "../etc/passwd", `a\b`} {
		assert.ErrorIs(t, s.Put(ctx, newRecord(id)), ErrInvalidRuleID, id)
		assert.ErrorIs(t, s.Create(ctx, newRecord(id)), ErrInvalidRuleID, id)
		_, err := s.Get(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidRuleID, id)
	}
}

// List 忽略非 YAML 文件和子目录，遇到损坏的规则文件时报错
func TestFileStoreListFiltering(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, newRecord("ok")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0755))

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("descriptor: zz-not-hex\n"), 0644))
	_, err = s.List(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yml")
}
