package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tidyqa-cli/internal/apperr"
	"github.com/KaramelBytes/tidyqa-cli/internal/cleaning"
	"github.com/KaramelBytes/tidyqa-cli/internal/table"
)

func raw() *table.Table {
	return table.MustNew(
		table.NewColumn("First Name", table.KindText, []table.Value{table.Text(" ann "), table.Text(" ann "), table.Text("bo")}),
		table.NewColumn("Age", table.KindNumeric, []table.Value{table.Number(30), table.Number(30), table.Null()}),
	)
}

func TestStoreLifecycle(t *testing.T) {
	s := NewStore(nil)
	sess, err := s.Create("people.csv", raw(), cleaning.DefaultConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, []string{"first_name", "age"}, sess.Clean.Names())
	assert.Equal(t, 2, sess.Clean.NumRows())

	got, err := s.Get(sess.ID)
	require.NoError(t, err)
	assert.True(t, got.Clean.Equal(sess.Clean))

	info := got.Info()
	assert.Equal(t, 3, info.RawRows)
	assert.Equal(t, 2, info.Rows)
	assert.Equal(t, ColumnInfo{Name: "age", Kind: "numeric", Missing: 0}, info.Columns[1])

	cfg := cleaning.DefaultConfig()
	cfg.DropDuplicates = false
	cfg.StandardizeNames = false
	updated, err := s.Reclean(sess.ID, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Clean.NumRows())
	assert.Equal(t, []string{"First Name", "Age"}, updated.Clean.Names())
	assert.Equal(t, 2, sess.Clean.NumRows(), "earlier snapshots keep their table")

	require.NoError(t, s.Delete(sess.ID))
	_, err = s.Get(sess.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(s.Delete(sess.ID)))
}

func TestStoreRejectsInvalidConfig(t *testing.T) {
	cfg := cleaning.DefaultConfig()
	cfg.Missing.Numeric = "mode"
	_, err := NewStore(nil).Create("x", raw(), cfg)
	assert.Equal(t, apperr.KindConfig, apperr.KindOf(err))
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore(nil)
	var wg sync.WaitGroup
	ids := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := s.Create("x", raw(), cleaning.DefaultConfig())
			if err == nil {
				ids <- sess.ID
				_, _ = s.Get(sess.ID)
				_ = s.List()
			}
		}()
	}
	wg.Wait()
	close(ids)
	assert.Equal(t, 20, s.Len())
	assert.Len(t, s.List(), 20)
}
