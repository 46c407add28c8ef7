package database

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/ValentinKolb/qmx/lib/cash"
	"github.com/ValentinKolb/qmx/lib/common"
	"github.com/ValentinKolb/qmx/lib/store"
	"github.com/ValentinKolb/qmx/lib/student"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) common.Config {
	cfg := common.DefaultConfig()
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestOpenEmptyDirectory(t *testing.T) {
	db, err := Open(testConfig(t))
	require.NoError(t, err)
	assert.True(t, db.Student.IsEmpty())
	assert.True(t, db.Cash.IsEmpty())
	assert.Equal(t, uint64(0), db.Counters.Get(common.KindStudent).Value())
}

func TestEndToEndSaveAndReload(t *testing.T) {
	cfg := testConfig(t)
	db, err := Open(cfg)
	require.NoError(t, err)

	t0 := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	t1 := t0.AddDate(0, 1, 0)

	sid := db.Student.Insert(student.New("Alice", 30))

	inst, err := cash.NewInstallment(1, 3000, 3, cash.FrequencyMonthly, t0)
	require.NoError(t, err)
	db.Cash.Insert(&cash.Cash{StudentID: &sid, Amount: 3000, CreatedAt: t0, Installment: inst})

	next, err := db.Cash.GenerateNextInstallment(1, t1)
	require.NoError(t, err)
	require.NoError(t, db.Save())

	for _, kind := range []string{common.KindStudent, common.KindCash} {
		_, err := os.Stat(cfg.DatabasePath(kind))
		assert.NoError(t, err, kind)
		_, err = os.Stat(cfg.CounterPath(kind))
		assert.NoError(t, err, kind)
	}

	reloaded, err := Open(cfg)
	require.NoError(t, err)

	plan := reloaded.Cash.InstallmentsForPlan(1)
	require.Len(t, plan, 2)
	assert.Equal(t, uint32(1), plan[0].Installment.CurrentInstallment)
	assert.Equal(t, uint32(2), plan[1].Installment.CurrentInstallment)
	assert.Equal(t, next, plan[1].UID())
	assert.Equal(t, t1, plan[1].Installment.DueDate)

	alice, ok := reloaded.Student.Get(sid)
	require.True(t, ok)
	assert.Equal(t, "Alice", alice.Name)

	assert.Greater(t, reloaded.Student.Insert(student.New("Bob", 20)), sid)
	assert.Greater(t, reloaded.Cash.Insert(cash.New(5)), next)
}

func TestLaggingCounterFileDoesNotCauseReuse(t *testing.T) {
	cfg := testConfig(t)
	db, err := Open(cfg)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		db.Student.Insert(student.New("s", 1))
	}
	require.NoError(t, db.Save())

	// counter file from an older run
	require.NoError(t, os.WriteFile(cfg.CounterPath(common.KindStudent), []byte("2"), 0o644))

	reloaded, err := Open(cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), reloaded.Student.Insert(student.New("t", 1)))
}

func TestOpenReportsCorruptFiles(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.DatabasePath(common.KindCash), []byte("{oops"), 0o644))

	_, err := Open(cfg)
	assert.True(t, errors.Is(err, store.ErrParse), "got %v", err)

	require.NoError(t, os.Remove(cfg.DatabasePath(common.KindCash)))
	require.NoError(t, os.WriteFile(cfg.CounterPath(common.KindStudent), []byte("x"), 0o644))
	_, err = Open(cfg)
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	db := New(testConfig(t))
	db.Student.Insert(student.New("a", 1))

	info := db.Info()
	require.Len(t, info, 2)
	assert.Equal(t, common.KindStudent, info[0].Kind)
	assert.Equal(t, 1, info[0].Records)
	assert.Equal(t, common.KindCash, info[1].Kind)
	assert.Equal(t, 0, info[1].Records)
}
