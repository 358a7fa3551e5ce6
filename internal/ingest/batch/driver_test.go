package batch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunelake/tunelake/internal/migration"
	"github.com/tunelake/tunelake/internal/warehouse/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(db))
	return db
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestRunReducesHandlerCounts(t *testing.T) {
	db := newTestDB(t)
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.trk"))
	touch(t, filepath.Join(root, "sub", "b.trk"))
	touch(t, filepath.Join(root, "sub", "deep", "c.trk"))
	// Wrong extension is not enumerated.
	touch(t, filepath.Join(root, "ignored.json"))

	driver := NewDriver(db, zap.NewNop(), nil, 1, 100)

	var mu sync.Mutex
	var seen []string
	counts, err := driver.Run(context.Background(), "test", root, ".trk", func(ctx context.Context, tx *gorm.DB, path string) Counts {
		mu.Lock()
		seen = append(seen, filepath.Base(path))
		mu.Unlock()
		return Counts{Extracted: 1, Loaded: 1}
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3), counts.Extracted)
	assert.Equal(t, int64(3), counts.Loaded)
	assert.Equal(t, int64(0), counts.Rejected)
	assert.ElementsMatch(t, []string{"a.trk", "b.trk", "c.trk"}, seen)
}

func TestRunCommitsPerFile(t *testing.T) {
	db := newTestDB(t)
	root := t.TempDir()
	touch(t, filepath.Join(root, "one.trk"))
	touch(t, filepath.Join(root, "two.trk"))

	driver := NewDriver(db, zap.NewNop(), nil, 1, 100)

	var i int
	_, err := driver.Run(context.Background(), "test", root, ".trk", func(ctx context.Context, tx *gorm.DB, path string) Counts {
		i++
		require.NoError(t, tx.Create(&domain.Artist{ArtistID: filepath.Base(path), Name: "A"}).Error)
		return Counts{Extracted: 1, Loaded: 1}
	})
	require.NoError(t, err)
	require.Equal(t, 2, i)

	var artists int64
	require.NoError(t, db.Model(&domain.Artist{}).Count(&artists).Error)
	assert.Equal(t, int64(2), artists)
}

func TestRunWithWorkerPool(t *testing.T) {
	db := newTestDB(t)
	root := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		touch(t, filepath.Join(root, name+".json"))
	}

	driver := NewDriver(db, zap.NewNop(), nil, 4, 100)

	counts, err := driver.Run(context.Background(), "test", root, ".json", func(ctx context.Context, tx *gorm.DB, path string) Counts {
		return Counts{Extracted: 2, Loaded: 1, Rejected: 1}
	})
	require.NoError(t, err)

	assert.Equal(t, int64(14), counts.Extracted)
	assert.Equal(t, int64(7), counts.Loaded)
	assert.Equal(t, int64(7), counts.Rejected)
}

func TestRunMissingRootIsFatal(t *testing.T) {
	db := newTestDB(t)
	driver := NewDriver(db, zap.NewNop(), nil, 1, 100)

	_, err := driver.Run(context.Background(), "test", filepath.Join(t.TempDir(), "missing"), ".trk", func(ctx context.Context, tx *gorm.DB, path string) Counts {
		return Counts{}
	})
	assert.Error(t, err)
}

func TestStatsMergeIsCumulative(t *testing.T) {
	var s Stats
	s.Merge(Counts{Extracted: 1, Loaded: 1})
	s.Merge(Counts{Extracted: 2, Rejected: 1})

	got := s.Counts()
	assert.Equal(t, Counts{Extracted: 3, Loaded: 1, Rejected: 1}, got)
}
