package runlog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunelake/tunelake/internal/migration"
	"github.com/tunelake/tunelake/internal/runlog/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestFactory(t *testing.T) (*Factory, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewFactory(db, zap.NewNop(), node), db
}

func TestRecorderSuccessLifecycle(t *testing.T) {
	factory, db := newTestFactory(t)
	ctx := context.Background()

	rec := factory.Recorder("ingest.songs")
	rec.Start(ctx)

	var running domain.RunLog
	require.NoError(t, db.First(&running).Error)
	assert.Equal(t, domain.StatusRunning, running.Status)
	assert.Equal(t, "ingest.songs", running.PackageName)
	assert.NotZero(t, running.LogID)
	assert.Nil(t, running.EndTime)

	rec.Success(ctx, 10, 8, 2)

	var done domain.RunLog
	require.NoError(t, db.First(&done).Error)
	assert.Equal(t, domain.StatusSuccess, done.Status)
	assert.Equal(t, int64(10), done.RowsExtracted)
	assert.Equal(t, int64(8), done.RowsLoaded)
	assert.Equal(t, int64(2), done.RowsRejected)
	assert.NotNil(t, done.EndTime)
}

func TestRecorderFailLifecycle(t *testing.T) {
	factory, db := newTestFactory(t)
	ctx := context.Background()

	rec := factory.Recorder("ingest.events")
	rec.Start(ctx)
	rec.Fail(ctx, errors.New("boom"))

	var done domain.RunLog
	require.NoError(t, db.First(&done).Error)
	assert.Equal(t, domain.StatusFailed, done.Status)
	assert.Equal(t, "boom", done.ErrorMessage)
	assert.NotNil(t, done.EndTime)
}

func TestRecorderTruncatesLongErrors(t *testing.T) {
	factory, db := newTestFactory(t)
	ctx := context.Background()

	rec := factory.Recorder("ingest.events")
	rec.Start(ctx)
	rec.Fail(ctx, errors.New(strings.Repeat("x", domain.MaxErrorLen+500)))

	var done domain.RunLog
	require.NoError(t, db.First(&done).Error)
	assert.Len(t, done.ErrorMessage, domain.MaxErrorLen)
}

func TestRecorderTruncationKeepsValidUTF8(t *testing.T) {
	factory, db := newTestFactory(t)
	ctx := context.Background()

	// Three-byte runes do not divide the limit evenly, so a byte-boundary cut
	// would split one.
	rec := factory.Recorder("ingest.events")
	rec.Start(ctx)
	rec.Fail(ctx, errors.New(strings.Repeat("界", domain.MaxErrorLen)))

	var done domain.RunLog
	require.NoError(t, db.First(&done).Error)
	assert.True(t, utf8.ValidString(done.ErrorMessage))
	assert.LessOrEqual(t, len(done.ErrorMessage), domain.MaxErrorLen)
	assert.Greater(t, len(done.ErrorMessage), domain.MaxErrorLen-utf8.UTFMax)
}

func TestRecorderNoOpBeforeStart(t *testing.T) {
	factory, db := newTestFactory(t)
	ctx := context.Background()

	rec := factory.Recorder("ingest.songs")
	rec.Success(ctx, 1, 1, 0)
	rec.Fail(ctx, errors.New("ignored"))

	var count int64
	require.NoError(t, db.Model(&domain.RunLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecorderFinalizesOnce(t *testing.T) {
	factory, db := newTestFactory(t)
	ctx := context.Background()

	rec := factory.Recorder("ingest.songs")
	rec.Start(ctx)
	rec.Success(ctx, 5, 5, 0)

	// A second terminal call after finalization is ignored.
	rec.Fail(ctx, errors.New("late"))

	var done domain.RunLog
	require.NoError(t, db.First(&done).Error)
	assert.Equal(t, domain.StatusSuccess, done.Status)
	assert.Empty(t, done.ErrorMessage)
}
