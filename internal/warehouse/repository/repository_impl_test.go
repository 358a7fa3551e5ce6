package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunelake/tunelake/internal/migration"
	"github.com/tunelake/tunelake/internal/warehouse/domain"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(db))
	return db
}

func TestUpsertArtistIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := Provide()
	ctx := context.Background()

	lat := 10.5
	artist := &domain.Artist{ArtistID: "AR1", Name: "First", Location: "Hanoi", Latitude: &lat}
	require.NoError(t, repo.UpsertArtist(ctx, db, artist))
	require.NoError(t, repo.UpsertArtist(ctx, db, artist))

	var count int64
	require.NoError(t, db.Model(&domain.Artist{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var stored domain.Artist
	require.NoError(t, db.First(&stored, "artist_id = ?", "AR1").Error)
	assert.Equal(t, "First", stored.Name)
}

func TestUpsertArtistReplacesAttributes(t *testing.T) {
	db := newTestDB(t)
	repo := Provide()
	ctx := context.Background()

	require.NoError(t, repo.UpsertArtist(ctx, db, &domain.Artist{ArtistID: "AR1", Name: "Old Name", Location: "Old Town"}))
	require.NoError(t, repo.UpsertArtist(ctx, db, &domain.Artist{ArtistID: "AR1", Name: "New Name", Location: "New Town"}))

	var stored domain.Artist
	require.NoError(t, db.First(&stored, "artist_id = ?", "AR1").Error)
	assert.Equal(t, "New Name", stored.Name)
	assert.Equal(t, "New Town", stored.Location)
}

func TestUpsertSongReplacesAttributes(t *testing.T) {
	db := newTestDB(t)
	repo := Provide()
	ctx := context.Background()

	require.NoError(t, repo.UpsertArtist(ctx, db, &domain.Artist{ArtistID: "AR1", Name: "Artist"}))

	year := 1990
	require.NoError(t, repo.UpsertSong(ctx, db, &domain.Song{SongID: "SO1", Title: "Old", ArtistID: "AR1", Year: &year}))

	newYear := 1991
	require.NoError(t, repo.UpsertSong(ctx, db, &domain.Song{SongID: "SO1", Title: "New", ArtistID: "AR1", Year: &newYear}))

	var count int64
	require.NoError(t, db.Model(&domain.Song{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var stored domain.Song
	require.NoError(t, db.First(&stored, "song_id = ?", "SO1").Error)
	assert.Equal(t, "New", stored.Title)
	require.NotNil(t, stored.Year)
	assert.Equal(t, 1991, *stored.Year)
}

func TestInsertTimeEntryDedupes(t *testing.T) {
	db := newTestDB(t)
	repo := Provide()
	ctx := context.Background()

	ts := time.Date(2018, 11, 1, 21, 1, 46, 796000000, time.UTC)
	first := &domain.TimeEntry{StartTime: ts, Hour: 21, Day: 1, Week: 44, Month: 11, Year: 2018, Weekday: 3}
	require.NoError(t, repo.InsertTimeEntry(ctx, db, first))

	// Conflicting timestamp with different derived fields is a no-op.
	second := &domain.TimeEntry{StartTime: ts, Hour: 99}
	require.NoError(t, repo.InsertTimeEntry(ctx, db, second))

	var count int64
	require.NoError(t, db.Model(&domain.TimeEntry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var stored domain.TimeEntry
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, 21, stored.Hour)
}

func TestUpsertSongplayRefreshesOnlySessionID(t *testing.T) {
	db := newTestDB(t)
	repo := Provide()
	ctx := context.Background()

	session1, session2 := int64(100), int64(200)
	loc1, loc2 := "San Francisco, CA", "Portland, OR"
	ts := time.Date(2018, 11, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpsertSongplay(ctx, db, &domain.Songplay{
		SongplayID: "play-1", StartTime: ts, SessionID: &session1, Location: &loc1,
	}))
	require.NoError(t, repo.UpsertSongplay(ctx, db, &domain.Songplay{
		SongplayID: "play-1", StartTime: ts, SessionID: &session2, Location: &loc2,
	}))

	var stored domain.Songplay
	require.NoError(t, db.First(&stored, "songplay_id = ?", "play-1").Error)
	require.NotNil(t, stored.SessionID)
	require.NotNil(t, stored.Location)
	assert.Equal(t, int64(200), *stored.SessionID)
	// Location keeps its originally-written value.
	assert.Equal(t, "San Francisco, CA", *stored.Location)
}

func TestResolveSongArtist(t *testing.T) {
	db := newTestDB(t)
	repo := Provide()
	ctx := context.Background()

	dur := 200.0
	require.NoError(t, repo.UpsertArtist(ctx, db, &domain.Artist{ArtistID: "ARY", Name: "Y"}))
	require.NoError(t, repo.UpsertSong(ctx, db, &domain.Song{SongID: "SOX", Title: "X", ArtistID: "ARY", Duration: &dur}))

	songID, artistID, err := repo.ResolveSongArtist(ctx, db, "X", "Y", 200.0)
	require.NoError(t, err)
	require.NotNil(t, songID)
	require.NotNil(t, artistID)
	assert.Equal(t, "SOX", *songID)
	assert.Equal(t, "ARY", *artistID)
}

func TestResolveSongArtistNoMatch(t *testing.T) {
	db := newTestDB(t)
	repo := Provide()
	ctx := context.Background()

	dur := 200.0
	require.NoError(t, repo.UpsertArtist(ctx, db, &domain.Artist{ArtistID: "ARY", Name: "Y"}))
	require.NoError(t, repo.UpsertSong(ctx, db, &domain.Song{SongID: "SOX", Title: "X", ArtistID: "ARY", Duration: &dur}))

	for _, triple := range []struct {
		title, artist string
		duration      float64
	}{
		{"X", "Y", 201.0},
		{"X", "Z", 200.0},
		{"W", "Y", 200.0},
	} {
		songID, artistID, err := repo.ResolveSongArtist(ctx, db, triple.title, triple.artist, triple.duration)
		require.NoError(t, err)
		assert.Nil(t, songID)
		assert.Nil(t, artistID)
	}
}
