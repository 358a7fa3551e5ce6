package repository

import (
	"context"

	"github.com/tunelake/tunelake/internal/warehouse/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

// Provide returns the warehouse repository.
func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) UpsertArtist(ctx context.Context, db *gorm.DB, artist *domain.Artist) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "artist_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "location", "latitude", "longitude"}),
	}).Create(artist).Error
}

func (r *repo) UpsertSong(ctx context.Context, db *gorm.DB, song *domain.Song) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "song_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "artist_id", "year", "duration"}),
	}).Create(song).Error
}

func (r *repo) UpsertUser(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "gender", "level"}),
	}).Create(user).Error
}

func (r *repo) InsertTimeEntry(ctx context.Context, db *gorm.DB, entry *domain.TimeEntry) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "start_time"}},
		DoNothing: true,
	}).Create(entry).Error
}

func (r *repo) UpsertSongplay(ctx context.Context, db *gorm.DB, play *domain.Songplay) error {
	// Deliberately narrow conflict update: a duplicate songplay_id refreshes
	// session_id and nothing else.
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "songplay_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"session_id"}),
	}).Create(play).Error
}

type songArtistRow struct {
	SongID   string `gorm:"column:song_id"`
	ArtistID string `gorm:"column:artist_id"`
}

func (r *repo) ResolveSongArtist(ctx context.Context, db *gorm.DB, title, artistName string, duration float64) (*string, *string, error) {
	var row songArtistRow
	err := db.WithContext(ctx).Raw(
		`SELECT s.song_id, a.artist_id
		 FROM songs s
		 JOIN artists a ON s.artist_id = a.artist_id
		 WHERE s.title = ? AND a.name = ? AND s.duration = ?
		 LIMIT 1`,
		title,
		artistName,
		duration,
	).Scan(&row).Error
	if err != nil {
		return nil, nil, err
	}
	if row.SongID == "" {
		return nil, nil, nil
	}
	return &row.SongID, &row.ArtistID, nil
}
