package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository is the warehouse write interface plus the natural-key lookup.
// Methods take the gorm handle explicitly so callers can route writes through
// a per-file transaction.
type Repository interface {
	// UpsertArtist inserts the artist or replaces all non-key attributes on
	// primary-key conflict.
	UpsertArtist(ctx context.Context, db *gorm.DB, artist *Artist) error

	// UpsertSong inserts the song or replaces all non-key attributes on
	// primary-key conflict.
	UpsertSong(ctx context.Context, db *gorm.DB, song *Song) error

	// UpsertUser inserts the user or replaces all non-key attributes on
	// primary-key conflict.
	UpsertUser(ctx context.Context, db *gorm.DB, user *User) error

	// InsertTimeEntry inserts the time row if absent; a conflicting
	// timestamp is left untouched.
	InsertTimeEntry(ctx context.Context, db *gorm.DB, entry *TimeEntry) error

	// UpsertSongplay inserts the fact row. On songplay_id conflict only
	// session_id is refreshed; other attributes keep their original values.
	UpsertSongplay(ctx context.Context, db *gorm.DB, play *Songplay) error

	// ResolveSongArtist joins songs to artists on an exact match of title,
	// artist name and duration, returning the first matching id pair or
	// (nil, nil) when no row matches.
	ResolveSongArtist(ctx context.Context, db *gorm.DB, title, artistName string, duration float64) (songID, artistID *string, err error)
}
