// Package songmeta ingests track containers into the artist and song
// dimensions.
package songmeta

import (
	"context"

	"github.com/tunelake/tunelake/internal/ingest/batch"
	"github.com/tunelake/tunelake/internal/ingest/container"
	"github.com/tunelake/tunelake/internal/warehouse/domain"
	"github.com/tunelake/tunelake/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container group paths carrying the consumed fields.
const (
	metadataGroup = "metadata/songs"
	analysisGroup = "analysis/songs"
)

type Handler struct {
	repo domain.Repository
	log  *zap.Logger
}

func NewHandler(repo domain.Repository, log *zap.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

// Process ingests one track container. The record counts as extracted when
// the file is opened; a corrupt container or a missing natural key rejects
// it. The artist is written before its song so the song's artist reference
// always lands on an existing row. Individual upsert failures are counted
// and never abort the file.
func (h *Handler) Process(ctx context.Context, tx *gorm.DB, path string) batch.Counts {
	var c batch.Counts
	c.Extracted++

	file, err := container.Open(path)
	if err != nil {
		h.log.Warn("unreadable track container", zap.String("path", path), zap.Error(err))
		c.Rejected++
		return c
	}
	rec := container.NewRecord(file)

	songID := rec.String(metadataGroup, "song_id", "")
	artistID := rec.String(metadataGroup, "artist_id", "")
	if songID == "" || artistID == "" {
		c.Rejected++
		return c
	}

	artist := &domain.Artist{
		ArtistID: artistID,
		Name:     rec.String(metadataGroup, "artist_name", ""),
		Location: rec.String(metadataGroup, "artist_location", ""),
	}
	if rec.Has(metadataGroup, "artist_latitude") {
		lat := rec.Float(metadataGroup, "artist_latitude", 0)
		artist.Latitude = &lat
	}
	if rec.Has(metadataGroup, "artist_longitude") {
		lon := rec.Float(metadataGroup, "artist_longitude", 0)
		artist.Longitude = &lon
	}

	switch err := h.repo.UpsertArtist(ctx, tx, artist); {
	case err == nil:
		c.Loaded++
	case db.IsDuplicateKeyErr(err):
		// A concurrent worker won the insert race; the row exists.
		c.Loaded++
	default:
		h.log.Warn("artist upsert failed", zap.String("artist_id", artistID), zap.Error(err))
		c.Rejected++
	}

	song := &domain.Song{
		SongID:   songID,
		Title:    rec.String(metadataGroup, "title", ""),
		ArtistID: artistID,
	}
	// Year 0 marks "unknown" in the source and becomes NULL.
	if year := rec.Int(metadataGroup, "year", 0); year != 0 {
		y := int(year)
		song.Year = &y
	}
	if rec.Has(analysisGroup, "duration") {
		dur := rec.Float(analysisGroup, "duration", 0)
		song.Duration = &dur
	}

	switch err := h.repo.UpsertSong(ctx, tx, song); {
	case err == nil:
		c.Loaded++
	case db.IsDuplicateKeyErr(err):
		c.Loaded++
	default:
		h.log.Warn("song upsert failed", zap.String("song_id", songID), zap.Error(err))
		c.Rejected++
	}

	return c
}
