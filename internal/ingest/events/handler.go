// Package events normalizes line-delimited JSON activity logs into the time
// and user dimensions and the songplays fact table.
package events

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/tunelake/tunelake/internal/ingest/batch"
	"github.com/tunelake/tunelake/internal/warehouse/domain"
	"github.com/tunelake/tunelake/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxLineBytes bounds one log line; user agents run long but never this long.
const maxLineBytes = 1 << 20

type Handler struct {
	repo domain.Repository
	log  *zap.Logger
}

func NewHandler(repo domain.Repository, log *zap.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

// Process ingests one activity log. A file that is empty or holds any
// undecodable line is rejected whole (one rejected unit) and the batch moves
// on. Retained NextSong events produce a time row, a user row when the user
// id is numeric, and a fact row; fact insert outcomes drive loaded/rejected.
func (h *Handler) Process(ctx context.Context, tx *gorm.DB, path string) batch.Counts {
	var c batch.Counts

	parsed, err := h.readEvents(path)
	if err != nil {
		h.log.Warn("skipping malformed log file", zap.String("path", path), zap.Error(err))
		c.Rejected++
		return c
	}

	retained := parsed[:0]
	for _, ev := range parsed {
		if ev.Page == PageNextSong {
			retained = append(retained, ev)
		}
	}
	if len(retained) == 0 {
		return c
	}
	c.Extracted += int64(len(retained))

	for _, ev := range retained {
		// Time rows dedupe on exact timestamp. A duplicate key from a
		// concurrent worker is the dedupe working; other insert failures are
		// tolerated without touching the counters.
		entry := DeriveTime(ev.TS)
		if err := h.repo.InsertTimeEntry(ctx, tx, &entry); err != nil && !db.IsDuplicateKeyErr(err) {
			h.log.Debug("time insert failed", zap.Time("start_time", entry.StartTime), zap.Error(err))
		}

		if id, ok := ev.UserID.AsUserID(); ok {
			user := &domain.User{
				UserID:    id,
				FirstName: deref(ev.FirstName),
				LastName:  deref(ev.LastName),
				Gender:    deref(ev.Gender),
				Level:     deref(ev.Level),
			}
			if err := h.repo.UpsertUser(ctx, tx, user); err != nil {
				h.log.Debug("user upsert failed", zap.Int64("user_id", id), zap.Error(err))
			}
		}

		if err := h.insertSongplay(ctx, tx, ev); err != nil {
			c.Rejected++
		} else {
			c.Loaded++
		}
	}

	return c
}

func (h *Handler) insertSongplay(ctx context.Context, tx *gorm.DB, ev Event) error {
	var songID, artistID *string
	if ev.Song != nil && ev.Artist != nil && ev.Length != nil {
		var err error
		songID, artistID, err = h.repo.ResolveSongArtist(ctx, tx, *ev.Song, *ev.Artist, *ev.Length)
		if err != nil {
			return err
		}
	}

	play := &domain.Songplay{
		SongplayID: uuid.NewString(),
		StartTime:  ev.StartTime(),
		Level:      ev.Level,
		SongID:     songID,
		ArtistID:   artistID,
		SessionID:  ev.SessionID,
		Location:   ev.Location,
		UserAgent:  ev.UserAgent,
	}
	if id, ok := ev.UserID.AsUserID(); ok {
		play.UserID = &id
	}

	return h.repo.UpsertSongplay(ctx, tx, play)
}

// readEvents parses the whole file up front so a malformed line rejects the
// file before any of it is written.
func (h *Handler) readEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var parsed []Event
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, err
		}
		parsed = append(parsed, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(parsed) == 0 {
		return nil, errEmptyFile
	}
	return parsed, nil
}

var errEmptyFile = errors.New("no events in file")

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
