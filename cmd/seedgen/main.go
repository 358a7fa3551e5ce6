// seedgen writes a synthetic staging dataset: a handful of track containers
// and NextSong event logs matching them, enough for an end-to-end local run.
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/tunelake/tunelake/internal/config"
	"github.com/tunelake/tunelake/internal/ingest/container"
	"go.uber.org/zap"
)

const (
	numTracks     = 20
	numLogFiles   = 5
	eventsPerFile = 50
)

type seededTrack struct {
	songID   string
	title    string
	artistID string
	artist   string
	duration float64
}

func main() {
	cfg := config.Load()
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	tracks, err := writeTracks(cfg.SongDataDir)
	if err != nil {
		logger.Fatal("write track containers", zap.Error(err))
	}
	logger.Info("track containers written",
		zap.Int("count", len(tracks)),
		zap.String("dir", cfg.SongDataDir),
	)

	if err := writeLogs(cfg.LogDataDir, tracks); err != nil {
		logger.Fatal("write event logs", zap.Error(err))
	}
	logger.Info("event logs written",
		zap.Int("files", numLogFiles),
		zap.String("dir", cfg.LogDataDir),
	)
}

func writeTracks(dir string) ([]seededTrack, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	tracks := make([]seededTrack, 0, numTracks)
	for i := 0; i < numTracks; i++ {
		track := seededTrack{
			songID:   fmt.Sprintf("SOSEED%012d", i),
			title:    fmt.Sprintf("Seeded Song %d", i),
			artistID: fmt.Sprintf("ARSEED%012d", i%5),
			artist:   fmt.Sprintf("Seeded Artist %d", i%5),
			duration: 100 + rand.Float64()*200,
		}

		b := container.NewBuilder().
			PutStrings("metadata/songs", "song_id", track.songID).
			PutStrings("metadata/songs", "title", track.title).
			PutStrings("metadata/songs", "artist_id", track.artistID).
			PutStrings("metadata/songs", "artist_name", track.artist).
			PutStrings("metadata/songs", "artist_location", "Hanoi, Vietnam").
			PutFloats("metadata/songs", "artist_latitude", 21.0278).
			PutFloats("metadata/songs", "artist_longitude", 105.8342).
			PutInts("metadata/songs", "year", int64(1990+i%30)).
			PutFloats("analysis/songs", "duration", track.duration)

		path := filepath.Join(dir, track.songID+".trk")
		if err := b.WriteFile(path); err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func writeLogs(dir string, tracks []seededTrack) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for day := 1; day <= numLogFiles; day++ {
		path := filepath.Join(dir, fmt.Sprintf("2018-11-%02d-events.json", day))
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(f)

		for i := 0; i < eventsPerFile; i++ {
			track := tracks[rand.Intn(len(tracks))]
			event := map[string]interface{}{
				"artist":        track.artist,
				"auth":          "Logged In",
				"firstName":     "User",
				"gender":        pick("M", "F"),
				"itemInSession": rand.Intn(50),
				"lastName":      fmt.Sprintf("Seed%d", rand.Intn(100)),
				"length":        track.duration,
				"level":         pick("free", "paid"),
				"location":      "Hanoi, Vietnam",
				"method":        "PUT",
				"page":          "NextSong",
				"registration":  1541000000000,
				"sessionId":     100 + rand.Intn(900),
				"song":          track.title,
				"status":        200,
				"ts":            time.Now().UnixMilli(),
				"userId":        fmt.Sprintf("%d", 1+rand.Intn(20)),
				"userAgent":     "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
			}
			if err := enc.Encode(event); err != nil {
				f.Close()
				return err
			}
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func pick(options ...string) string {
	return options[rand.Intn(len(options))]
}
