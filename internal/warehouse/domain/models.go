package domain

import "time"

// Artist is a dimension row keyed by the source-provided artist identifier.
type Artist struct {
	ArtistID  string   `gorm:"column:artist_id;primaryKey;size:255"`
	Name      string   `gorm:"column:name;size:255"`
	Location  string   `gorm:"column:location;size:255"`
	Latitude  *float64 `gorm:"column:latitude"`
	Longitude *float64 `gorm:"column:longitude"`
}

func (Artist) TableName() string { return "artists" }

// Song is a dimension row keyed by the source-provided song identifier.
// ArtistID references artists; the artist row must be written first.
type Song struct {
	SongID   string   `gorm:"column:song_id;primaryKey;size:255"`
	Title    string   `gorm:"column:title;size:255"`
	ArtistID string   `gorm:"column:artist_id;size:255;index"`
	Year     *int     `gorm:"column:year"`
	Duration *float64 `gorm:"column:duration"`
}

func (Song) TableName() string { return "songs" }

// User is a dimension row for listeners whose source id is numeric.
type User struct {
	UserID    int64  `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	FirstName string `gorm:"column:first_name;size:255"`
	LastName  string `gorm:"column:last_name;size:255"`
	Gender    string `gorm:"column:gender;size:10"`
	Level     string `gorm:"column:level;size:50"`
}

func (User) TableName() string { return "users" }

// TimeEntry is the time dimension: one row per distinct event timestamp at
// millisecond precision. Weekday counts Monday as 0.
type TimeEntry struct {
	StartTime time.Time `gorm:"column:start_time;primaryKey"`
	Hour      int       `gorm:"column:hour"`
	Day       int       `gorm:"column:day"`
	Week      int       `gorm:"column:week"`
	Month     int       `gorm:"column:month"`
	Year      int       `gorm:"column:year"`
	Weekday   int       `gorm:"column:weekday"`
}

func (TimeEntry) TableName() string { return "time" }

// Songplay is the fact row. Song and artist references stay NULL when the
// natural-key resolver finds no match.
type Songplay struct {
	SongplayID string    `gorm:"column:songplay_id;primaryKey;size:36"`
	StartTime  time.Time `gorm:"column:start_time"`
	UserID     *int64    `gorm:"column:user_id"`
	Level      *string   `gorm:"column:level;size:50"`
	SongID     *string   `gorm:"column:song_id;size:255"`
	ArtistID   *string   `gorm:"column:artist_id;size:255"`
	SessionID  *int64    `gorm:"column:session_id"`
	Location   *string   `gorm:"column:location;size:255"`
	UserAgent  *string   `gorm:"column:user_agent;size:512"`
}

func (Songplay) TableName() string { return "songplays" }
