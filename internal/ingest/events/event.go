package events

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/tunelake/tunelake/internal/warehouse/domain"
)

// PageNextSong marks a listening event; everything else in the activity log
// (Home, Login, ...) is discarded.
const PageNextSong = "NextSong"

// FlexString decodes a JSON value that sources emit as either a string or a
// number. The log generator writes userId as a quoted string, older captures
// carry it bare.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// AsUserID returns the numeric user id, or ok=false when the value is not a
// non-negative integer string.
func (f FlexString) AsUserID() (int64, bool) {
	if f == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// Event is one line of an activity log. Nullable fields stay pointers so a
// missing value lands as NULL rather than a zero.
type Event struct {
	Page      string     `json:"page"`
	TS        int64      `json:"ts"`
	UserID    FlexString `json:"userId"`
	FirstName *string    `json:"firstName"`
	LastName  *string    `json:"lastName"`
	Gender    *string    `json:"gender"`
	Level     *string    `json:"level"`
	Song      *string    `json:"song"`
	Artist    *string    `json:"artist"`
	Length    *float64   `json:"length"`
	SessionID *int64     `json:"sessionId"`
	Location  *string    `json:"location"`
	UserAgent *string    `json:"userAgent"`
}

// StartTime converts the epoch-millisecond timestamp to UTC.
func (e Event) StartTime() time.Time {
	return time.UnixMilli(e.TS).UTC()
}

// DeriveTime breaks the event timestamp into the time dimension: UTC calendar
// fields with ISO week numbering and Monday as weekday 0.
func DeriveTime(ms int64) domain.TimeEntry {
	t := time.UnixMilli(ms).UTC()
	_, week := t.ISOWeek()
	return domain.TimeEntry{
		StartTime: t,
		Hour:      t.Hour(),
		Day:       t.Day(),
		Week:      week,
		Month:     int(t.Month()),
		Year:      t.Year(),
		Weekday:   (int(t.Weekday()) + 6) % 7,
	}
}
