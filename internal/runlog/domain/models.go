package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Run statuses. A run moves RUNNING -> SUCCESS or RUNNING -> FAILED exactly
// once and is never re-opened.
const (
	StatusRunning = "RUNNING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// MaxErrorLen bounds the persisted error message so a storage failure cannot
// cascade into a logging failure.
const MaxErrorLen = 5000

// RunLog is one pipeline-stage invocation's audit row.
type RunLog struct {
	LogID         snowflake.ID `gorm:"column:log_id;primaryKey;autoIncrement:false"`
	PackageName   string       `gorm:"column:package_name;size:255"`
	StartTime     time.Time    `gorm:"column:start_time"`
	EndTime       *time.Time   `gorm:"column:end_time"`
	Status        string       `gorm:"column:status;size:50"`
	RowsExtracted int64        `gorm:"column:rows_extracted"`
	RowsLoaded    int64        `gorm:"column:rows_loaded"`
	RowsRejected  int64        `gorm:"column:rows_rejected"`
	ErrorMessage  string       `gorm:"column:error_message;type:text"`
}

func (RunLog) TableName() string { return "run_logs" }
