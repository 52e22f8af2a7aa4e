package store

import "time"

// Table names for the two history tables.
const (
	TableDaily   = "daily_quests"
	TableArchive = "archive_quests"
)

// Run records one pipeline invocation for a date.
type Run struct {
	ID         string
	Date       string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Rounds     int
	Attempts   int
	Error      string
}

// Run statuses.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
	RunSkipped   = "skipped"
)

// metaLastArchive holds the cutoff date of the latest archive rotation.
const metaLastArchive = "last_archive_cutoff"

// Stats summarizes what the store holds.
type Stats struct {
	DailyCount   int
	ArchiveCount int
	Dates        int
	LatestDate   string
	SizeBytes    int64

	// LastArchiveCutoff is the cutoff of the most recent ArchiveBefore, or "".
	LastArchiveCutoff string
}
