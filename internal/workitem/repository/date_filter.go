package repository

import (
	"time"

	"gorm.io/gorm"

	"triage-backend/pkg/dates"
)

// DateFilter builds the source_date predicates for a (start, end) range, both
// ends optional. Now is injected so the today/recent shortcuts are testable.
//
// Policy, in priority order:
//  1. both bounds:   source_date present and within [start, end)
//  2. start only:
//     a. start is on the current UTC day: source_date OR created_at within
//        [start, start+24h) — an item ingested today shows up under "today"
//        even when its origin timestamp lags behind
//     b. start within the trailing 7 days: same fallback, widened to
//        [start, now+24h)
//     c. otherwise: source_date present and >= start
//  3. end only:      source_date present and < end
//  4. no bounds:     source_date present
//
// Items without a source date are visible only through the created_at fallback
// windows of 2a/2b; every other branch excludes them. This is the single date
// policy for all listing paths.
type DateFilter struct {
	Start *time.Time
	End   *time.Time
	Now   time.Time
}

type filterMode int

const (
	modeUnbounded filterMode = iota
	modeRange
	modeToday
	modeRecent
	modeFrom
	modeUntil
)

func (f DateFilter) mode() filterMode {
	switch {
	case f.Start != nil && f.End != nil:
		return modeRange
	case f.Start != nil:
		if dates.SameUTCDay(*f.Start, f.Now) {
			return modeToday
		}
		if f.Start.After(f.Now.Add(-7*24*time.Hour)) && !f.Start.After(f.Now) {
			return modeRecent
		}
		return modeFrom
	case f.End != nil:
		return modeUntil
	default:
		return modeUnbounded
	}
}

// window returns the fallback window for the today/recent shortcuts.
func (f DateFilter) window() (time.Time, time.Time) {
	start := *f.Start
	if f.mode() == modeToday {
		return start, start.Add(24 * time.Hour)
	}
	return start, f.Now.Add(24 * time.Hour)
}

// Scope applies the filter to a gorm query.
func (f DateFilter) Scope() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch f.mode() {
		case modeRange:
			return db.Where("source_date IS NOT NULL AND source_date >= ? AND source_date < ?", *f.Start, *f.End)
		case modeToday, modeRecent:
			lo, hi := f.window()
			return db.Where("(source_date >= ? AND source_date < ?) OR (created_at >= ? AND created_at < ?)", lo, hi, lo, hi)
		case modeFrom:
			return db.Where("source_date IS NOT NULL AND source_date >= ?", *f.Start)
		case modeUntil:
			return db.Where("source_date IS NOT NULL AND source_date < ?", *f.End)
		default:
			return db.Where("source_date IS NOT NULL")
		}
	}
}

// Matches is the in-process equivalent of Scope, used to verify the branch
// semantics against concrete items.
func (f DateFilter) Matches(sourceDate *time.Time, createdAt time.Time) bool {
	inWindow := func(t time.Time, lo, hi time.Time) bool {
		return !t.Before(lo) && t.Before(hi)
	}
	switch f.mode() {
	case modeRange:
		return sourceDate != nil && inWindow(*sourceDate, *f.Start, *f.End)
	case modeToday, modeRecent:
		lo, hi := f.window()
		if sourceDate != nil && inWindow(*sourceDate, lo, hi) {
			return true
		}
		return inWindow(createdAt, lo, hi)
	case modeFrom:
		return sourceDate != nil && !sourceDate.Before(*f.Start)
	case modeUntil:
		return sourceDate != nil && sourceDate.Before(*f.End)
	default:
		return sourceDate != nil
	}
}
