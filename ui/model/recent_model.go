package model

import (
	"fmt"
	"time"
)

// RecentEntry is one accepted line of the recent-detections log.
type RecentEntry struct {
	At   time.Time
	Text string
}

// String renders the entry as "[15:04:05] text".
func (e RecentEntry) String() string {
	return fmt.Sprintf("[%s] %s", e.At.Format("15:04:05"), e.Text)
}

// RecentLog keeps the newest log lines and drops any line arriving within the
// throttle window of the previously accepted one.
type RecentLog struct {
	limit    int
	throttle time.Duration
	last     time.Time
	entries  []RecentEntry
}

func NewRecentLog(limit int, throttle time.Duration) *RecentLog {
	if limit <= 0 {
		limit = 30
	}
	return &RecentLog{limit: limit, throttle: throttle}
}

// Add records text at now unless it is throttled. It reports whether the line was kept.
func (l *RecentLog) Add(text string, now time.Time) bool {
	if l == nil {
		return false
	}
	if !l.last.IsZero() && now.Sub(l.last) < l.throttle {
		return false
	}
	l.last = now
	l.entries = append(l.entries, RecentEntry{At: now, Text: text})
	if n := len(l.entries); n > l.limit {
		l.entries = append(l.entries[:0], l.entries[n-l.limit:]...)
	}
	return true
}

// Entries returns a copy of the kept lines, oldest first.
func (l *RecentLog) Entries() []RecentEntry {
	if l == nil {
		return nil
	}
	return append([]RecentEntry(nil), l.entries...)
}

func (l *RecentLog) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Clear drops every entry and the throttle reference. Called on session start.
func (l *RecentLog) Clear() {
	if l == nil {
		return
	}
	l.entries = l.entries[:0]
	l.last = time.Time{}
}
