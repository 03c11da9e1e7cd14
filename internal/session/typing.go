package session

import (
	"sync"
	"time"
)

type typingRecord struct {
	Section   string
	UserName  string
	UpdatedAt time.Time
}

// ClearedTyping identifies one typing entry that was dropped, so the hub can
// broadcast the matching "not typing" indicator.
type ClearedTyping struct {
	ResumeID string
	UserID   string
	UserName string
	Section  string
}

// TypingTracker holds the server-side typing table: one record per
// (resume, user) while that user is typing. Records are refreshed by every
// setTyping event and dropped either explicitly (isTyping=false, disconnect)
// or by the idle sweep, so an indicator can never stick forever client-side.
type TypingTracker struct {
	mu      sync.Mutex
	entries map[string]map[string]typingRecord // resumeID -> userID -> record
	now     func() time.Time
}

func NewTypingTracker() *TypingTracker {
	return &TypingTracker{
		entries: make(map[string]map[string]typingRecord),
		now:     time.Now,
	}
}

// Set records or clears a user's typing state for one resume.
func (t *TypingTracker) Set(resumeID, userID, userName, section string, isTyping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	users, ok := t.entries[resumeID]
	if !isTyping {
		if ok {
			delete(users, userID)
			if len(users) == 0 {
				delete(t.entries, resumeID)
			}
		}
		return
	}
	if !ok {
		users = make(map[string]typingRecord)
		t.entries[resumeID] = users
	}
	users[userID] = typingRecord{Section: section, UserName: userName, UpdatedAt: t.now()}
}

// Active returns the users currently typing in one resume, for bringing a
// newly joined member up to date.
func (t *TypingTracker) Active(resumeID string) []ClearedTyping {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []ClearedTyping
	for userID, rec := range t.entries[resumeID] {
		out = append(out, ClearedTyping{ResumeID: resumeID, UserID: userID, UserName: rec.UserName, Section: rec.Section})
	}
	return out
}

// ClearUser drops the user's typing state in every resume and reports what
// was cleared. Part of the unconditional disconnect cleanup.
func (t *TypingTracker) ClearUser(userID string) []ClearedTyping {
	t.mu.Lock()
	defer t.mu.Unlock()
	var cleared []ClearedTyping
	for resumeID, users := range t.entries {
		rec, ok := users[userID]
		if !ok {
			continue
		}
		delete(users, userID)
		cleared = append(cleared, ClearedTyping{ResumeID: resumeID, UserID: userID, UserName: rec.UserName, Section: rec.Section})
		if len(users) == 0 {
			delete(t.entries, resumeID)
		}
	}
	return cleared
}

// SweepStale drops every record that has not been refreshed within ttl.
func (t *TypingTracker) SweepStale(ttl time.Duration) []ClearedTyping {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-ttl)
	var cleared []ClearedTyping
	for resumeID, users := range t.entries {
		for userID, rec := range users {
			if rec.UpdatedAt.After(cutoff) {
				continue
			}
			delete(users, userID)
			cleared = append(cleared, ClearedTyping{ResumeID: resumeID, UserID: userID, UserName: rec.UserName, Section: rec.Section})
		}
		if len(users) == 0 {
			delete(t.entries, resumeID)
		}
	}
	return cleared
}
