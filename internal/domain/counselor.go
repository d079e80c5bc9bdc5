package domain

import (
	"strings"
	"time"
)

// Availability is the operator-set toggle, independent of presence.
type Availability string

const (
	AvailabilityActive   Availability = "ACTIVE"
	AvailabilityInactive Availability = "INACTIVE"
)

// Counselor is read from the counselor directory. Only Presence is owned here.
type Counselor struct {
	ID           string
	Name         string
	Email        string
	Availability Availability
	MaxCapacity  int
	Expertise    []string
	Languages    []string
	Timezone     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAvailable reports the operator toggle.
func (c *Counselor) IsAvailable() bool {
	return c != nil && c.Availability == AvailabilityActive
}

// Capacity returns MaxCapacity floored at 1.
func (c *Counselor) Capacity() int {
	if c == nil || c.MaxCapacity < 1 {
		return 1
	}
	return c.MaxCapacity
}

// SpeaksLanguage matches case-insensitively.
func (c *Counselor) SpeaksLanguage(lang string) bool {
	lang = NormalizeTag(lang)
	if lang == "" {
		return false
	}
	for _, l := range c.Languages {
		if NormalizeTag(l) == lang {
			return true
		}
	}
	return false
}

// ExpertiseOverlap counts required tags the counselor has.
func (c *Counselor) ExpertiseOverlap(required []string) int {
	if len(required) == 0 || len(c.Expertise) == 0 {
		return 0
	}
	have := make(map[string]struct{}, len(c.Expertise))
	for _, e := range c.Expertise {
		have[NormalizeTag(e)] = struct{}{}
	}
	seen := make(map[string]struct{}, len(required))
	count := 0
	for _, r := range required {
		key := NormalizeTag(r)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := have[key]; ok {
			count++
		}
	}
	return count
}

// Location resolves the reporting timezone, falling back to fallback.
func (c *Counselor) Location(fallback *time.Location) *time.Location {
	if c != nil && c.Timezone != "" {
		if loc, err := time.LoadLocation(c.Timezone); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.UTC
	}
	return fallback
}

// NormalizeTag lowercases and trims a language or expertise tag.
func NormalizeTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
