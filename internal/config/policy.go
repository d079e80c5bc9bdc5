package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/counselor-presence/internal/domain"
)

// PolicyFile is the optional YAML override for presence thresholds and the
// auto-reassignment policy. Zero values leave the env-derived setting alone.
type PolicyFile struct {
	Thresholds   ThresholdPolicy    `yaml:"thresholds"`
	Reassignment ReassignmentPolicy `yaml:"reassignment"`
}

// ThresholdPolicy overrides presence timings.
type ThresholdPolicy struct {
	Idle         time.Duration `yaml:"idle"`          // e.g. "15m"
	Offline      time.Duration `yaml:"offline"`       // e.g. "30m"
	Heartbeat    time.Duration `yaml:"heartbeat"`     // e.g. "2m"
	ScanInterval time.Duration `yaml:"scan_interval"` // e.g. "5m"
	Debounce     time.Duration `yaml:"debounce"`
	CreditCap    time.Duration `yaml:"credit_cap"`
	Timezone     string        `yaml:"timezone"`
}

// ReassignmentPolicy overrides the alert-driven policy.
type ReassignmentPolicy struct {
	ThresholdStatus string `yaml:"threshold_status"` // AWAY or OFFLINE
	Auto            *bool  `yaml:"auto"`
	MaxItemsPerScan int    `yaml:"max_items_per_scan"`
}

// LoadPolicyFile parses a YAML policy file.
func LoadPolicyFile(path string) (*PolicyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	var policy PolicyFile
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	return &policy, nil
}

// Apply copies set fields onto cfg.
func (p *PolicyFile) Apply(cfg *PresenceConfig) {
	if p == nil || cfg == nil {
		return
	}
	t := p.Thresholds
	if t.Idle > 0 {
		cfg.IdleAfter = t.Idle
	}
	if t.Offline > 0 {
		cfg.OfflineAfter = t.Offline
	}
	if t.Heartbeat > 0 {
		cfg.HeartbeatInterval = t.Heartbeat
	}
	if t.ScanInterval > 0 {
		cfg.ScanInterval = t.ScanInterval
	}
	if t.Debounce > 0 {
		cfg.DebounceWindow = t.Debounce
	}
	if t.CreditCap > 0 {
		cfg.ActivityCreditCap = t.CreditCap
	}
	if t.Timezone != "" {
		cfg.DefaultTimezone = t.Timezone
	}

	r := p.Reassignment
	if r.ThresholdStatus != "" {
		cfg.ReassignThreshold = domain.PresenceStatus(strings.ToUpper(r.ThresholdStatus))
	}
	if r.Auto != nil {
		cfg.AutoReassign = *r.Auto
	}
	if r.MaxItemsPerScan > 0 {
		cfg.AutoReassignMaxItems = r.MaxItemsPerScan
	}
}
