package memory

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/counselor-presence/internal/domain"
)

// Seed is the YAML fixture format used to populate a dev-mode store.
type Seed struct {
	Counselors []SeedCounselor `yaml:"counselors"`
	WorkItems  []SeedWorkItem  `yaml:"work_items"`
}

// SeedCounselor is one directory entry.
type SeedCounselor struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Email        string   `yaml:"email"`
	Availability string   `yaml:"availability"` // defaults to ACTIVE
	MaxCapacity  int      `yaml:"max_capacity"`
	Expertise    []string `yaml:"expertise"`
	Languages    []string `yaml:"languages"`
	Timezone     string   `yaml:"timezone"`
}

// SeedWorkItem is one lead or session.
type SeedWorkItem struct {
	ID                string   `yaml:"id"`
	Kind              string   `yaml:"kind"` // LEAD or SESSION
	Owner             string   `yaml:"owner"`
	Status            string   `yaml:"status"`
	Title             string   `yaml:"title"`
	PreferredLanguage string   `yaml:"preferred_language"`
	RequiredExpertise []string `yaml:"required_expertise"`
	LeadID            string   `yaml:"lead_id"`
}

// LoadSeedFile parses path and applies it to s.
func (s *Store) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return s.ApplySeed(seed)
}

// ApplySeed validates the fixture and inserts its entries. Nothing is written
// when any entry is invalid.
func (s *Store) ApplySeed(seed Seed) error {
	counselors := make([]domain.Counselor, 0, len(seed.Counselors))
	known := make(map[string]struct{}, len(seed.Counselors))
	for i, c := range seed.Counselors {
		if c.ID == "" {
			return fmt.Errorf("counselor %d: id is required", i)
		}
		availability := domain.Availability(strings.ToUpper(c.Availability))
		switch availability {
		case "":
			availability = domain.AvailabilityActive
		case domain.AvailabilityActive, domain.AvailabilityInactive:
		default:
			return fmt.Errorf("counselor %s: unknown availability %q", c.ID, c.Availability)
		}
		known[c.ID] = struct{}{}
		counselors = append(counselors, domain.Counselor{
			ID:           c.ID,
			Name:         c.Name,
			Email:        c.Email,
			Availability: availability,
			MaxCapacity:  c.MaxCapacity,
			Expertise:    c.Expertise,
			Languages:    c.Languages,
			Timezone:     c.Timezone,
		})
	}

	items := make([]domain.WorkItem, 0, len(seed.WorkItems))
	for i, w := range seed.WorkItems {
		if w.ID == "" {
			return fmt.Errorf("work item %d: id is required", i)
		}
		item := domain.WorkItem{
			ID:                w.ID,
			Kind:              domain.WorkItemKind(strings.ToUpper(w.Kind)),
			OwnerID:           w.Owner,
			Status:            strings.ToUpper(w.Status),
			Title:             w.Title,
			PreferredLanguage: w.PreferredLanguage,
			RequiredExpertise: w.RequiredExpertise,
			LeadID:            w.LeadID,
		}
		switch item.Kind {
		case domain.WorkItemLead:
			if item.Status == "" {
				item.Status = domain.LeadStatusNew
			}
		case domain.WorkItemSession:
			if item.Status == "" {
				item.Status = domain.SessionStatusScheduled
			}
		default:
			return fmt.Errorf("work item %s: unknown kind %q", w.ID, w.Kind)
		}
		if item.OwnerID != "" {
			if _, ok := known[item.OwnerID]; !ok {
				return fmt.Errorf("work item %s: owner %s is not a seeded counselor", w.ID, item.OwnerID)
			}
		}
		items = append(items, item)
	}

	for _, c := range counselors {
		s.PutCounselor(c)
	}
	for _, item := range items {
		s.PutWorkItem(item)
	}
	return nil
}
