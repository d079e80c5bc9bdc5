package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spec-kit/counselor-presence/internal/domain"
	"github.com/spec-kit/counselor-presence/internal/repository"
)

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := `
counselors:
  - id: c1
    name: Asha
    languages: [hindi, english]
    max_capacity: 4
  - id: c2
    name: Ben
    availability: inactive
work_items:
  - id: lead-1
    kind: lead
    owner: c1
    preferred_language: hindi
  - id: sess-1
    kind: session
    owner: c1
    lead_id: lead-1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore()
	if err := s.LoadSeedFile(path); err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}

	ctx := context.Background()
	c1, err := s.Counselors().GetByID(ctx, "c1")
	if err != nil {
		t.Fatalf("GetByID c1: %v", err)
	}
	if c1.Availability != domain.AvailabilityActive {
		t.Errorf("c1 availability = %s, want ACTIVE default", c1.Availability)
	}
	c2, _ := s.Counselors().GetByID(ctx, "c2")
	if c2.Availability != domain.AvailabilityInactive {
		t.Errorf("c2 availability = %s, want INACTIVE", c2.Availability)
	}

	items, err := s.WorkItems().ListOwnedBy(ctx, "c1")
	if err != nil {
		t.Fatalf("ListOwnedBy: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("owned items = %d, want 2", len(items))
	}
	sess, _ := s.WorkItems().GetByID(ctx, "sess-1")
	if sess.Status != domain.SessionStatusScheduled {
		t.Errorf("session status = %s, want SCHEDULED default", sess.Status)
	}
}

func TestApplySeed_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		seed Seed
	}{
		{"missing counselor id", Seed{Counselors: []SeedCounselor{{Name: "x"}}}},
		{"bad availability", Seed{Counselors: []SeedCounselor{{ID: "c1", Availability: "busy"}}}},
		{"bad kind", Seed{WorkItems: []SeedWorkItem{{ID: "w1", Kind: "ticket"}}}},
		{"unknown owner", Seed{WorkItems: []SeedWorkItem{{ID: "w1", Kind: "LEAD", Owner: "ghost"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			seed := tt.seed
			seed.Counselors = append([]SeedCounselor{{ID: "ok"}}, seed.Counselors...)
			if err := s.ApplySeed(seed); err == nil {
				t.Fatal("expected error")
			}
			if _, err := s.Counselors().GetByID(context.Background(), "ok"); err != repository.ErrNotFound {
				t.Errorf("partial seed applied: err = %v, want ErrNotFound", err)
			}
		})
	}
}
