package store

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/MHC32/momentum/internal/models"
)

func projectIDs(projects []models.Project) []string {
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestProjectUpsert(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		current  models.Project
		incoming models.Project
		wantErr  error
		wantName string
	}{
		{
			name:     "newer version",
			current:  models.Project{ID: "p1", Name: "old", Version: 2},
			incoming: models.Project{ID: "p1", Name: "new", Version: 3},
			wantName: "new",
		},
		{
			name:     "same version",
			current:  models.Project{ID: "p1", Name: "old", Version: 2},
			incoming: models.Project{ID: "p1", Name: "new", Version: 2},
			wantName: "new",
		},
		{
			name:     "older version",
			current:  models.Project{ID: "p1", Name: "old", Version: 4},
			incoming: models.Project{ID: "p1", Name: "new", Version: 3},
			wantErr:  ErrStaleSnapshot,
			wantName: "old",
		},
		{
			name:     "older timestamp",
			current:  models.Project{ID: "p1", Name: "old", UpdatedAt: base},
			incoming: models.Project{ID: "p1", Name: "new", UpdatedAt: base.Add(-time.Minute)},
			wantErr:  ErrStaleSnapshot,
			wantName: "old",
		},
		{
			name:     "unordered",
			current:  models.Project{ID: "p1", Name: "old", Version: 4},
			incoming: models.Project{ID: "p1", Name: "new"},
			wantName: "new",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewProjectStore()
			if err := s.Upsert(tt.current); err != nil {
				t.Fatal(err)
			}

			err := s.Upsert(tt.incoming)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			got, ok := s.Get("p1")
			if !ok || got.Name != tt.wantName {
				t.Errorf("Expected name %q, got %+v", tt.wantName, got)
			}
			if n := len(s.Projects()); n != 1 {
				t.Errorf("Expected one project, got %d", n)
			}
		})
	}
}

func TestProjectListOperations(t *testing.T) {
	t.Parallel()

	s := NewProjectStore()
	_ = s.Upsert(models.Project{ID: "p1"})
	_ = s.Upsert(models.Project{ID: "p2"})
	if got := projectIDs(s.Projects()); !reflect.DeepEqual(got, []string{"p2", "p1"}) {
		t.Errorf("Expected new projects first, got %v", got)
	}

	s.Remove("p2")
	s.Remove("missing")
	if got := projectIDs(s.Projects()); !reflect.DeepEqual(got, []string{"p1"}) {
		t.Errorf("Expected [p1], got %v", got)
	}

	fetched := []models.Project{{ID: "a"}, {ID: "b"}}
	s.Replace(fetched)
	fetched[0].Name = "changed by caller"
	if got, _ := s.Get("a"); got.Name != "" {
		t.Errorf("Expected replace to copy its input, got %q", got.Name)
	}
	if _, ok := s.Get("p1"); ok {
		t.Errorf("Expected p1 dropped by replace")
	}

	list := s.Projects()
	list[0].Name = "changed by reader"
	if got, _ := s.Get("a"); got.Name != "" {
		t.Errorf("Expected list to be a copy, got %q", got.Name)
	}

	s.Reset()
	if n := len(s.Projects()); n != 0 {
		t.Errorf("Expected empty store, got %d", n)
	}
}
