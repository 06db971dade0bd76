package catalog

import (
	"testing"

	"techtrack/internal/domain"
)

func TestMapTechnologiesSkipsMalformedEntries(t *testing.T) {
	file := File{
		Technologies: []TechnologyProps{
			{ID: 1, Title: "React", Category: "frontend", Difficulty: "beginner"},
			{ID: 0, Title: "No ID", Category: "frontend", Difficulty: "beginner"},
			{ID: 2, Title: "", Category: "backend", Difficulty: "beginner"},
			{ID: 1, Title: "Duplicate", Category: "backend", Difficulty: "beginner"},
			{ID: 3, Title: "Docker", Category: "devops", Difficulty: "intermediate"},
		},
	}

	techs, err := NewMapper().MapTechnologies(file)
	if err != nil {
		t.Fatalf("MapTechnologies() failed: %v", err)
	}
	if len(techs) != 2 {
		t.Fatalf("MapTechnologies() kept %d entries, want 2", len(techs))
	}
	if techs[0].Title != "React" || techs[1].Title != "Docker" {
		t.Errorf("MapTechnologies() kept wrong entries: %q, %q", techs[0].Title, techs[1].Title)
	}
}

func TestMapTechnologiesDefaultsInvalidEnums(t *testing.T) {
	file := File{
		Technologies: []TechnologyProps{
			{ID: 1, Title: "Thing", Category: "cloud", Difficulty: "impossible", Status: "paused"},
		},
	}

	techs, err := NewMapper().MapTechnologies(file)
	if err != nil {
		t.Fatalf("MapTechnologies() failed: %v", err)
	}

	tech := techs[0]
	if tech.Category != domain.CategoryOther {
		t.Errorf("category = %v, want other", tech.Category)
	}
	if tech.Difficulty != domain.DifficultyBeginner {
		t.Errorf("difficulty = %v, want beginner", tech.Difficulty)
	}
	if tech.Status != domain.StatusNotStarted {
		t.Errorf("status = %v, want not-started", tech.Status)
	}
}

func TestMapTechnologiesEmptyCatalogIsAnError(t *testing.T) {
	file := File{
		Technologies: []TechnologyProps{
			{ID: 0, Title: "all invalid"},
		},
	}

	if _, err := NewMapper().MapTechnologies(file); err == nil {
		t.Errorf("MapTechnologies() of all-invalid catalog = nil, want error")
	}
}

func TestFallbackCatalogIsWellFormed(t *testing.T) {
	techs := Fallback()
	if len(techs) == 0 {
		t.Fatalf("Fallback() is empty")
	}

	seen := make(map[int64]bool)
	for _, tech := range techs {
		if tech.ID <= 0 || tech.Title == "" {
			t.Errorf("fallback entry malformed: %+v", tech)
		}
		if seen[tech.ID] {
			t.Errorf("fallback has duplicate id %d", tech.ID)
		}
		seen[tech.ID] = true
		if !tech.Category.Valid() || !tech.Difficulty.Valid() || !tech.Status.Valid() {
			t.Errorf("fallback entry %d has invalid enums", tech.ID)
		}
		for _, res := range tech.Resources {
			if res.URL == "" || !res.Type.Valid() {
				t.Errorf("fallback entry %d has malformed resource: %+v", tech.ID, res)
			}
		}
	}
}
