package payload

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"techtrack/internal/domain"
)

// MaxTechnologies caps a single import batch.
const MaxTechnologies = 1000

// ErrInvalid wraps every validation failure so callers can map the whole
// class to one outcome (HTTP 400) while the message stays specific.
var ErrInvalid = errors.New("invalid payload")

// Stats is the aggregate summary returned for a valid payload. It is a
// derived display value, never persisted.
type Stats struct {
	Total          int `json:"total"`
	Categories     int `json:"categories"`
	Difficulties   int `json:"difficulties"`
	Statuses       int `json:"statuses"`
	TotalResources int `json:"totalResources"`
}

// Validate checks a payload before it is allowed anywhere near the
// store. The batch is accepted or rejected as a whole; the first failure
// wins and its reason names the offending entry and field.
func Validate(p Payload) (Stats, error) {
	if p.Technologies == nil {
		return Stats{}, fmt.Errorf("%w: missing required field \"technologies\"", ErrInvalid)
	}
	if len(p.Technologies) > MaxTechnologies {
		return Stats{}, fmt.Errorf("%w: too many technologies (maximum %d)", ErrInvalid, MaxTechnologies)
	}

	for i, tech := range p.Technologies {
		if err := validateTechnology(tech); err != nil {
			return Stats{}, fmt.Errorf("%w: technology #%d: %s", ErrInvalid, i+1, err)
		}
	}

	if dups := duplicateIDs(p.Technologies); len(dups) > 0 {
		return Stats{}, fmt.Errorf("%w: duplicate technology ids: %s", ErrInvalid, joinIDs(dups))
	}

	return buildStats(p.Technologies), nil
}

func validateTechnology(tech Technology) error {
	if tech.ID <= 0 {
		return fmt.Errorf("field \"id\" must be a positive integer")
	}
	if strings.TrimSpace(tech.Title) == "" {
		return fmt.Errorf("field \"title\" must be a non-empty string")
	}
	if !domain.Category(tech.Category).Valid() {
		return fmt.Errorf("invalid category %q (valid: %s)", tech.Category, categoryList())
	}
	if !domain.Difficulty(tech.Difficulty).Valid() {
		return fmt.Errorf("invalid difficulty %q (valid: %s)", tech.Difficulty, difficultyList())
	}
	if !domain.Status(tech.Status).Valid() {
		return fmt.Errorf("invalid status %q (valid: %s)", tech.Status, statusList())
	}
	if tech.Deadline != nil && *tech.Deadline != "" {
		if _, err := parseDate(*tech.Deadline); err != nil {
			return fmt.Errorf("field \"deadline\" contains an invalid date")
		}
	}
	if tech.CreatedAt != "" {
		if _, err := parseDate(tech.CreatedAt); err != nil {
			return fmt.Errorf("field \"createdAt\" contains an invalid date")
		}
	}
	for j, res := range tech.Resources {
		if err := validateResource(res); err != nil {
			return fmt.Errorf("resource #%d: %s", j+1, err)
		}
	}
	return nil
}

func validateResource(res Resource) error {
	if strings.TrimSpace(res.Title) == "" {
		return fmt.Errorf("field \"title\" must be a non-empty string")
	}
	if !validURL(res.URL) {
		return fmt.Errorf("field \"url\" must be a valid URL")
	}
	if !domain.ResourceType(res.Type).Valid() {
		return fmt.Errorf("invalid resource type %q (valid: %s)", res.Type, resourceTypeList())
	}
	return nil
}

func validURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func duplicateIDs(techs []Technology) []int64 {
	seen := make(map[int64]int, len(techs))
	for _, tech := range techs {
		seen[tech.ID]++
	}

	var dups []int64
	for id, count := range seen {
		if count > 1 {
			dups = append(dups, id)
		}
	}
	sort.Slice(dups, func(i, j int) bool { return dups[i] < dups[j] })
	return dups
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return strings.Join(parts, ", ")
}

func buildStats(techs []Technology) Stats {
	categories := make(map[string]bool)
	difficulties := make(map[string]bool)
	statuses := make(map[string]bool)
	resources := 0

	for _, tech := range techs {
		categories[tech.Category] = true
		difficulties[tech.Difficulty] = true
		statuses[tech.Status] = true
		resources += len(tech.Resources)
	}

	return Stats{
		Total:          len(techs),
		Categories:     len(categories),
		Difficulties:   len(difficulties),
		Statuses:       len(statuses),
		TotalResources: resources,
	}
}

func categoryList() string {
	parts := make([]string, 0, 6)
	for _, c := range domain.Categories() {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ", ")
}

func difficultyList() string {
	parts := make([]string, 0, 4)
	for _, d := range domain.Difficulties() {
		parts = append(parts, string(d))
	}
	return strings.Join(parts, ", ")
}

func statusList() string {
	parts := make([]string, 0, 4)
	for _, s := range domain.Statuses() {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ", ")
}

func resourceTypeList() string {
	parts := make([]string, 0, 6)
	for _, r := range domain.ResourceTypes() {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ", ")
}
