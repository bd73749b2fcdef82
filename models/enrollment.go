package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

const (
	KeyUnpostedCurrentScore = "unposted_current_score"
	KeyFinalScore           = "final_score"
	KeyUnpostedFinalScore   = "unposted_final_score"
	KeyCurrentScore         = "current_score"
	KeyOverrideScore        = "override_score"
)

type Enrollment struct {
	ID              int    `json:"id"`
	UserID          int    `json:"user_id"`
	CourseSectionID int    `json:"course_section_id"`
	Type            string `json:"type"`
	EnrollmentState string `json:"enrollment_state"`
	Grades          Grades `json:"grades"`
	User            User   `json:"user"`
}

// Grades is the partial grade object Canvas attaches to an enrollment. Which
// keys Canvas sends depends on the caller's role, so the set of keys seen on
// the wire is kept next to the values.
type Grades struct {
	UnpostedCurrentScore *float64 `json:"unposted_current_score,omitempty"`
	FinalScore           *float64 `json:"final_score,omitempty"`
	UnpostedFinalScore   *float64 `json:"unposted_final_score,omitempty"`
	CurrentScore         *float64 `json:"current_score,omitempty"`
	OverrideScore        *float64 `json:"override_score,omitempty"`

	present map[string]bool
}

func (g *Grades) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("error parsing grades: %w", err)
	}

	type plain Grades
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("error parsing grades: %w", err)
	}

	*g = Grades(p)
	g.present = make(map[string]bool, len(raw))
	for k := range raw {
		g.present[k] = true
	}
	return nil
}

// Has reports whether key was part of the grades object. For values built in
// code rather than decoded, a key is present when its slot is set.
func (g Grades) Has(key string) bool {
	if g.present != nil {
		return g.present[key]
	}
	return g.slot(key) != nil
}

// Keys lists the keys Canvas sent, for diagnosing permission gaps.
func (g Grades) Keys() []string {
	keys := make([]string, 0, len(g.present))
	for _, k := range []string{KeyUnpostedCurrentScore, KeyFinalScore, KeyUnpostedFinalScore, KeyCurrentScore, KeyOverrideScore} {
		if g.Has(k) {
			keys = append(keys, k)
		}
	}
	var extra []string
	for k := range g.present {
		if !isScoreKey(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

func (g Grades) slot(key string) *float64 {
	switch key {
	case KeyUnpostedCurrentScore:
		return g.UnpostedCurrentScore
	case KeyFinalScore:
		return g.FinalScore
	case KeyUnpostedFinalScore:
		return g.UnpostedFinalScore
	case KeyCurrentScore:
		return g.CurrentScore
	case KeyOverrideScore:
		return g.OverrideScore
	}
	return nil
}

func isScoreKey(key string) bool {
	switch key {
	case KeyUnpostedCurrentScore, KeyFinalScore, KeyUnpostedFinalScore, KeyCurrentScore, KeyOverrideScore:
		return true
	}
	return false
}
