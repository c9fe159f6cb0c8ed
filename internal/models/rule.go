package models

import (
	"encoding/json"
	"fmt"
)

// RuleType tags the payload carried by a Rule.
type RuleType string

const (
	RuleLunchWindow        RuleType = "lunch_window"
	RuleMaxLecturesPerDay  RuleType = "max_lectures_per_day"
	RuleGapPreference      RuleType = "gap_preference"
	RuleForbiddenTimePairs RuleType = "forbidden_time_pairs"
)

// GapMode selects how gap penalties are applied.
type GapMode string

const (
	GapMinimize GapMode = "minimize"
	GapAllow    GapMode = "allow"
)

// LunchWindowRule penalises sessions whose span intersects [StartSlot, EndSlot).
type LunchWindowRule struct {
	StartSlot int `json:"start_slot"`
	EndSlot   int `json:"end_slot"`
	Penalty   int `json:"penalty"`
}

// MaxLecturesPerDayRule penalises lecture sessions beyond MaxCount on one day,
// per section, or across all sections when ApplyToAllSections is set.
type MaxLecturesPerDayRule struct {
	MaxCount           int    `json:"max_count"`
	Penalty            int    `json:"penalty"`
	SectionID          string `json:"section_id"`
	ApplyToAllSections bool   `json:"apply_to_all_sections"`
}

// GapPreferenceRule scores idle slots between a teacher's or section's
// sessions on the same day. In minimize mode every gap slot costs Weight, up
// to MaxGapHours; in allow mode only gap slots beyond MaxGapHours cost.
type GapPreferenceRule struct {
	Mode        GapMode `json:"mode"`
	MaxGapHours int     `json:"max_gap_hours"`
	Weight      int     `json:"weight"`
}

// ForbiddenTimePair excludes a (day, slot) for every course whose name
// contains CoursePattern.
type ForbiddenTimePair struct {
	CoursePattern string `json:"course_pattern"`
	Day           int    `json:"day"`
	Slot          int    `json:"slot"`
}

// ForbiddenTimePairsRule carries the excluded combinations.
type ForbiddenTimePairsRule struct {
	Pairs []ForbiddenTimePair `json:"pairs"`
}

// Rule is a tagged union over the four rule payloads. Exactly one payload
// field matching Type is non-nil after decoding.
type Rule struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Type RuleType `json:"rule_type"`

	LunchWindow    *LunchWindowRule        `json:"-"`
	MaxLectures    *MaxLecturesPerDayRule  `json:"-"`
	GapPreference  *GapPreferenceRule      `json:"-"`
	ForbiddenPairs *ForbiddenTimePairsRule `json:"-"`
}

type ruleEnvelope struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Type     RuleType        `json:"rule_type"`
	RuleData json.RawMessage `json:"rule_data"`
}

// UnmarshalJSON decodes the wire form {id, name, rule_type, rule_data} into
// the typed payload for rule_type.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var env ruleEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	r.ID = env.ID
	r.Name = env.Name
	r.Type = env.Type
	if len(env.RuleData) == 0 {
		env.RuleData = json.RawMessage(`{}`)
	}

	switch env.Type {
	case RuleLunchWindow:
		payload := &LunchWindowRule{}
		if err := json.Unmarshal(env.RuleData, payload); err != nil {
			return fmt.Errorf("decode lunch_window payload: %w", err)
		}
		r.LunchWindow = payload
	case RuleMaxLecturesPerDay:
		payload := &MaxLecturesPerDayRule{}
		if err := json.Unmarshal(env.RuleData, payload); err != nil {
			return fmt.Errorf("decode max_lectures_per_day payload: %w", err)
		}
		r.MaxLectures = payload
	case RuleGapPreference:
		payload := &GapPreferenceRule{}
		if err := json.Unmarshal(env.RuleData, payload); err != nil {
			return fmt.Errorf("decode gap_preference payload: %w", err)
		}
		if payload.Mode == "" {
			payload.Mode = GapMinimize
		}
		r.GapPreference = payload
	case RuleForbiddenTimePairs:
		payload := &ForbiddenTimePairsRule{}
		if err := json.Unmarshal(env.RuleData, payload); err != nil {
			return fmt.Errorf("decode forbidden_time_pairs payload: %w", err)
		}
		r.ForbiddenPairs = payload
	default:
		return fmt.Errorf("unknown rule_type %q", env.Type)
	}
	return nil
}

// MarshalJSON writes the wire form back out.
func (r Rule) MarshalJSON() ([]byte, error) {
	var payload any
	switch r.Type {
	case RuleLunchWindow:
		payload = r.LunchWindow
	case RuleMaxLecturesPerDay:
		payload = r.MaxLectures
	case RuleGapPreference:
		payload = r.GapPreference
	case RuleForbiddenTimePairs:
		payload = r.ForbiddenPairs
	default:
		return nil, fmt.Errorf("unknown rule_type %q", r.Type)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ruleEnvelope{ID: r.ID, Name: r.Name, Type: r.Type, RuleData: raw})
}
