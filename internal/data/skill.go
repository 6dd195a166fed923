package data

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// SkillInfo holds a single skill template.
type SkillInfo struct {
	SkillID  string
	Name     string
	Cooldown time.Duration
	Cost     int  // energy debited per use
	Starter  bool // unlocked for every character on join
}

// SkillTable holds all skills indexed by SkillID.
type SkillTable struct {
	skills map[string]*SkillInfo
}

// Get returns a skill by ID, or nil if not found.
func (t *SkillTable) Get(skillID string) *SkillInfo {
	if t == nil {
		return nil
	}
	return t.skills[skillID]
}

// Count returns total loaded skills.
func (t *SkillTable) Count() int {
	if t == nil {
		return 0
	}
	return len(t.skills)
}

// StarterSet returns a fresh set of the skills every character starts with.
func (t *SkillTable) StarterSet() map[string]struct{} {
	out := make(map[string]struct{})
	if t == nil {
		return out
	}
	for id, s := range t.skills {
		if s.Starter {
			out[id] = struct{}{}
		}
	}
	return out
}

// IDs returns all skill ids, sorted.
func (t *SkillTable) IDs() []string {
	out := make([]string, 0, t.Count())
	if t == nil {
		return out
	}
	for id := range t.skills {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// --- YAML loading ---

type skillEntry struct {
	SkillID    string `yaml:"skill_id"`
	Name       string `yaml:"name"`
	CooldownMs int64  `yaml:"cooldown_ms"`
	Cost       int    `yaml:"cost"`
	Starter    bool   `yaml:"starter"`
}

type skillListFile struct {
	Skills []skillEntry `yaml:"skills"`
}

// LoadSkillTable loads skill definitions from YAML.
func LoadSkillTable(path string) (*SkillTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skills: %w", err)
	}
	return ParseSkillTable(raw)
}

func ParseSkillTable(raw []byte) (*SkillTable, error) {
	var f skillListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse skills: %w", err)
	}
	t := &SkillTable{skills: make(map[string]*SkillInfo, len(f.Skills))}
	for i, e := range f.Skills {
		if e.SkillID == "" {
			return nil, fmt.Errorf("skill %d: skill_id is required", i)
		}
		if _, dup := t.skills[e.SkillID]; dup {
			return nil, fmt.Errorf("skill %q: duplicate id", e.SkillID)
		}
		if e.CooldownMs < 0 || e.Cost < 0 {
			return nil, fmt.Errorf("skill %q: cooldown and cost must not be negative", e.SkillID)
		}
		t.skills[e.SkillID] = &SkillInfo{
			SkillID:  e.SkillID,
			Name:     e.Name,
			Cooldown: time.Duration(e.CooldownMs) * time.Millisecond,
			Cost:     e.Cost,
			Starter:  e.Starter,
		}
	}
	return t, nil
}
