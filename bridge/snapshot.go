// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import "github.com/bureau-foundation/rlbridge/protocol"

// ExperienceBaseline is one connection's memory of the experience
// vector, used to report the single largest gain between STATE calls.
// The zero value has no baseline yet.
type ExperienceBaseline struct {
	values []int
}

// Observe compares current against the baseline and returns the skill
// index with the largest positive gain and that gain, or (-1, 0) when
// no skill increased. Increased entries are moved up to current;
// entries that went down are left alone, so a later recovery is not
// reported as a gain.
//
// The first observation, and any observation whose length differs
// from the baseline, adopts a copy of current and reports (-1, 0). A
// nil vector reports (-1, 0) and leaves the baseline untouched.
func (b *ExperienceBaseline) Observe(current []int) (skillIndex, skillDelta int) {
	skillIndex = -1
	if current == nil {
		return skillIndex, 0
	}
	if b.values == nil || len(b.values) != len(current) {
		b.values = append(make([]int, 0, len(current)), current...)
		return skillIndex, 0
	}
	for i, value := range current {
		delta := value - b.values[i]
		if delta <= 0 {
			continue
		}
		b.values[i] = value
		if delta > skillDelta {
			skillDelta = delta
			skillIndex = i
		}
	}
	return skillIndex, skillDelta
}

// Snapshot reads stats and diffs the experience vector against
// baseline.
func Snapshot(stats Stats, baseline *ExperienceBaseline) protocol.State {
	state := protocol.State{
		TotalExperience:   stats.TotalExperience(),
		TotalLevels:       stats.TotalLevels(),
		Health:            stats.CurrentHealth(),
		MaxHealth:         stats.MaxHealth(),
		Animation:         stats.Animation(),
		InteractingEntity: stats.InteractingEntity(),
		LoopCycle:         stats.LoopCycle(),
	}
	state.SkillIndex, state.SkillDelta = baseline.Observe(stats.Experience())
	return state
}
