// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import "github.com/bureau-foundation/rlbridge/protocol"

// RewardWeights scales the two reward terms.
type RewardWeights struct {
	// ExperienceScale is the reward per point of total experience
	// gained.
	ExperienceScale float64

	// LevelBonus is the reward per total level gained.
	LevelBonus float64
}

// DefaultRewardWeights returns the weights training runs use unless
// told otherwise.
func DefaultRewardWeights() RewardWeights {
	return RewardWeights{ExperienceScale: 0.01, LevelBonus: 10}
}

// Reward is the shaped reward between two successive states. Losses
// are clamped to zero: dying or a state reset never produces a
// negative reward.
func Reward(previous, current protocol.State, weights RewardWeights) float64 {
	experience := max(0, current.TotalExperience-previous.TotalExperience)
	levels := max(0, current.TotalLevels-previous.TotalLevels)
	return float64(experience)*weights.ExperienceScale + float64(levels)*weights.LevelBonus
}
