// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package quality

import (
	"github.com/autobrr/feedarr/internal/parser"
)

// UpgradeDecision explains whether a release beats the held copy.
type UpgradeDecision struct {
	NewScore         float64
	ExistingScore    float64
	ScoreDelta       float64
	SizeDeltaPercent float64
	// SizeKnown is false when either size was missing; the size delta is then 0.
	SizeKnown bool
	Upgrade   bool
}

// DecideUpgrade compares a new release against the held copy. It is an
// upgrade only when both sizes are known and both the score delta and the
// relative size increase reach the policy thresholds.
func DecideUpgrade(newScore, existingScore, newSizeMB, existingSizeMB float64, p Policy) UpgradeDecision {
	d := UpgradeDecision{
		NewScore:      newScore,
		ExistingScore: existingScore,
		ScoreDelta:    round2(newScore - existingScore),
	}
	if newSizeMB > 0 && existingSizeMB > 0 {
		d.SizeKnown = true
		d.SizeDeltaPercent = round2((newSizeMB - existingSizeMB) / existingSizeMB * 100)
	}
	d.Upgrade = d.SizeKnown &&
		d.ScoreDelta >= p.UpgradeThreshold &&
		d.SizeDeltaPercent >= p.MinSizeIncreasePercentForUpgrade
	return d
}

// EstimateExistingScore scores the held file by re-parsing its name. When the
// name yields nothing the estimate falls back to the size bonus alone.
func EstimateExistingScore(fileName string, sizeMB float64, p Policy) float64 {
	held := parser.Parse(fileName, "")
	if sizeMB > 0 {
		held.SizeMB = sizeMB
	}
	if score := ScoreFor(held, p, ""); score != 0 {
		return score
	}
	return round2(SizeBonus(sizeMB))
}
