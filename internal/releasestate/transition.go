// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releasestate

import (
	"github.com/autobrr/feedarr/internal/catalog"
	"github.com/autobrr/feedarr/internal/quality"
	"github.com/autobrr/feedarr/pkg/releases"
)

// Reason names the rule that chose a status.
type Reason string

const (
	ReasonStickyAdded     Reason = "added"
	ReasonIgnoreList      Reason = "ignore_list"
	ReasonManualIgnore    Reason = "manually_ignored"
	ReasonNotAdmissible   Reason = "not_admissible"
	ReasonExistingSeason  Reason = "season_monitored"
	ReasonSeasonMissing   Reason = "season_not_monitored"
	ReasonNotInLibrary    Reason = "not_in_library"
	ReasonNoFile          Reason = "no_file"
	ReasonUpgrade         Reason = "upgrade"
	ReasonNotAnUpgrade    Reason = "not_an_upgrade"
	ReasonShowInLibrary   Reason = "show_in_library"
	ReasonUserSetStatus   Reason = "user"
	ReasonUnresolvedFresh Reason = "unresolved"
)

// Facts is everything the transition needs to know about one evaluation.
type Facts struct {
	Kind   releases.Kind
	Season *int
	// Resolved is false when no identity was found; the release is then
	// treated as not held.
	Resolved   bool
	Admissible bool
	// Ignored is set when the identity key is on the ignore list.
	Ignored bool
	Library *catalog.LibraryItem

	NewScore  float64
	NewSizeMB float64
	Policy    quality.Policy
}

// Outcome is the computed status and the evidence for it.
type Outcome struct {
	Status  Status
	Reason  Reason
	Upgrade *quality.UpgradeDecision
}

// Transition computes the next status of a release from its previous record
// (nil on first sighting) and the facts of this evaluation.
func Transition(prev *Record, f Facts) Outcome {
	switch {
	case prev != nil && prev.Status == StatusAdded:
		return Outcome{Status: StatusAdded, Reason: ReasonStickyAdded}
	case f.Ignored:
		return Outcome{Status: StatusIgnored, Reason: ReasonIgnoreList}
	case prev != nil && prev.ManuallyIgnored:
		return Outcome{Status: StatusIgnored, Reason: ReasonManualIgnore}
	case !f.Admissible:
		return Outcome{Status: StatusIgnored, Reason: ReasonNotAdmissible}
	}

	lib := f.Library
	if !f.Resolved {
		lib = nil
	}

	if f.Kind == releases.KindTV {
		switch {
		case lib == nil:
			reason := ReasonNotInLibrary
			if !f.Resolved {
				reason = ReasonUnresolvedFresh
			}
			return Outcome{Status: StatusNewShow, Reason: reason}
		case f.Season == nil:
			return Outcome{Status: StatusIgnored, Reason: ReasonShowInLibrary}
		case lib.MonitorsSeason(*f.Season):
			return Outcome{Status: StatusIgnored, Reason: ReasonExistingSeason}
		default:
			return Outcome{Status: StatusNewSeason, Reason: ReasonSeasonMissing}
		}
	}

	if lib == nil {
		reason := ReasonNotInLibrary
		if !f.Resolved {
			reason = ReasonUnresolvedFresh
		}
		return Outcome{Status: StatusNew, Reason: reason}
	}
	// listed but wanted: nothing on disk to upgrade
	if !lib.HasFile() {
		return Outcome{Status: StatusNew, Reason: ReasonNoFile}
	}

	existing := quality.EstimateExistingScore(lib.FileName, lib.SizeMB, f.Policy)
	decision := quality.DecideUpgrade(f.NewScore, existing, f.NewSizeMB, lib.SizeMB, f.Policy)
	if decision.Upgrade {
		return Outcome{Status: StatusUpgradeCandidate, Reason: ReasonUpgrade, Upgrade: &decision}
	}
	return Outcome{Status: StatusIgnored, Reason: ReasonNotAnUpgrade, Upgrade: &decision}
}
