// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/feedarr/internal/database"
	"github.com/autobrr/feedarr/internal/match"
	"github.com/autobrr/feedarr/internal/models"
	"github.com/autobrr/feedarr/internal/releasestate"
	"github.com/autobrr/feedarr/internal/resolver"
	"github.com/autobrr/feedarr/internal/testdb"
	"github.com/autobrr/feedarr/pkg/releases"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	return testdb.Open(t)
}

func sampleRecord(now time.Time) releasestate.Record {
	season := 2
	libID := 14
	existing := 40.0
	return releasestate.Record{
		GUID:             "guid-1",
		Feed:             "indexer",
		Kind:             releases.KindTV,
		PublishedAt:      now.Add(-time.Hour),
		Title:            "Show.Name.S02.1080p.WEB-DL.DDP5.1.H.264",
		CleanTitle:       "Show Name",
		NormalizedTitle:  "show name",
		Resolution:       "1080p",
		Codec:            "x264",
		SourceTag:        "WEB-DL",
		AudioTrack:       "DDP 5.1",
		SizeMB:           3584,
		AudioLanguages:   []string{"en", "hi"},
		ShowName:         "Show Name",
		SeasonNumber:     &season,
		TVDBID:           "2002",
		TMDBID:           "77",
		ManualTMDBID:     true,
		CanonicalTitle:   "Show Name",
		OriginalLanguage: "hi",
		Confidence:       resolver.ConfidenceCrossValidated,
		DecisionTrail: []resolver.Decision{
			{Step: resolver.StepPrimary, Source: "tvdb", ID: "2002", Title: "Show Name", Score: 1, Rule: match.RuleAccepted, Accepted: true},
		},
		LibraryItemID: &libID,
		LibraryTitle:  "Show Name",
		Admissible:    true,
		Score:         52.5,
		ExistingScore: &existing,
		Status:        releasestate.StatusNewSeason,
		StatusReason:  releasestate.ReasonSeasonMissing,
		FirstSeenAt:   now,
		LastCheckedAt: now,
	}
}

func TestReleaseStore_UpsertRoundTrip(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()
	store := models.NewReleaseStore(db)

	now := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	rec := sampleRecord(now)

	res, err := store.Upsert(ctx, &rec)
	require.NoError(t, err)
	assert.Equal(t, models.UpsertInserted, res)

	got, err := store.Get(ctx, rec.GUID)
	require.NoError(t, err)
	assert.Equal(t, rec, *got)

	later := rec
	later.LastCheckedAt = now.Add(time.Hour)
	res, err = store.Upsert(ctx, &later)
	require.NoError(t, err)
	assert.Equal(t, models.UpsertUnchanged, res)

	got, err = store.Get(ctx, rec.GUID)
	require.NoError(t, err)
	assert.Equal(t, later.LastCheckedAt, got.LastCheckedAt)

	changed := later
	changed.Status = releasestate.StatusIgnored
	changed.SeasonNumber = nil
	changed.LibraryItemID = nil
	changed.ExistingScore = nil
	changed.DecisionTrail = nil
	res, err = store.Upsert(ctx, &changed)
	require.NoError(t, err)
	assert.Equal(t, models.UpsertUpdated, res)

	got, err = store.Get(ctx, rec.GUID)
	require.NoError(t, err)
	assert.Equal(t, changed, *got)
}

func TestReleaseStore_Validation(t *testing.T) {
	t.Parallel()
	store := models.NewReleaseStore(setupTestDB(t))

	_, err := store.Upsert(context.Background(), nil)
	require.Error(t, err)
	_, err = store.Upsert(context.Background(), &releasestate.Record{})
	require.Error(t, err)

	_, err = store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrReleaseNotFound)
}

func TestReleaseStore_ListAndCount(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()
	store := models.NewReleaseStore(db)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []releasestate.Record{
		{GUID: "a", Kind: releases.KindMovie, Title: "A", Status: releasestate.StatusNew, PublishedAt: now.Add(-3 * time.Hour)},
		{GUID: "b", Kind: releases.KindMovie, Title: "B", Status: releasestate.StatusIgnored, PublishedAt: now.Add(-2 * time.Hour)},
		{GUID: "c", Kind: releases.KindTV, Title: "C", Status: releasestate.StatusNew, PublishedAt: now.Add(-time.Hour)},
	}
	for i := range records {
		records[i].FirstSeenAt = now
		records[i].LastCheckedAt = now
		records[i].Confidence = resolver.ConfidenceUnresolved
		_, err := store.Upsert(ctx, &records[i])
		require.NoError(t, err)
	}

	all, err := store.List(ctx, models.ReleaseFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].GUID)

	fresh, err := store.ListByStatus(ctx, releasestate.StatusNew)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)

	movies, err := store.List(ctx, models.ReleaseFilter{Status: releasestate.StatusNew, Kind: releases.KindMovie})
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "a", movies[0].GUID)

	limited, err := store.List(ctx, models.ReleaseFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	counts, err := store.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[releasestate.Status]int{releasestate.StatusNew: 2, releasestate.StatusIgnored: 1}, counts)
}

func TestReleaseStore_UserDecisions(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()
	store := models.NewReleaseStore(db)

	rec := sampleRecord(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	rec.ManualTMDBID = false
	_, err := store.Upsert(ctx, &rec)
	require.NoError(t, err)

	require.NoError(t, store.SetStatus(ctx, rec.GUID, releasestate.StatusAdded, false))
	got, err := store.Get(ctx, rec.GUID)
	require.NoError(t, err)
	assert.Equal(t, releasestate.StatusAdded, got.Status)
	assert.Equal(t, releasestate.ReasonUserSetStatus, got.StatusReason)

	// an identical record is rewritten after a user decision
	res, err := store.Upsert(ctx, &rec)
	require.NoError(t, err)
	assert.Equal(t, models.UpsertUpdated, res)

	require.NoError(t, store.SetManualIDs(ctx, rec.GUID, resolver.ManualIDs{TMDBID: "99", IMDBID: "tt0000099"}))
	got, err = store.Get(ctx, rec.GUID)
	require.NoError(t, err)
	assert.Equal(t, "99", got.TMDBID)
	assert.True(t, got.ManualTMDBID)
	assert.Equal(t, "tt0000099", got.IMDBID)
	assert.True(t, got.ManualIMDBID)
	assert.Equal(t, "2002", got.TVDBID)
	assert.False(t, got.ManualTVDBID)

	assert.Error(t, store.SetManualIDs(ctx, rec.GUID, resolver.ManualIDs{}))
	assert.ErrorIs(t, store.SetStatus(ctx, "missing", releasestate.StatusIgnored, true), models.ErrReleaseNotFound)
	assert.ErrorIs(t, store.SetManualIDs(ctx, "missing", resolver.ManualIDs{TVDBID: "1"}), models.ErrReleaseNotFound)
}

func TestFingerprint_IgnoresLastChecked(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := sampleRecord(now)
	b := a
	b.LastCheckedAt = now.Add(24 * time.Hour)

	fa, err := models.Fingerprint(&a)
	require.NoError(t, err)
	fb, err := models.Fingerprint(&b)
	require.NoError(t, err)
	assert.Equal(t, fa, fb)

	b.Score = 10
	fc, err := models.Fingerprint(&b)
	require.NoError(t, err)
	assert.NotEqual(t, fa, fc)
}

func TestIgnoreListStore(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()
	store := models.NewIgnoreListStore(db)

	entry, err := store.Add(ctx, models.IgnoreEntry{Key: " TVDB:2002 ", DisplayName: " Show Name "})
	require.NoError(t, err)
	assert.Equal(t, "tvdb:2002", entry.Key)
	assert.Equal(t, "Show Name", entry.DisplayName)

	_, err = store.Add(ctx, models.IgnoreEntry{Key: "tvdb:2002"})
	assert.ErrorIs(t, err, models.ErrIgnoreEntryExists)
	_, err = store.Add(ctx, models.IgnoreEntry{Key: "  "})
	assert.Error(t, err)

	n, err := store.Import(ctx, []models.IgnoreEntry{
		{Key: "tvdb:2002"},
		{Key: "tmdb:77", DisplayName: "Movie"},
		{Key: "TMDB:77"},
		{Key: "name:some show"},
		{Key: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "name:some show", list[0].Key)

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"tvdb:2002": {}, "tmdb:77": {}, "name:some show": {}}, snap)

	require.NoError(t, store.Remove(ctx, "TMDB:77"))
	assert.ErrorIs(t, store.Remove(ctx, "tmdb:77"), models.ErrIgnoreEntryNotFound)
}

func TestCheckpointStore(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()
	store := models.NewCheckpointStore(db)

	_, err := store.Get(ctx, "indexer")
	assert.ErrorIs(t, err, models.ErrCheckpointNotFound)

	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, models.Checkpoint{Feed: "indexer", RunID: "run-1", LastGUID: "g5", Processed: 5, UpdatedAt: updated}))
	require.NoError(t, store.Save(ctx, models.Checkpoint{Feed: "indexer", RunID: "run-1", LastGUID: "g9", Processed: 9, Completed: true, UpdatedAt: updated}))

	cp, err := store.Get(ctx, "indexer")
	require.NoError(t, err)
	assert.Equal(t, models.Checkpoint{Feed: "indexer", RunID: "run-1", LastGUID: "g9", Processed: 9, Completed: true, UpdatedAt: updated}, *cp)

	assert.Error(t, store.Save(ctx, models.Checkpoint{}))
}
