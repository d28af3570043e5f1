// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/autobrr/feedarr/internal/dbinterface"
	"github.com/autobrr/feedarr/internal/releasestate"
	"github.com/autobrr/feedarr/internal/resolver"
	"github.com/autobrr/feedarr/pkg/releases"
)

var ErrReleaseNotFound = errors.New("release not found")

// UpsertResult tells what an upsert did to the stored row.
type UpsertResult int

const (
	UpsertInserted UpsertResult = iota
	UpsertUpdated
	// UpsertUnchanged means only last_checked_at was touched.
	UpsertUnchanged
)

func (r UpsertResult) String() string {
	switch r {
	case UpsertInserted:
		return "inserted"
	case UpsertUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// ReleaseFilter narrows List. Zero fields match everything.
type ReleaseFilter struct {
	Status releasestate.Status
	Kind   releases.Kind
	Feed   string
	Limit  int
}

type ReleaseStore struct {
	db dbinterface.Querier
}

func NewReleaseStore(db dbinterface.Querier) *ReleaseStore {
	return &ReleaseStore{db: db}
}

const releaseColumns = `guid, feed, kind, published_at,
	title, clean_title, normalized_title, year, resolution, codec, source_tag, audio_track, size_mb,
	audio_languages, embedded_tmdb_id, embedded_imdb_id, embedded_tvdb_id, show_name, season_number,
	tvdb_id, tmdb_id, imdb_id, manual_tvdb_id, manual_tmdb_id, manual_imdb_id,
	canonical_title, original_language, primary_poster, secondary_poster, confidence, decision_trail,
	library_item_id, library_title, linkage_misses,
	admissible, score, existing_score,
	status, status_reason, manually_ignored,
	fingerprint, first_seen_at, last_checked_at`

const releaseColumnCount = 43

var upsertReleaseQuery = `INSERT INTO releases (` + releaseColumns + `)
	VALUES (` + strings.TrimSuffix(strings.Repeat("?, ", releaseColumnCount), ", ") + `)
	ON CONFLICT(guid) DO UPDATE SET
		feed = excluded.feed,
		kind = excluded.kind,
		published_at = excluded.published_at,
		title = excluded.title,
		clean_title = excluded.clean_title,
		normalized_title = excluded.normalized_title,
		year = excluded.year,
		resolution = excluded.resolution,
		codec = excluded.codec,
		source_tag = excluded.source_tag,
		audio_track = excluded.audio_track,
		size_mb = excluded.size_mb,
		audio_languages = excluded.audio_languages,
		embedded_tmdb_id = excluded.embedded_tmdb_id,
		embedded_imdb_id = excluded.embedded_imdb_id,
		embedded_tvdb_id = excluded.embedded_tvdb_id,
		show_name = excluded.show_name,
		season_number = excluded.season_number,
		tvdb_id = excluded.tvdb_id,
		tmdb_id = excluded.tmdb_id,
		imdb_id = excluded.imdb_id,
		manual_tvdb_id = excluded.manual_tvdb_id,
		manual_tmdb_id = excluded.manual_tmdb_id,
		manual_imdb_id = excluded.manual_imdb_id,
		canonical_title = excluded.canonical_title,
		original_language = excluded.original_language,
		primary_poster = excluded.primary_poster,
		secondary_poster = excluded.secondary_poster,
		confidence = excluded.confidence,
		decision_trail = excluded.decision_trail,
		library_item_id = excluded.library_item_id,
		library_title = excluded.library_title,
		linkage_misses = excluded.linkage_misses,
		admissible = excluded.admissible,
		score = excluded.score,
		existing_score = excluded.existing_score,
		status = excluded.status,
		status_reason = excluded.status_reason,
		manually_ignored = excluded.manually_ignored,
		fingerprint = excluded.fingerprint,
		last_checked_at = excluded.last_checked_at`

// Upsert stores rec keyed by its GUID. When the stored fingerprint equals
// the fingerprint of rec only last_checked_at is refreshed.
func (s *ReleaseStore) Upsert(ctx context.Context, rec *releasestate.Record) (UpsertResult, error) {
	if rec == nil {
		return UpsertUnchanged, errors.New("record is nil")
	}
	if strings.TrimSpace(rec.GUID) == "" {
		return UpsertUnchanged, errors.New("guid is required")
	}

	fp, err := Fingerprint(rec)
	if err != nil {
		return UpsertUnchanged, fmt.Errorf("fingerprint %s: %w", rec.GUID, err)
	}

	var stored string
	err = s.db.QueryRowContext(ctx, `SELECT fingerprint FROM releases WHERE guid = ?`, rec.GUID).Scan(&stored)
	exists := true
	switch {
	case errors.Is(err, sql.ErrNoRows):
		exists = false
	case err != nil:
		return UpsertUnchanged, fmt.Errorf("load fingerprint %s: %w", rec.GUID, err)
	}

	if exists && stored == fp {
		if _, err := s.db.ExecContext(ctx, `UPDATE releases SET last_checked_at = ? WHERE guid = ?`,
			formatTime(rec.LastCheckedAt), rec.GUID); err != nil {
			return UpsertUnchanged, fmt.Errorf("touch release %s: %w", rec.GUID, err)
		}
		return UpsertUnchanged, nil
	}

	args, err := releaseArgs(rec, fp)
	if err != nil {
		return UpsertUnchanged, err
	}
	if _, err := s.db.ExecContext(ctx, upsertReleaseQuery, args...); err != nil {
		return UpsertUnchanged, fmt.Errorf("upsert release %s: %w", rec.GUID, err)
	}

	if exists {
		return UpsertUpdated, nil
	}
	return UpsertInserted, nil
}

func (s *ReleaseStore) Get(ctx context.Context, guid string) (*releasestate.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+releaseColumns+` FROM releases WHERE guid = ?`, guid)
	rec, err := scanRelease(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReleaseNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *ReleaseStore) List(ctx context.Context, filter ReleaseFilter) ([]*releasestate.Record, error) {
	query := `SELECT ` + releaseColumns + ` FROM releases`

	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Feed != "" {
		where = append(where, "feed = ?")
		args = append(args, filter.Feed)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY published_at DESC, guid"
	if filter.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*releasestate.Record
	for rows.Next() {
		rec, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ReleaseStore) ListByStatus(ctx context.Context, status releasestate.Status) ([]*releasestate.Record, error) {
	return s.List(ctx, ReleaseFilter{Status: status})
}

// SetStatus records an explicit user decision on a release. It is the only
// path by which ADDED enters the store.
func (s *ReleaseStore) SetStatus(ctx context.Context, guid string, status releasestate.Status, manuallyIgnored bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE releases
		SET status = ?, status_reason = ?, manually_ignored = ?, fingerprint = ''
		WHERE guid = ?
	`, string(status), string(releasestate.ReasonUserSetStatus), manuallyIgnored, guid)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrReleaseNotFound)
}

// SetManualIDs pins the non-empty ids of ids on a release. Pinned ids are
// never replaced by later resolutions.
func (s *ReleaseStore) SetManualIDs(ctx context.Context, guid string, ids resolver.ManualIDs) error {
	if ids.Empty() {
		return errors.New("at least one id is required")
	}

	var (
		sets []string
		args []any
	)
	if ids.TVDBID != "" {
		sets = append(sets, "tvdb_id = ?", "manual_tvdb_id = 1")
		args = append(args, ids.TVDBID)
	}
	if ids.TMDBID != "" {
		sets = append(sets, "tmdb_id = ?", "manual_tmdb_id = 1")
		args = append(args, ids.TMDBID)
	}
	if ids.IMDBID != "" {
		sets = append(sets, "imdb_id = ?", "manual_imdb_id = 1")
		args = append(args, ids.IMDBID)
	}
	sets = append(sets, "fingerprint = ''")
	args = append(args, guid)

	res, err := s.db.ExecContext(ctx, `UPDATE releases SET `+strings.Join(sets, ", ")+` WHERE guid = ?`, args...)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrReleaseNotFound)
}

func (s *ReleaseStore) CountByStatus(ctx context.Context) (map[releasestate.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM releases GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[releasestate.Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[releasestate.Status(status)] = n
	}
	return counts, rows.Err()
}

// Fingerprint hashes everything of rec except LastCheckedAt.
func Fingerprint(rec *releasestate.Record) (string, error) {
	c := *rec
	c.LastCheckedAt = time.Time{}
	c.PublishedAt = c.PublishedAt.UTC()
	c.FirstSeenAt = c.FirstSeenAt.UTC()

	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(xxhash.Sum64(b), 16), nil
}

func releaseArgs(r *releasestate.Record, fingerprint string) ([]any, error) {
	langs, err := json.Marshal(nonNil(r.AudioLanguages))
	if err != nil {
		return nil, fmt.Errorf("encode audio languages: %w", err)
	}
	trail := r.DecisionTrail
	if trail == nil {
		trail = []resolver.Decision{}
	}
	trailJSON, err := json.Marshal(trail)
	if err != nil {
		return nil, fmt.Errorf("encode decision trail: %w", err)
	}

	var season, libraryID, existing any
	if r.SeasonNumber != nil {
		season = *r.SeasonNumber
	}
	if r.LibraryItemID != nil {
		libraryID = *r.LibraryItemID
	}
	if r.ExistingScore != nil {
		existing = *r.ExistingScore
	}

	return []any{
		r.GUID, r.Feed, string(r.Kind), formatTime(r.PublishedAt),
		r.Title, r.CleanTitle, r.NormalizedTitle, r.Year, r.Resolution, r.Codec, r.SourceTag, r.AudioTrack, r.SizeMB,
		string(langs), r.EmbeddedTMDBID, r.EmbeddedIMDBID, r.EmbeddedTVDBID, r.ShowName, season,
		r.TVDBID, r.TMDBID, r.IMDBID, r.ManualTVDBID, r.ManualTMDBID, r.ManualIMDBID,
		r.CanonicalTitle, r.OriginalLanguage, r.PrimaryPoster, r.SecondaryPoster, string(r.Confidence), string(trailJSON),
		libraryID, r.LibraryTitle, r.LinkageMisses,
		r.Admissible, r.Score, existing,
		string(r.Status), string(r.StatusReason), r.ManuallyIgnored,
		fingerprint, formatTime(r.FirstSeenAt), formatTime(r.LastCheckedAt),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRelease(row rowScanner) (*releasestate.Record, error) {
	var (
		r                                 releasestate.Record
		kind, confidence, status, reason  string
		publishedAt, firstSeen, lastCheck string
		langs, trail, fingerprint         string
		season, libraryID                 sql.NullInt64
		existing                          sql.NullFloat64
	)
	err := row.Scan(
		&r.GUID, &r.Feed, &kind, &publishedAt,
		&r.Title, &r.CleanTitle, &r.NormalizedTitle, &r.Year, &r.Resolution, &r.Codec, &r.SourceTag, &r.AudioTrack, &r.SizeMB,
		&langs, &r.EmbeddedTMDBID, &r.EmbeddedIMDBID, &r.EmbeddedTVDBID, &r.ShowName, &season,
		&r.TVDBID, &r.TMDBID, &r.IMDBID, &r.ManualTVDBID, &r.ManualTMDBID, &r.ManualIMDBID,
		&r.CanonicalTitle, &r.OriginalLanguage, &r.PrimaryPoster, &r.SecondaryPoster, &confidence, &trail,
		&libraryID, &r.LibraryTitle, &r.LinkageMisses,
		&r.Admissible, &r.Score, &existing,
		&status, &reason, &r.ManuallyIgnored,
		&fingerprint, &firstSeen, &lastCheck,
	)
	if err != nil {
		return nil, err
	}

	r.Kind = releases.Kind(kind)
	r.Confidence = resolver.Confidence(confidence)
	r.Status = releasestate.Status(status)
	r.StatusReason = releasestate.Reason(reason)

	if r.PublishedAt, err = parseTime(publishedAt); err != nil {
		return nil, fmt.Errorf("release %s published_at: %w", r.GUID, err)
	}
	if r.FirstSeenAt, err = parseTime(firstSeen); err != nil {
		return nil, fmt.Errorf("release %s first_seen_at: %w", r.GUID, err)
	}
	if r.LastCheckedAt, err = parseTime(lastCheck); err != nil {
		return nil, fmt.Errorf("release %s last_checked_at: %w", r.GUID, err)
	}

	if langs != "" {
		if err := json.Unmarshal([]byte(langs), &r.AudioLanguages); err != nil {
			return nil, fmt.Errorf("release %s audio_languages: %w", r.GUID, err)
		}
	}
	if len(r.AudioLanguages) == 0 {
		r.AudioLanguages = nil
	}
	if trail != "" {
		if err := json.Unmarshal([]byte(trail), &r.DecisionTrail); err != nil {
			return nil, fmt.Errorf("release %s decision_trail: %w", r.GUID, err)
		}
	}
	if len(r.DecisionTrail) == 0 {
		r.DecisionTrail = nil
	}

	if season.Valid {
		n := int(season.Int64)
		r.SeasonNumber = &n
	}
	if libraryID.Valid {
		n := int(libraryID.Int64)
		r.LibraryItemID = &n
	}
	if existing.Valid {
		v := existing.Float64
		r.ExistingScore = &v
	}

	return &r, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func requireAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	switch sqlErr.Code() {
	case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
