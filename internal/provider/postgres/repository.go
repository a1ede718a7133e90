// Package postgres implements the provider interfaces against the data
// platform's Postgres projection.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/engagement/internal/domain"
	"example.com/engagement/internal/provider"
)

// Repository provides Postgres-backed access to activity entries and
// principal summaries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `entry_id, principal_id, principal_name, activity_date, activity_type,
        subject, details, source_table, COALESCE(source_id, ''),
        COALESCE(opportunity_name, ''), COALESCE(contact_name, ''), COALESCE(product_name, ''),
        status, follow_up_required, follow_up_date, metadata`

// FetchSnapshot loads entries (newest first, ranked per batch) and
// summaries, optionally scoped to a principal-id set.
func (r *Repository) FetchSnapshot(ctx context.Context, principalIDs []string) (domain.Snapshot, error) {
	entries, err := r.fetchEntries(ctx, principalIDs)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("fetch entries: %w", err)
	}
	summaries, err := r.fetchSummaries(ctx, principalIDs)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("fetch summaries: %w", err)
	}
	return domain.Snapshot{Entries: entries, Summaries: summaries}, nil
}

func (r *Repository) fetchEntries(ctx context.Context, principalIDs []string) ([]domain.ActivityEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM activity_entries
        ORDER BY activity_date DESC, entry_id`
	args := []any{}
	if len(principalIDs) > 0 {
		query = `SELECT ` + entryColumns + ` FROM activity_entries
        WHERE principal_id = ANY($1)
        ORDER BY activity_date DESC, entry_id`
		args = append(args, principalIDs)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ActivityEntry
	rank := 0
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		rank++
		entry.Rank = rank
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *Repository) fetchSummaries(ctx context.Context, principalIDs []string) ([]domain.PrincipalSummary, error) {
	query := `SELECT principal_id, principal_name, product_count, opportunity_count, contact_count,
        engagement_score, activity_status, COALESCE(region, ''), COALESCE(product_categories, '{}'),
        last_activity_date, interactions_last_30, opportunities_last_30
        FROM principal_summaries ORDER BY principal_id`
	args := []any{}
	if len(principalIDs) > 0 {
		query = `SELECT principal_id, principal_name, product_count, opportunity_count, contact_count,
        engagement_score, activity_status, COALESCE(region, ''), COALESCE(product_categories, '{}'),
        last_activity_date, interactions_last_30, opportunities_last_30
        FROM principal_summaries WHERE principal_id = ANY($1) ORDER BY principal_id`
		args = append(args, principalIDs)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.PrincipalSummary
	for rows.Next() {
		var s domain.PrincipalSummary
		var status string
		if err := rows.Scan(
			&s.PrincipalID, &s.PrincipalName, &s.ProductCount, &s.OpportunityCount, &s.ContactCount,
			&s.EngagementScore, &status, &s.Region, &s.ProductCategories,
			&s.LastActivityDate, &s.InteractionsLast30, &s.OpportunitiesLast30,
		); err != nil {
			return nil, err
		}
		s.ActivityStatus = domain.ActivityStatus(status)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// AddEntry inserts a new entry and returns the stored row.
func (r *Repository) AddEntry(ctx context.Context, input provider.EntryInput) (domain.ActivityEntry, error) {
	metadata, err := marshalMetadata(input.Metadata)
	if err != nil {
		return domain.ActivityEntry{}, err
	}

	const query = `INSERT INTO activity_entries
        (entry_id, principal_id, principal_name, activity_date, activity_type, subject, details,
         source_table, source_id, opportunity_name, contact_name, product_name, status,
         follow_up_required, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,false,$14)
        RETURNING ` + entryColumns

	row := r.pool.QueryRow(ctx, query,
		uuid.NewString(),
		input.PrincipalID,
		input.PrincipalName,
		input.ActivityDate.UTC(),
		string(input.Type),
		input.Subject,
		input.Details,
		input.SourceTable,
		nullIfEmpty(input.SourceID),
		nullIfEmpty(input.OpportunityName),
		nullIfEmpty(input.ContactName),
		nullIfEmpty(input.ProductName),
		input.Status,
		metadata,
	)
	return scanEntry(row)
}

// UpdateEntry rewrites the entry's descriptive fields, leaving follow-up
// state untouched.
func (r *Repository) UpdateEntry(ctx context.Context, id string, input provider.EntryInput) (domain.ActivityEntry, error) {
	metadata, err := marshalMetadata(input.Metadata)
	if err != nil {
		return domain.ActivityEntry{}, err
	}

	const query = `UPDATE activity_entries SET
        principal_id=$2, principal_name=$3, activity_date=$4, activity_type=$5, subject=$6,
        details=$7, source_table=$8, source_id=$9, opportunity_name=$10, contact_name=$11,
        product_name=$12, status=$13, metadata=$14
        WHERE entry_id=$1
        RETURNING ` + entryColumns

	row := r.pool.QueryRow(ctx, query,
		id,
		input.PrincipalID,
		input.PrincipalName,
		input.ActivityDate.UTC(),
		string(input.Type),
		input.Subject,
		input.Details,
		input.SourceTable,
		nullIfEmpty(input.SourceID),
		nullIfEmpty(input.OpportunityName),
		nullIfEmpty(input.ContactName),
		nullIfEmpty(input.ProductName),
		input.Status,
		metadata,
	)
	return scanEntry(row)
}

// DeleteEntry removes the entry.
func (r *Repository) DeleteEntry(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activity_entries WHERE entry_id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// MarkForFollowUp flags the entry with a due date.
func (r *Repository) MarkForFollowUp(ctx context.Context, id string, due time.Time) (domain.ActivityEntry, error) {
	const query = `UPDATE activity_entries
        SET follow_up_required=true, follow_up_date=$2
        WHERE entry_id=$1
        RETURNING ` + entryColumns

	row := r.pool.QueryRow(ctx, query, id, due.UTC())
	return scanEntry(row)
}

// CompleteFollowUp clears the flag and the due date together.
func (r *Repository) CompleteFollowUp(ctx context.Context, id string) (domain.ActivityEntry, error) {
	const query = `UPDATE activity_entries
        SET follow_up_required=false, follow_up_date=NULL
        WHERE entry_id=$1 AND follow_up_required=true
        RETURNING ` + entryColumns

	row := r.pool.QueryRow(ctx, query, id)
	entry, err := scanEntry(row)
	if errors.Is(err, domain.ErrEntryNotFound) {
		// Distinguish a missing row from one with no open follow-up.
		var exists bool
		if lookupErr := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM activity_entries WHERE entry_id=$1)`, id).Scan(&exists); lookupErr == nil && exists {
			return domain.ActivityEntry{}, domain.ErrNoFollowUp
		}
	}
	return entry, err
}

func scanEntry(row pgx.Row) (domain.ActivityEntry, error) {
	var e domain.ActivityEntry
	var activityType string
	var metadata []byte
	err := row.Scan(
		&e.ID, &e.PrincipalID, &e.PrincipalName, &e.ActivityDate, &activityType,
		&e.Subject, &e.Details, &e.SourceTable, &e.SourceID,
		&e.OpportunityName, &e.ContactName, &e.ProductName,
		&e.Status, &e.FollowUpRequired, &e.FollowUpDate, &metadata,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ActivityEntry{}, domain.ErrEntryNotFound
		}
		return domain.ActivityEntry{}, err
	}
	e.Type = domain.ActivityType(activityType)
	if len(metadata) > 0 {
		parsed, err := unmarshalMetadata(metadata)
		if err != nil {
			return domain.ActivityEntry{}, err
		}
		e.Metadata = parsed
	}
	return e, nil
}

// metadataRecord is the JSONB wire shape for entry metadata.
type metadataRecord struct {
	Kind                string            `json:"kind"`
	EmailThreadID       string            `json:"email_thread_id,omitempty"`
	EmailSubject        string            `json:"email_subject,omitempty"`
	CallDurationSeconds int               `json:"call_duration_seconds,omitempty"`
	CallOutcome         string            `json:"call_outcome,omitempty"`
	MeetingLocation     string            `json:"meeting_location,omitempty"`
	MeetingAttendees    int               `json:"meeting_attendees,omitempty"`
	ImportBatchID       string            `json:"import_batch_id,omitempty"`
	Extra               map[string]string `json:"extra,omitempty"`
}

func marshalMetadata(m *domain.EntryMetadata) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	record := metadataRecord{
		Kind:                string(m.Kind),
		EmailThreadID:       m.EmailThreadID,
		EmailSubject:        m.EmailSubject,
		CallDurationSeconds: m.CallDurationSeconds,
		CallOutcome:         m.CallOutcome,
		MeetingLocation:     m.MeetingLocation,
		MeetingAttendees:    m.MeetingAttendees,
		ImportBatchID:       m.ImportBatchID,
		Extra:               m.Extra,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal entry metadata: %w", err)
	}
	return data, nil
}

func unmarshalMetadata(data []byte) (*domain.EntryMetadata, error) {
	var record metadataRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal entry metadata: %w", err)
	}
	return &domain.EntryMetadata{
		Kind:                domain.MetadataKind(record.Kind),
		EmailThreadID:       record.EmailThreadID,
		EmailSubject:        record.EmailSubject,
		CallDurationSeconds: record.CallDurationSeconds,
		CallOutcome:         record.CallOutcome,
		MeetingLocation:     record.MeetingLocation,
		MeetingAttendees:    record.MeetingAttendees,
		ImportBatchID:       record.ImportBatchID,
		Extra:               record.Extra,
	}, nil
}

func nullIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
