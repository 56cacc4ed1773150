package jobcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookscore/internal/jobsapi"
)

// observedLayout sorts lexically, which Prune relies on.
const observedLayout = "2006-01-02T15:04:05.000000000Z07:00"

// CachedJob is a stored job snapshot.
type CachedJob struct {
	Job        jobsapi.Job
	ObservedAt time.Time
}

// RecordJob upserts the latest snapshot of job.
func (s *Store) RecordJob(ctx context.Context, job jobsapi.Job) error {
	jobID := strings.TrimSpace(job.JobID)
	if jobID == "" {
		return errors.New("record job: job id is required")
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", jobID, err)
	}
	err = s.execWithRetry(ctx, `
		INSERT INTO jobs (job_id, status, progress, file_name, created_at, updated_at, payload, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			status = excluded.status,
			progress = excluded.progress,
			file_name = excluded.file_name,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			payload = excluded.payload,
			observed_at = excluded.observed_at`,
		jobID,
		strings.ToLower(job.Status),
		job.Progress,
		job.DisplayFileName(),
		job.CreatedAt,
		job.UpdatedAt,
		string(payload),
		s.now().UTC().Format(observedLayout),
	)
	if err != nil {
		return fmt.Errorf("record job %s: %w", jobID, err)
	}
	return nil
}

// Job returns the stored snapshot of jobID, or nil when none exists.
func (s *Store) Job(ctx context.Context, jobID string) (*CachedJob, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT payload, observed_at FROM jobs WHERE job_id = ?", strings.TrimSpace(jobID))
	cached, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	return cached, nil
}

// Jobs returns every stored snapshot, newest creation first.
func (s *Store) Jobs(ctx context.Context) ([]CachedJob, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT payload, observed_at FROM jobs ORDER BY created_at DESC, job_id")
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []CachedJob
	for rows.Next() {
		cached, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, *cached)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*CachedJob, error) {
	var payload, observed string
	if err := row.Scan(&payload, &observed); err != nil {
		return nil, err
	}
	var job jobsapi.Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return nil, fmt.Errorf("decode job payload: %w", err)
	}
	ts, _ := time.Parse(observedLayout, observed)
	return &CachedJob{Job: job, ObservedAt: ts}, nil
}

// CompletedSegments returns the stored segments of a completed job. The
// boolean is false when nothing has been stored.
func (s *Store) CompletedSegments(ctx context.Context, jobID string) ([]jobsapi.Segment, bool, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM segments WHERE job_id = ? ORDER BY position", strings.TrimSpace(jobID))
	if err != nil {
		return nil, false, fmt.Errorf("load segments %s: %w", jobID, err)
	}
	defer rows.Close()

	var segments []jobsapi.Segment
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, false, fmt.Errorf("scan segment: %w", err)
		}
		var seg jobsapi.Segment
		if err := json.Unmarshal([]byte(payload), &seg); err != nil {
			return nil, false, fmt.Errorf("decode segment payload: %w", err)
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return segments, len(segments) > 0, nil
}

// StoreCompletedSegments replaces the stored segments of jobID.
func (s *Store) StoreCompletedSegments(ctx context.Context, jobID string, segments []jobsapi.Segment) error {
	ctx = ensureContext(ctx)
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return errors.New("store segments: job id is required")
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin segments tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, "DELETE FROM segments WHERE job_id = ?", jobID); err != nil {
			return fmt.Errorf("delete segments: %w", err)
		}
		for i, seg := range segments {
			payload, err := json.Marshal(seg)
			if err != nil {
				return fmt.Errorf("encode segment %d: %w", i, err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO segments (job_id, position, segment_id, mood, intensity, payload) VALUES (?, ?, ?, ?, ?, ?)",
				jobID, i, seg.SegmentID, strings.ToLower(seg.Mood), seg.Intensity, string(payload),
			); err != nil {
				return fmt.Errorf("insert segment %d: %w", i, err)
			}
		}
		return tx.Commit()
	})
}

// Stats summarizes the cache contents.
type Stats struct {
	Jobs          int            `json:"jobs"`
	JobsByStatus  map[string]int `json:"jobsByStatus"`
	SegmentedJobs int            `json:"segmentedJobs"`
	Segments      int            `json:"segments"`
}

// Stats counts stored jobs and segments.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{JobsByStatus: map[string]int{}}
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM jobs GROUP BY status")
	if err != nil {
		return Stats{}, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("scan job count: %w", err)
		}
		stats.JobsByStatus[status] = count
		stats.Jobs += count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT job_id), COUNT(1) FROM segments",
	).Scan(&stats.SegmentedJobs, &stats.Segments); err != nil {
		return Stats{}, fmt.Errorf("count segments: %w", err)
	}
	return stats, nil
}

// Clear removes every stored job and segment.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.execWithRetry(ctx, "DELETE FROM segments"); err != nil {
		return fmt.Errorf("clear segments: %w", err)
	}
	if err := s.execWithRetry(ctx, "DELETE FROM jobs"); err != nil {
		return fmt.Errorf("clear jobs: %w", err)
	}
	return nil
}

// Prune removes job snapshots and segments not observed since cutoff and
// returns how many jobs were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	ctx = ensureContext(ctx)
	threshold := cutoff.UTC().Format(observedLayout)
	var removed int
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM segments WHERE job_id IN (SELECT job_id FROM jobs WHERE observed_at < ?)", threshold,
		); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM jobs WHERE observed_at < ?", threshold)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		removed = int(n)
		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return removed, nil
}
