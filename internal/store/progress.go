package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/forklab-edu/forklab/pkg/types"
)

// StoreLogEntry persists one simulation log entry.
func (s *Store) StoreLogEntry(entry *types.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO log_entries (
			id, session_id, seq, action, pid, target_pid,
			message, os_explanation, dsa_explanation, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.SessionID,
		entry.Seq,
		string(entry.Action),
		entry.PID,
		entry.TargetPID,
		entry.Message,
		entry.OSExplanation,
		entry.DSAExplanation,
		entry.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to store log entry: %w", err)
	}
	return nil
}

// GetSessionLog returns the persisted log of one session in causal order.
func (s *Store) GetSessionLog(sessionID string) ([]*types.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, session_id, seq, action, pid, target_pid,
		       message, os_explanation, dsa_explanation, timestamp
		FROM log_entries WHERE session_id = ? ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query log entries: %w", err)
	}
	defer rows.Close()

	var entries []*types.LogEntry
	for rows.Next() {
		var entry types.LogEntry
		var action, timestamp string
		if err := rows.Scan(
			&entry.ID, &entry.SessionID, &entry.Seq, &action,
			&entry.PID, &entry.TargetPID, &entry.Message,
			&entry.OSExplanation, &entry.DSAExplanation, &timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entry.Action = types.LogAction(action)
		if ts, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
			entry.Timestamp = ts
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// StoreChallengeResult records one challenge attempt.
func (s *Store) StoreChallengeResult(result *types.ChallengeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	passed := 0
	if result.Passed {
		passed = 1
	}

	_, err := s.db.Exec(`
		INSERT INTO challenge_results (challenge_id, session_id, passed, reason, completed_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		result.ChallengeID,
		result.SessionID,
		passed,
		result.Reason,
		result.CompletedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to store challenge result: %w", err)
	}
	return nil
}

// GetProgress returns per-challenge progress: attempt counts, whether any
// attempt passed, and the latest reason.
func (s *Store) GetProgress() ([]*types.ChallengeProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// With a single max() aggregate, sqlite takes the bare reason column
	// from the row holding the max, i.e. the latest attempt.
	rows, err := s.db.Query(`
		SELECT challenge_id, COUNT(*), SUM(passed), reason, MAX(completed_at)
		FROM challenge_results
		GROUP BY challenge_id
		ORDER BY challenge_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var progress []*types.ChallengeProgress
	for rows.Next() {
		var p types.ChallengeProgress
		var passed int
		var reason sql.NullString
		var lastAttempt string
		if err := rows.Scan(&p.ChallengeID, &p.Attempts, &passed, &reason, &lastAttempt); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		p.Passed = passed > 0
		p.LastReason = reason.String
		if ts, err := time.Parse(time.RFC3339Nano, lastAttempt); err == nil {
			p.LastAttempt = ts
		}
		progress = append(progress, &p)
	}

	return progress, rows.Err()
}

// GetProgressStats aggregates progress across all challenges.
func (s *Store) GetProgressStats() (*types.ProgressStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &types.ProgressStats{}
	err := s.db.QueryRow(`
		SELECT COUNT(DISTINCT challenge_id),
		       COUNT(DISTINCT CASE WHEN passed = 1 THEN challenge_id END)
		FROM challenge_results
	`).Scan(&stats.Attempted, &stats.Passed)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress stats: %w", err)
	}
	return stats, nil
}
