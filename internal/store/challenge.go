package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/persenaut/challenges/internal/challenge"
)

const challengesTable = "challenges"

var challengeColumns = []string{
	"pk", "sk", "id", "theme", "level", "text", "prompt", "created_at", "expires_at", "source_model",
}

// ErrDuplicate is returned by Save when a record with the same key or ID
// already exists. Existing records are never overwritten.
var ErrDuplicate = errors.New("challenge already exists")

// ChallengeRepo stores accepted questions. It implements challenge.Gateway.
type ChallengeRepo struct {
	db        *sql.DB
	now       func() time.Time
	retention time.Duration
}

var _ challenge.Gateway = (*ChallengeRepo)(nil)

// FetchRecent returns at most limit unexpired questions for the pair, most
// recent first.
func (r *ChallengeRepo) FetchRecent(ctx context.Context, theme, level string, limit int) ([]challenge.StoredQuestion, error) {
	if limit <= 0 {
		return nil, nil
	}
	query, args := entsql.Dialect(dialect.SQLite).
		Select(challengeColumns...).
		From(entsql.Table(challengesTable)).
		Where(entsql.And(
			entsql.EQ("pk", challenge.PartitionKey(theme, level)),
			entsql.GT("expires_at", r.now().UTC().UnixNano()),
		)).
		OrderBy(entsql.Desc("sk")).
		Limit(limit).
		Query()
	return r.query(ctx, query, args)
}

// Save writes a new record for q with a fresh ID and expiry.
func (r *ChallengeRepo) Save(ctx context.Context, q challenge.GeneratedQuestion, theme, level string) (*challenge.StoredQuestion, error) {
	rec, err := challenge.NewStoredQuestion(q, theme, level, r.now(), r.retention)
	if err != nil {
		return nil, err
	}
	if err := r.insert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *ChallengeRepo) insert(ctx context.Context, rec *challenge.StoredQuestion) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(challengesTable).
		Columns(challengeColumns...).
		Values(
			rec.PartitionKey, rec.SortKey, rec.ID, rec.Theme, rec.Level, rec.Text, rec.Prompt,
			rec.CreatedAt.UnixNano(), rec.Expiry.UnixNano(), rec.SourceModel,
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isConstraintErr(err) {
			return fmt.Errorf("save challenge %s: %w", rec.ID, ErrDuplicate)
		}
		return fmt.Errorf("save challenge %s: %w", rec.ID, err)
	}
	return nil
}

// List returns stored questions newest first, including expired rows that
// have not been purged yet. An empty theme lists every pair.
func (r *ChallengeRepo) List(ctx context.Context, theme, level string, limit int) ([]challenge.StoredQuestion, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(challengeColumns...).
		From(entsql.Table(challengesTable)).
		OrderBy(entsql.Desc("created_at"))
	if theme != "" {
		sel.Where(entsql.EQ("pk", challenge.PartitionKey(theme, level)))
	}
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()
	return r.query(ctx, query, args)
}

// Count returns the number of stored questions, expired rows included.
func (r *ChallengeRepo) Count(ctx context.Context) (int, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(entsql.Count("*")).
		From(entsql.Table(challengesTable)).
		Query()
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count challenges: %w", err)
	}
	return n, nil
}

// PurgeExpired deletes rows whose expiry has passed and returns how many
// were removed.
func (r *ChallengeRepo) PurgeExpired(ctx context.Context) (int64, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(challengesTable).
		Where(entsql.LTE("expires_at", r.now().UTC().UnixNano())).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("purge expired challenges: %w", err)
	}
	return res.RowsAffected()
}

func (r *ChallengeRepo) query(ctx context.Context, query string, args []any) ([]challenge.StoredQuestion, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query challenges: %w", err)
	}
	defer rows.Close()

	var out []challenge.StoredQuestion
	for rows.Next() {
		var (
			q                  challenge.StoredQuestion
			created, expiresAt int64
		)
		err := rows.Scan(
			&q.PartitionKey, &q.SortKey, &q.ID, &q.Theme, &q.Level, &q.Text, &q.Prompt,
			&created, &expiresAt, &q.SourceModel,
		)
		if err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		q.CreatedAt = time.Unix(0, created).UTC()
		q.Expiry = time.Unix(0, expiresAt).UTC()
		out = append(out, q)
	}
	return out, rows.Err()
}

func isConstraintErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
