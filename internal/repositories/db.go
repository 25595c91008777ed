package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool the repositories use. pgxmock pools
// satisfy it too.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// createdAtRange renders the created_at bounds of a report filter starting at
// placeholder $1. to is exclusive and already moved to the next day.
func createdAtRange(alias string, from, to *time.Time) (string, []any) {
	var (
		where []string
		args  []any
	)
	if from != nil {
		args = append(args, dayStart(*from))
		where = append(where, fmt.Sprintf("%s.created_at >= $%d", alias, len(args)))
	}
	if to != nil {
		args = append(args, dayStart(*to).AddDate(0, 0, 1))
		where = append(where, fmt.Sprintf("%s.created_at < $%d", alias, len(args)))
	}
	return strings.Join(where, " AND "), args
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
