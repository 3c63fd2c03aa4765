package backfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	// ErrNoTargets is returned when Run is called without targets.
	ErrNoTargets = errors.New("no backfill targets")

	// ErrInvalidTarget is returned for a target without a table.
	ErrInvalidTarget = errors.New("invalid backfill target")
)

// Target is one table whose rows without a tenant get claimed.
// Where optionally narrows the claimed rows; "?" placeholders bind Args.
type Target struct {
	Table  string
	Column string // defaults to tenant_id
	Where  string
	Args   []any
}

func (t Target) column() string {
	if t.Column == "" {
		return "tenant_id"
	}
	return t.Column
}

func (t Target) label() string {
	return t.Table + "." + t.column()
}

type Options struct {
	// DryRun counts the rows that would change and rolls back.
	DryRun bool
	Logger *slog.Logger
}

// Result reports rows claimed per target, in target order.
type Result struct {
	Target string
	Rows   int64
}

// Run assigns tenantID to every row of each target whose tenant column is NULL.
// All targets run in one transaction; a failure in any target leaves all of them untouched.
// Rows that already have a tenant are never modified.
func Run(ctx context.Context, db *sqlx.DB, tenantID uuid.UUID, targets []Target, opts Options) ([]Result, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	for _, t := range targets {
		if t.Table == "" {
			return nil, ErrInvalidTarget
		}
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	sb := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	results := make([]Result, 0, len(targets))

	for _, t := range targets {
		pred := sq.And{sq.Eq{t.column(): nil}}
		if t.Where != "" {
			pred = append(pred, sq.Expr(t.Where, t.Args...))
		}

		var n int64
		if opts.DryRun {
			query, args, err := sb.Select("count(*)").From(t.Table).Where(pred).ToSql()
			if err != nil {
				return nil, err
			}
			if err := tx.GetContext(ctx, &n, query, args...); err != nil {
				return nil, fmt.Errorf("backfill %s: %w", t.label(), err)
			}
		} else {
			query, args, err := sb.Update(t.Table).Set(t.column(), tenantID).Where(pred).ToSql()
			if err != nil {
				return nil, err
			}
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return nil, fmt.Errorf("backfill %s: %w", t.label(), err)
			}
			if n, err = res.RowsAffected(); err != nil {
				return nil, err
			}
		}

		log.InfoContext(ctx, "backfill target",
			slog.String("target", t.label()),
			slog.Int64("rows", n),
			slog.Bool("dry_run", opts.DryRun),
		)
		results = append(results, Result{Target: t.label(), Rows: n})
	}

	if opts.DryRun {
		return results, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return results, nil
}

// Total sums the rows of all results.
func Total(results []Result) int64 {
	var total int64
	for _, r := range results {
		total += r.Rows
	}
	return total
}
