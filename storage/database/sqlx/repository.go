package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/adminzone/backend/core"
)

// qb builds queries with "?" placeholders; they are rebound to the driver's bindvar before running.
var qb = sq.StatementBuilder.PlaceholderFormat(sq.Question)

type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

func (repo repository) trapNoRowsErr(err error, notFound error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return err
}

func (repo repository) get(ctx context.Context, exec core.DBExecutor, dest interface{}, query sq.Sqlizer) error {
	q, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.GetContext(ctx, exec, dest, exec.Rebind(q), args...)
}

func (repo repository) selectAll(ctx context.Context, exec core.DBExecutor, dest interface{}, query sq.Sqlizer) error {
	q, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.SelectContext(ctx, exec, dest, exec.Rebind(q), args...)
}

func (repo repository) count(ctx context.Context, exec core.DBExecutor, query sq.SelectBuilder) (int64, error) {
	var total int64
	if err := repo.get(ctx, exec, &total, query); err != nil {
		return 0, errors.Wrap(err, "counting rows")
	}
	return total, nil
}

// execute runs query and returns the number of affected rows.
func (repo repository) execute(ctx context.Context, exec core.DBExecutor, query sq.Sqlizer) (int64, error) {
	q, args, err := query.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := exec.ExecContext(ctx, exec.Rebind(q), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// insertReturningID runs an INSERT ... RETURNING id.
func (repo repository) insertReturningID(ctx context.Context, exec core.DBExecutor, query sq.InsertBuilder) (int64, error) {
	var id int64
	if err := repo.get(ctx, exec, &id, query.Suffix("RETURNING id")); err != nil {
		return 0, err
	}
	return id, nil
}

// likeAny matches the lower-cased search term against any of columns.
func likeAny(search string, columns ...string) sq.Or {
	pattern := "%" + strings.ToLower(search) + "%"
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.Like{"LOWER(" + col + ")": pattern})
	}
	return or
}
