package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/audit"
)

type auditRepository struct {
	repository
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(exec core.DBExecutor) *auditRepository {
	return &auditRepository{repository{exec: exec}}
}

func (repo auditRepository) filter(f audit.QueryFilter) sq.And {
	conds := sq.And{}
	if f.Username != "" {
		conds = append(conds, sq.Eq{"username": f.Username})
	}
	if f.Entity != "" {
		conds = append(conds, sq.Eq{"entity": f.Entity})
	}
	if f.EntityID != nil {
		conds = append(conds, sq.Eq{"entity_id": *f.EntityID})
	}
	return conds
}

func (repo auditRepository) CreateEntry(ctx context.Context, entry audit.Entry, exec ...core.DBExecutor) (audit.Entry, error) {
	query := qb.Insert("audit_log").
		Columns("username", "ip", "action", "entity", "entity_id", "payload_json", "logged_at").
		Values(entry.Username, entry.IP, entry.Action, entry.Entity, entry.EntityID, entry.PayloadJSON, entry.Timestamp.UTC())

	id, err := repo.insertReturningID(ctx, repo.getExec(exec), query)
	if err != nil {
		return audit.Entry{}, errors.Wrap(err, "inserting audit entry")
	}
	entry.ID = id
	return entry, nil
}

func (repo auditRepository) QueryEntries(
	ctx context.Context,
	filter audit.QueryFilter,
	page core.PageRequest,
	exec ...core.DBExecutor,
) ([]audit.Entry, int64, error) {
	e := repo.getExec(exec)
	conds := repo.filter(filter)

	total, err := repo.count(ctx, e, qb.Select("COUNT(*)").From("audit_log").Where(conds))
	if err != nil {
		return nil, 0, err
	}

	query := qb.Select("id", "username", "ip", "action", "entity", "entity_id", "payload_json", "logged_at").
		From("audit_log").
		Where(conds).
		OrderBy("logged_at DESC", "id DESC").
		Limit(page.Limit()).
		Offset(page.Offset())

	entries := make([]audit.Entry, 0)
	if err = repo.selectAll(ctx, e, &entries, query); err != nil {
		return nil, 0, errors.Wrap(err, "selecting audit entries")
	}
	for i := range entries {
		entries[i].Timestamp = entries[i].Timestamp.UTC()
	}
	return entries, total, nil
}
