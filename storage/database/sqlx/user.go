package sqlxrepos

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/user"
)

// userRow is the storage form of user.User: roles are kept as a comma-separated list.
type userRow struct {
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Enabled      bool      `db:"enabled"`
	Roles        string    `db:"roles"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func newUserRow(usr user.User) userRow {
	return userRow{
		Username:     usr.Username,
		PasswordHash: string(usr.PasswordHash),
		Enabled:      usr.Enabled,
		Roles:        strings.Join(usr.Roles, ","),
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
	}
}

func (row userRow) toUser() user.User {
	roles := make([]string, 0)
	for _, role := range strings.Split(row.Roles, ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return user.User{
		Username:     row.Username,
		PasswordHash: []byte(row.PasswordHash),
		Enabled:      row.Enabled,
		Roles:        roles,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{repository{exec: exec}}
}

func (repo userRepository) selectUsers() sq.SelectBuilder {
	return qb.Select("username", "password_hash", "enabled", "roles", "created_at", "updated_at").From("users")
}

func (repo userRepository) filter(f user.QueryFilter) sq.And {
	conds := sq.And{}
	if f.Search != "" {
		conds = append(conds, likeAny(f.Search, "username"))
	}
	if f.Role != "" {
		// exact match within the comma-separated list
		conds = append(conds, sq.Like{"',' || roles || ','": "%," + f.Role + ",%"})
	}
	if f.Enabled != nil {
		conds = append(conds, sq.Eq{"enabled": *f.Enabled})
	}
	return conds
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	row := newUserRow(usr)
	query := qb.Insert("users").
		Columns("username", "password_hash", "enabled", "roles", "created_at", "updated_at").
		Values(row.Username, row.PasswordHash, row.Enabled, row.Roles, row.CreatedAt, row.UpdatedAt)

	if _, err := repo.execute(ctx, repo.getExec(exec), query); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return row.toUser(), nil
}

func (repo userRepository) GetUser(ctx context.Context, username string, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	if err := repo.get(ctx, repo.getExec(exec), &row, repo.selectUsers().Where(sq.Eq{"username": username})); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, user.ErrNotFound)
	}
	return row.toUser(), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, page core.PageRequest, exec ...core.DBExecutor) ([]user.User, int64, error) {
	e := repo.getExec(exec)
	conds := repo.filter(filter)

	total, err := repo.count(ctx, e, qb.Select("COUNT(*)").From("users").Where(conds))
	if err != nil {
		return nil, 0, err
	}

	query := repo.selectUsers().
		Where(conds).
		OrderBy("username ASC").
		Limit(page.Limit()).
		Offset(page.Offset())

	var rows []userRow
	if err = repo.selectAll(ctx, e, &rows, query); err != nil {
		return nil, 0, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, total, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	row := newUserRow(usr)
	query := qb.Update("users").
		SetMap(map[string]interface{}{
			"password_hash": row.PasswordHash,
			"enabled":       row.Enabled,
			"roles":         row.Roles,
			"updated_at":    row.UpdatedAt,
		}).
		Where(sq.Eq{"username": row.Username})

	affected, err := repo.execute(ctx, repo.getExec(exec), query)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if affected == 0 {
		return user.User{}, user.ErrNotFound
	}
	return row.toUser(), nil
}

func (repo userRepository) DeleteUser(ctx context.Context, username string, exec ...core.DBExecutor) error {
	affected, err := repo.execute(ctx, repo.getExec(exec), qb.Delete("users").Where(sq.Eq{"username": username}))
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}
