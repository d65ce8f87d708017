package user

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/audit"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user")
	ErrUsernameExists     = core.NewDuplicateError("username", "a user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUser(ctx context.Context, username string, exec ...core.DBExecutor) (User, error)
		QueryUsers(ctx context.Context, filter QueryFilter, page core.PageRequest, exec ...core.DBExecutor) ([]User, int64, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		DeleteUser(ctx context.Context, username string, exec ...core.DBExecutor) error
	}

	Service struct {
		db      core.DB
		repo    Repository
		auditor audit.Recorder
	}
)

func NewService(db core.DB, repo Repository, auditor audit.Recorder) *Service {
	return &Service{db: db, repo: repo, auditor: auditor}
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	var usr User
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		uname := core.CleanString(nu.Username, true /* lower */)
		_, err := svc.repo.GetUser(ctx, uname, tx)
		switch {
		case err == nil:
			return ErrUsernameExists
		case errors.Cause(err) != ErrNotFound:
			return errors.Wrap(err, "checking username")
		}

		now := time.Now().UTC()
		newUsr := User{
			Username:  uname,
			Enabled:   nu.Enabled == nil || *nu.Enabled,
			Roles:     NormalizeRoles(nu.Roles),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = newUsr.SetPassword(nu.Password); err != nil {
			return errors.Wrap(err, "hashing password")
		}
		if usr, err = svc.repo.CreateUser(ctx, newUsr, tx); err != nil {
			return errors.Wrap(err, "creating user")
		}

		return svc.auditor.Record(ctx, tx, audit.ActionCreate, EntityName, nil, usr.auditPayload())
	})
	return usr, err
}

func (svc *Service) Get(ctx context.Context, username string) (User, error) {
	return svc.repo.GetUser(ctx, core.CleanString(username, true /* lower */))
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, page core.PageRequest) (core.Page[User], error) {
	filter.Clean()
	page = page.Clean(core.DefaultPageSize, core.MaxPageSize)

	users, total, err := svc.repo.QueryUsers(ctx, filter, page)
	if err != nil {
		return core.Page[User]{}, errors.Wrap(err, "querying users")
	}
	return core.NewPage(users, page, total), nil
}

// Update changes the set fields of uu. An empty password keeps the current one.
func (svc *Service) Update(ctx context.Context, username string, uu UpdateUser) (User, error) {
	var usr User
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		existing, err := svc.repo.GetUser(ctx, core.CleanString(username, true /* lower */), tx)
		if err != nil {
			return err
		}

		if uu.Enabled != nil {
			existing.Enabled = *uu.Enabled
		}
		if uu.Roles != nil {
			existing.Roles = NormalizeRoles(uu.Roles)
		}
		if uu.Password != "" {
			if err = existing.SetPassword(uu.Password); err != nil {
				return errors.Wrap(err, "hashing password")
			}
		}
		existing.UpdatedAt = time.Now().UTC()

		if usr, err = svc.repo.UpdateUser(ctx, existing, tx); err != nil {
			return errors.Wrap(err, "updating user")
		}

		payload := usr.auditPayload()
		payload["passwordChanged"] = uu.Password != ""
		return svc.auditor.Record(ctx, tx, audit.ActionUpdate, EntityName, nil, payload)
	})
	return usr, err
}

func (svc *Service) Delete(ctx context.Context, username string) error {
	return core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		before, err := svc.repo.GetUser(ctx, core.CleanString(username, true /* lower */), tx)
		if err != nil {
			return err
		}
		if err = svc.repo.DeleteUser(ctx, before.Username, tx); err != nil {
			return errors.Wrap(err, "deleting user")
		}
		return svc.auditor.Record(ctx, tx, audit.ActionDelete, EntityName, nil, before.auditPayload())
	})
}

// Authenticate returns the enabled user matching the credentials.
func (svc *Service) Authenticate(ctx context.Context, username, pwd string) (User, error) {
	usr, err := svc.Get(ctx, username)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.Enabled {
		return User{}, ErrAccountDisabled
	}
	return usr, nil
}
