package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/adminzone/backend/core"
)

type (
	// Repository is append-only: audit entries are never updated nor deleted.
	Repository interface {
		CreateEntry(ctx context.Context, entry Entry, exec ...core.DBExecutor) (Entry, error)
		QueryEntries(ctx context.Context, filter QueryFilter, page core.PageRequest, exec ...core.DBExecutor) ([]Entry, int64, error)
	}

	// Recorder records mutations and authentication events.
	Recorder interface {
		// Record persists an entry for a mutation through exec, the transaction running the mutation.
		// The actor is read from ctx (see core.WithActor).
		Record(ctx context.Context, exec core.DBExecutor, action, entity string, entityID *int64, payload interface{}) error
		// RecordAuthEvent persists an authentication event outside any business transaction.
		RecordAuthEvent(ctx context.Context, action, username, ip string) error
	}

	Service struct {
		repo   Repository
		logger core.Logger
		now    func() time.Time
	}
)

var _ Recorder = (*Service)(nil) // interface compliance check

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (svc *Service) Record(
	ctx context.Context,
	exec core.DBExecutor,
	action, entity string,
	entityID *int64,
	payload interface{},
) error {
	actor := core.ActorFromContext(ctx)
	entry := Entry{
		Username:  actor.Username,
		IP:        actor.IP,
		Action:    action,
		EntityID:  entityID,
		Timestamp: svc.now().UTC(),
	}
	if entity != "" {
		entry.Entity = &entity
	}
	if payload != nil {
		snapshot := svc.serialize(payload)
		entry.PayloadJSON = &snapshot
	}
	return svc.persist(ctx, entry, exec)
}

func (svc *Service) RecordAuthEvent(ctx context.Context, action, username, ip string) error {
	actor := core.ActorFromContext(core.WithActor(ctx, core.Actor{Username: username, IP: ip}))
	entity := EntityAuth
	entry := Entry{
		Username:  actor.Username,
		IP:        actor.IP,
		Action:    action,
		Entity:    &entity,
		Timestamp: svc.now().UTC(),
	}
	return svc.persist(ctx, entry, nil)
}

func (svc *Service) persist(ctx context.Context, entry Entry, exec core.DBExecutor) error {
	var execs []core.DBExecutor
	if exec != nil {
		execs = append(execs, exec)
	}
	entry, err := svc.repo.CreateEntry(ctx, entry, execs...)
	if err != nil {
		return errors.Wrap(err, "persisting audit entry")
	}

	target := "-"
	if entry.Entity != nil {
		target = *entry.Entity
	}
	if entry.EntityID != nil {
		target = fmt.Sprintf("%s#%d", target, *entry.EntityID)
	}
	svc.logger.Debug(fmt.Sprintf("audit: %s %s by %s from %s", entry.Action, target, entry.Username, entry.IP))
	return nil
}

// serialize returns the JSON form of payload, or its default string form if it cannot be encoded.
func (svc *Service) serialize(payload interface{}) string {
	data, err := json.Marshal(payload)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("audit: could not serialize %T payload, storing its string form", payload), err)
		return fmt.Sprintf("%+v", payload)
	}
	return string(data)
}

// Query returns the entries matching filter, newest first.
func (svc *Service) Query(ctx context.Context, filter QueryFilter, page core.PageRequest) (core.Page[Entry], error) {
	filter.Clean()
	page = page.Clean(DefaultPageSize, MaxPageSize)

	entries, total, err := svc.repo.QueryEntries(ctx, filter, page)
	if err != nil {
		return core.Page[Entry]{}, errors.Wrap(err, "querying audit entries")
	}
	return core.NewPage(entries, page, total), nil
}
