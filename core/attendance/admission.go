package attendance

import (
	"context"

	"github.com/pkg/errors"

	"github.com/adminzone/backend/core"
)

// AdmissionRule bounds the number of attendance records per Triple.
type AdmissionRule struct {
	repo Repository
	max  int
}

func NewAdmissionRule(repo Repository, conf *core.Config) *AdmissionRule {
	return &AdmissionRule{repo: repo, max: conf.Attendance.MaxPerSemester}
}

func (rule *AdmissionRule) Max() int {
	return rule.max
}

// CheckAndAdmit fails with a *core.LimitExceededError when triple already holds the maximum of records,
// excludedID (if any) not counted.
// It must run inside the transaction that persists the record: the triple is locked until that
// transaction ends, so concurrent admissions on the same triple are serialized.
func (rule *AdmissionRule) CheckAndAdmit(ctx context.Context, tx core.DBExecutor, triple Triple, excludedID *int64) error {
	if err := rule.repo.LockTriple(ctx, triple, tx); err != nil {
		return errors.Wrap(err, "locking attendance triple")
	}

	count, err := rule.repo.CountByTriple(ctx, triple, excludedID, tx)
	if err != nil {
		return errors.Wrap(err, "counting attendance records")
	}
	if count >= int64(rule.max) {
		return core.NewLimitExceededError(triple.Semester, rule.max)
	}
	return nil
}
