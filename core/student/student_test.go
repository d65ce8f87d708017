package student_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/attendance"
	"github.com/adminzone/backend/core/audit"
	"github.com/adminzone/backend/core/student"
	"github.com/adminzone/backend/tests"
)

func newStudent(lastName, firstName, email string) student.NewStudent {
	return student.NewStudent{
		LastName:    lastName,
		FirstName:   firstName,
		Email:       email,
		Phone:       "0722000000",
		YearOfStudy: 2,
	}
}

func TestService_Update_audit(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := core.WithActor(context.Background(), core.Actor{Username: "admin", IP: "10.0.0.5"})

	st := testutil.CreateStudent(t, env.StudentRepo, "Popa", "Ion", "ion@uni.ro")
	data := student.UpdateStudent(newStudent("Pop", "Ion", "ion@uni.ro"))
	require.NoError(t, data.Validate(env.Validate))

	updated, err := env.StudentSvc.Update(ctx, st.ID, data)
	require.NoError(t, err)
	assert.Equal(t, "Pop", updated.LastName)

	entries, _, err := env.AuditRepo.QueryEntries(ctx, audit.QueryFilter{Entity: student.EntityName}, core.PageRequest{Size: 10})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "admin", entry.Username)
	assert.Equal(t, "10.0.0.5", entry.IP)
	assert.Equal(t, audit.ActionUpdate, entry.Action)
	require.NotNil(t, entry.Entity)
	assert.Equal(t, "Student", *entry.Entity)
	require.NotNil(t, entry.EntityID)
	assert.Equal(t, st.ID, *entry.EntityID)
	require.NotNil(t, entry.PayloadJSON)
	assert.Contains(t, *entry.PayloadJSON, `"nume":"Pop"`)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestService_Create(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	st, err := env.StudentSvc.Create(ctx, newStudent("Popescu", "Ion", "ion@uni.ro"))
	require.NoError(t, err)
	assert.NotZero(t, st.ID)
	assert.False(t, st.CreatedAt.IsZero())

	entries := env.AuditEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionCreate, entries[0].Action)
	assert.Equal(t, core.AnonymousUsername, entries[0].Username)
	assert.Equal(t, core.UnknownIP, entries[0].IP)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := env.StudentSvc.Create(ctx, newStudent("Ionescu", "Ana", "ion@uni.ro"))
		assert.Equal(t, student.ErrEmailExists, errors.Cause(err))
		assert.Len(t, env.AuditEntries(t), 1)
	})

	t.Run("update keeps own email", func(t *testing.T) {
		_, err := env.StudentSvc.Update(ctx, st.ID, student.UpdateStudent(newStudent("Popescu", "Ionel", "ion@uni.ro")))
		assert.NoError(t, err)
	})

	t.Run("update to another student's email", func(t *testing.T) {
		other := testutil.CreateStudent(t, env.StudentRepo, "Ionescu", "Ana", "ana@uni.ro")
		_, err := env.StudentSvc.Update(ctx, other.ID, student.UpdateStudent(newStudent("Ionescu", "Ana", "ion@uni.ro")))
		assert.Equal(t, student.ErrEmailExists, errors.Cause(err))
	})
}

func TestNewStudent_Validate(t *testing.T) {
	validate := testutil.NewValidator()

	tests := []struct {
		name    string
		data    student.NewStudent
		wantErr bool
	}{
		{name: "valid", data: newStudent("Popescu", "Ion", " ION@uni.ro ")},
		{name: "missing name", data: newStudent("", "Ion", "ion@uni.ro"), wantErr: true},
		{name: "invalid email", data: newStudent("Popescu", "Ion", "ion"), wantErr: true},
		{name: "year out of range", data: student.NewStudent{LastName: "P", FirstName: "I", Email: "i@u.ro", YearOfStudy: 7}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.data.Validate(validate)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "ion@uni.ro", tc.data.Email)
			}
		})
	}
}

func TestService_Query(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	testutil.CreateStudent(t, env.StudentRepo, "Popescu", "Ion", "ion@uni.ro")
	testutil.CreateStudent(t, env.StudentRepo, "Ionescu", "Ana", "ana@uni.ro")
	testutil.CreateStudent(t, env.StudentRepo, "Georgescu", "Maria", "maria@uni.ro")

	tests := []struct {
		name      string
		filter    student.QueryFilter
		ordering  []core.DBOrdering
		page      core.PageRequest
		wantTotal int64
		wantFirst string
		wantLen   int
	}{
		{name: "all", wantTotal: 3, wantLen: 3},
		{name: "search", filter: student.QueryFilter{Search: "ION"}, wantTotal: 2, wantLen: 2},
		{name: "ordering", ordering: []core.DBOrdering{{Field: "nume", Ascending: true}}, wantTotal: 3, wantLen: 3, wantFirst: "Georgescu"},
		{name: "paging", ordering: []core.DBOrdering{{Field: "nume", Ascending: false}}, page: core.PageRequest{Page: 1, Size: 2}, wantTotal: 3, wantLen: 1, wantFirst: "Georgescu"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			page, err := env.StudentSvc.Query(ctx, tc.filter, tc.ordering, tc.page)
			require.NoError(t, err)
			assert.Equal(t, tc.wantTotal, page.TotalElements)
			require.Len(t, page.Data, tc.wantLen)
			if tc.wantFirst != "" {
				assert.Equal(t, tc.wantFirst, page.Data[0].LastName)
			}
		})
	}
}

func TestService_Delete(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	st := testutil.CreateStudent(t, env.StudentRepo, "Popescu", "Ion", "ion@uni.ro")
	crs := testutil.CreateCourse(t, env.CourseRepo, "Algebra", 5, 1)
	testutil.CreateAttendance(t, env.AttendanceRepo, st.ID, crs.ID, 1, 3)

	require.NoError(t, env.StudentSvc.Delete(ctx, st.ID))

	_, err := env.StudentSvc.Get(ctx, st.ID)
	assert.Equal(t, student.ErrNotFound, errors.Cause(err))

	records, err := env.AttendanceRepo.QueryAllAttendance(ctx, attendance.QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)

	entries := env.AuditEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionDelete, entries[0].Action)
	require.NotNil(t, entries[0].PayloadJSON)
	assert.Contains(t, *entries[0].PayloadJSON, `"email":"ion@uni.ro"`)
}
