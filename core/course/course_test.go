package course_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/audit"
	"github.com/adminzone/backend/core/course"
	"github.com/adminzone/backend/tests"
)

func TestNewCourse_Validate(t *testing.T) {
	validate := testutil.NewValidator()

	tests := []struct {
		name    string
		data    course.NewCourse
		wantErr bool
	}{
		{name: "valid", data: course.NewCourse{Name: " Algebra ", Professor: "Prof. Ionescu", Credits: 5, Semester: 1}},
		{name: "no credits", data: course.NewCourse{Name: "Algebra", Professor: "Prof. Ionescu", Semester: 1}, wantErr: true},
		{name: "bad semester", data: course.NewCourse{Name: "Algebra", Professor: "Prof. Ionescu", Credits: 5, Semester: 3}, wantErr: true},
		{name: "no professor", data: course.NewCourse{Name: "Algebra", Credits: 5, Semester: 2}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.data.Validate(validate)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "Algebra", tc.data.Name)
			}
		})
	}
}

func TestService(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	crs, err := env.CourseSvc.Create(ctx, course.NewCourse{Name: "Algebra", Professor: "Prof. Ionescu", Credits: 5, Semester: 1})
	require.NoError(t, err)
	_, err = env.CourseSvc.Create(ctx, course.NewCourse{Name: "Fizica", Professor: "Prof. Marin", Credits: 4, Semester: 2})
	require.NoError(t, err)

	t.Run("query", func(t *testing.T) {
		tests := []struct {
			name      string
			filter    course.QueryFilter
			wantTotal int64
		}{
			{name: "all", wantTotal: 2},
			{name: "by professor", filter: course.QueryFilter{Search: "marin"}, wantTotal: 1},
			{name: "by semester", filter: course.QueryFilter{Semester: &crs.Semester}, wantTotal: 1},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				page, err := env.CourseSvc.Query(ctx, tc.filter, nil, core.PageRequest{})
				require.NoError(t, err)
				assert.Equal(t, tc.wantTotal, page.TotalElements)
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		got, err := env.CourseSvc.Update(ctx, crs.ID, course.UpdateCourse{Name: "Algebra liniara", Professor: "Prof. Ionescu", Credits: 6, Semester: 1})
		require.NoError(t, err)
		assert.Equal(t, "Algebra liniara", got.Name)
		assert.Equal(t, 6, got.Credits)

		_, err = env.CourseSvc.Update(ctx, 999, course.UpdateCourse{Name: "X", Professor: "Y", Credits: 1, Semester: 1})
		assert.Equal(t, course.ErrNotFound, errors.Cause(err))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, env.CourseSvc.Delete(ctx, crs.ID))
		_, err := env.CourseSvc.Get(ctx, crs.ID)
		assert.Equal(t, course.ErrNotFound, errors.Cause(err))

		page, err := env.AuditSvc.Query(ctx, audit.QueryFilter{Entity: course.EntityName, EntityID: &crs.ID}, core.PageRequest{})
		require.NoError(t, err)
		require.Len(t, page.Data, 3)
		assert.Equal(t, audit.ActionDelete, page.Data[0].Action)
		assert.Equal(t, audit.ActionUpdate, page.Data[1].Action)
		assert.Equal(t, audit.ActionCreate, page.Data[2].Action)
	})
}
