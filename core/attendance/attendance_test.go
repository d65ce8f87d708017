package attendance_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/attendance"
	"github.com/adminzone/backend/core/course"
	"github.com/adminzone/backend/core/student"
	"github.com/adminzone/backend/tests"
)

func newAttendance(studentID, courseID int64, semester, day int) attendance.NewAttendance {
	return attendance.NewAttendance{
		StudentID: studentID,
		CourseID:  courseID,
		Date:      core.NewDate(2024, time.November, day),
		Semester:  semester,
		Status:    attendance.StatusPresent,
	}
}

func TestService_Create_admission(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	st := testutil.CreateStudent(t, env.StudentRepo, "Popescu", "Ion", "ion@uni.ro")
	crs := testutil.CreateCourse(t, env.CourseRepo, "Algebra", 5, 1)

	for i := 1; i <= 14; i++ {
		_, err := env.AttendanceSvc.Create(ctx, newAttendance(st.ID, crs.ID, 1, i))
		require.NoError(t, err, "record #%d", i)
	}

	_, err := env.AttendanceSvc.Create(ctx, newAttendance(st.ID, crs.ID, 1, 15))
	require.Error(t, err)
	var limitErr *core.LimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 14, limitErr.Max)
	assert.Equal(t, 1, limitErr.Semester)
	assert.Contains(t, err.Error(), "14")
	assert.Contains(t, err.Error(), "semester 1")

	count, err := env.AttendanceRepo.CountByTriple(ctx, attendance.Triple{StudentID: st.ID, CourseID: crs.ID, Semester: 1}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 14, count)

	t.Run("other semester is admitted", func(t *testing.T) {
		_, err := env.AttendanceSvc.Create(ctx, newAttendance(st.ID, crs.ID, 2, 1))
		assert.NoError(t, err)
	})

	t.Run("other student is admitted", func(t *testing.T) {
		other := testutil.CreateStudent(t, env.StudentRepo, "Ionescu", "Ana", "ana@uni.ro")
		_, err := env.AttendanceSvc.Create(ctx, newAttendance(other.ID, crs.ID, 1, 1))
		assert.NoError(t, err)
	})
}

func TestService_Create_errors(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	st := testutil.CreateStudent(t, env.StudentRepo, "Popescu", "Ion", "ion@uni.ro")
	crs := testutil.CreateCourse(t, env.CourseRepo, "Algebra", 5, 1)

	tests := []struct {
		name    string
		data    attendance.NewAttendance
		wantErr error
	}{
		{name: "unknown student", data: newAttendance(999, crs.ID, 1, 1), wantErr: student.ErrNotFound},
		{name: "unknown course", data: newAttendance(st.ID, 999, 1, 1), wantErr: course.ErrNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := len(env.AuditEntries(t))
			_, err := env.AttendanceSvc.Create(ctx, tc.data)
			assert.Equal(t, tc.wantErr, errors.Cause(err))
			assert.Len(t, env.AuditEntries(t), before)
		})
	}
}

func TestService_Create_rejectedIsNotAudited(t *testing.T) {
	env := testutil.NewEnv(t)
	st := testutil.CreateStudent(t, env.StudentRepo, "Popescu", "Ion", "ion@uni.ro")
	crs := testutil.CreateCourse(t, env.CourseRepo, "Algebra", 5, 1)
	testutil.CreateAttendance(t, env.AttendanceRepo, st.ID, crs.ID, 1, 14)

	_, err := env.AttendanceSvc.Create(context.Background(), newAttendance(st.ID, crs.ID, 1, 20))
	require.Error(t, err)
	assert.Empty(t, env.AuditEntries(t))
}

func TestService_Update_admission(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	st := testutil.CreateStudent(t, env.StudentRepo, "Popescu", "Ion", "ion@uni.ro")
	crs := testutil.CreateCourse(t, env.CourseRepo, "Algebra", 5, 1)
	testutil.CreateAttendance(t, env.AttendanceRepo, st.ID, crs.ID, 1, 14)

	full, _, err := env.AttendanceRepo.QueryAttendance(ctx, attendance.QueryFilter{Semester: intPtr(1)}, nil, core.PageRequest{Size: 1})
	require.NoError(t, err)
	require.Len(t, full, 1)

	other, err := env.AttendanceSvc.Create(ctx, newAttendance(st.ID, crs.ID, 2, 1))
	require.NoError(t, err)

	t.Run("same triple is never rejected", func(t *testing.T) {
		data := attendance.UpdateAttendance(newAttendance(st.ID, crs.ID, 1, 28))
		data.Status = attendance.StatusExcused
		att, err := env.AttendanceSvc.Update(ctx, full[0].ID, data)
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusExcused, att.Status)
		assert.Equal(t, "2024-11-28", att.Date.String())
		assertUpdateAudited(t, env, att.ID)
	})

	t.Run("moving into a full triple is rejected", func(t *testing.T) {
		before := len(env.AuditEntries(t))
		_, err := env.AttendanceSvc.Update(ctx, other.ID, attendance.UpdateAttendance(newAttendance(st.ID, crs.ID, 1, 2)))
		var limitErr *core.LimitExceededError
		assert.True(t, errors.As(err, &limitErr))

		unchanged, err := env.AttendanceSvc.Get(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, unchanged.Semester)
		assert.Len(t, env.AuditEntries(t), before)
	})

	t.Run("moving into a triple with room is admitted", func(t *testing.T) {
		crs2 := testutil.CreateCourse(t, env.CourseRepo, "Analiza", 4, 1)
		testutil.CreateAttendance(t, env.AttendanceRepo, st.ID, crs2.ID, 1, 13)

		att, err := env.AttendanceSvc.Update(ctx, other.ID, attendance.UpdateAttendance(newAttendance(st.ID, crs2.ID, 1, 3)))
		require.NoError(t, err)
		assert.Equal(t, crs2.ID, att.CourseID)
		assert.Equal(t, "Analiza", att.CourseName)
		assertUpdateAudited(t, env, other.ID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := env.AttendanceSvc.Update(ctx, 999, attendance.UpdateAttendance(newAttendance(st.ID, crs.ID, 1, 2)))
		assert.Equal(t, attendance.ErrNotFound, errors.Cause(err))
	})
}

func TestAdmissionRule_configurableMax(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Conf.Attendance.MaxPerSemester = 2
	rule := attendance.NewAdmissionRule(env.AttendanceRepo, env.Conf)
	svc := attendance.NewService(env.DB, env.AttendanceRepo, env.StudentRepo, env.CourseRepo, rule, env.AuditSvc)
	ctx := context.Background()

	st := testutil.CreateStudent(t, env.StudentRepo, "Popescu", "Ion", "ion@uni.ro")
	crs := testutil.CreateCourse(t, env.CourseRepo, "Algebra", 5, 1)

	assert.Equal(t, 2, rule.Max())
	for i := 1; i <= 2; i++ {
		_, err := svc.Create(ctx, newAttendance(st.ID, crs.ID, 1, i))
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, newAttendance(st.ID, crs.ID, 1, 3))
	assert.EqualError(t, errors.Cause(err), core.NewLimitExceededError(1, 2).Error())
}

func TestService_Create_concurrent(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	st := testutil.CreateStudent(t, env.StudentRepo, "Popescu", "Ion", "ion@uni.ro")
	crs := testutil.CreateCourse(t, env.CourseRepo, "Algebra", 5, 1)
	testutil.CreateAttendance(t, env.AttendanceRepo, st.ID, crs.ID, 1, 10)

	const workers = 12
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			_, err := env.AttendanceSvc.Create(ctx, newAttendance(st.ID, crs.ID, 1, day))
			mu.Lock()
			defer mu.Unlock()
			var limitErr *core.LimitExceededError
			switch {
			case err == nil:
				admitted++
			case errors.As(err, &limitErr):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i + 1)
	}
	wg.Wait()

	assert.Equal(t, 4, admitted)
	assert.Equal(t, workers-4, rejected)
	count, err := env.AttendanceRepo.CountByTriple(ctx, attendance.Triple{StudentID: st.ID, CourseID: crs.ID, Semester: 1}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 14, count)
}

func TestService_Query(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ion := testutil.CreateStudent(t, env.StudentRepo, "Popescu", "Ion", "ion@uni.ro")
	ana := testutil.CreateStudent(t, env.StudentRepo, "Ionescu", "Ana", "ana@uni.ro")
	algebra := testutil.CreateCourse(t, env.CourseRepo, "Algebra", 5, 1)
	fizica := testutil.CreateCourse(t, env.CourseRepo, "Fizica", 4, 2)
	testutil.CreateAttendance(t, env.AttendanceRepo, ion.ID, algebra.ID, 1, 3)
	testutil.CreateAttendance(t, env.AttendanceRepo, ana.ID, fizica.ID, 2, 2)

	tests := []struct {
		name      string
		filter    attendance.QueryFilter
		wantTotal int64
	}{
		{name: "all", wantTotal: 5},
		{name: "by student", filter: attendance.QueryFilter{StudentID: &ion.ID}, wantTotal: 3},
		{name: "by semester", filter: attendance.QueryFilter{Semester: intPtr(2)}, wantTotal: 2},
		{name: "search student name", filter: attendance.QueryFilter{Search: "POPESCU"}, wantTotal: 3},
		{name: "search course name", filter: attendance.QueryFilter{Search: "fiz"}, wantTotal: 2},
		{name: "date range", filter: attendance.QueryFilter{
			DateFrom: core.NewDate(2024, time.October, 2),
			DateTo:   core.NewDate(2024, time.October, 2),
		}, wantTotal: 2},
		{name: "status", filter: attendance.QueryFilter{Status: attendance.StatusAbsent}, wantTotal: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			page, err := env.AttendanceSvc.Query(ctx, tc.filter, nil, core.PageRequest{})
			require.NoError(t, err)
			assert.Equal(t, tc.wantTotal, page.TotalElements)
			assert.Len(t, page.Data, int(tc.wantTotal))
		})
	}

	t.Run("search by student and course", func(t *testing.T) {
		records, err := env.AttendanceSvc.QueryAll(ctx, attendance.QueryFilter{Student: "ion popescu", Course: "alg"})
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "Popescu Ion", records[0].StudentName)
		assert.Equal(t, "Algebra", records[0].CourseName)
	})

	t.Run("stats", func(t *testing.T) {
		page, err := env.AttendanceSvc.Stats(ctx, core.PageRequest{})
		require.NoError(t, err)
		require.Len(t, page.Data, 2)
		byStudent := map[int64]attendance.Stats{}
		for _, s := range page.Data {
			byStudent[s.StudentID] = s
		}
		assert.EqualValues(t, 3, byStudent[ion.ID].Semester1Count)
		assert.EqualValues(t, 0, byStudent[ion.ID].Semester2Count)
		assert.EqualValues(t, 2, byStudent[ana.ID].Semester2Count)
	})
}

func TestService_Delete(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := core.WithActor(context.Background(), core.Actor{Username: "secretar", IP: "10.0.0.7"})
	st := testutil.CreateStudent(t, env.StudentRepo, "Popescu", "Ion", "ion@uni.ro")
	crs := testutil.CreateCourse(t, env.CourseRepo, "Algebra", 5, 1)

	att, err := env.AttendanceSvc.Create(ctx, newAttendance(st.ID, crs.ID, 1, 1))
	require.NoError(t, err)
	require.NoError(t, env.AttendanceSvc.Delete(ctx, att.ID))

	_, err = env.AttendanceSvc.Get(ctx, att.ID)
	assert.Equal(t, attendance.ErrNotFound, errors.Cause(err))
	assert.Equal(t, attendance.ErrNotFound, errors.Cause(env.AttendanceSvc.Delete(ctx, att.ID)))

	entries := env.AuditEntries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, "DELETE", entries[0].Action)
	assert.Equal(t, "secretar", entries[0].Username)
	require.NotNil(t, entries[0].EntityID)
	assert.Equal(t, att.ID, *entries[0].EntityID)
}

func assertUpdateAudited(t *testing.T, env *testutil.Env, id int64) {
	t.Helper()
	entries := env.AuditEntries(t)
	require.NotEmpty(t, entries)
	assert.Equal(t, "UPDATE", entries[0].Action)
	require.NotNil(t, entries[0].EntityID)
	assert.Equal(t, id, *entries[0].EntityID)
}

func intPtr(i int) *int {
	return &i
}
