package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/adminzone/backend/apps/api/echo"
	"github.com/adminzone/backend/core/user"
	"github.com/adminzone/backend/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	*testutil.Env
	server *echoapi.Server

	admin     user.User
	secretary user.User
	professor user.User
}

func setup(t *testing.T) *testApp {
	env := testutil.NewEnv(t)
	return newTestApp(t, env)
}

func newTestApp(t *testing.T, env *testutil.Env) *testApp {
	server := echoapi.NewServer(env.Conf, env.Logger, &echoapi.Deps{
		Validate:      env.Validate,
		Translator:    env.Translator,
		AuditSvc:      env.AuditSvc,
		StudentSvc:    env.StudentSvc,
		CourseSvc:     env.CourseSvc,
		EnrollmentSvc: env.EnrollmentSvc,
		AttendanceSvc: env.AttendanceSvc,
		UserSvc:       env.UserSvc,
		ExportSvc:     env.ExportSvc,
	})
	t.Cleanup(func() { _ = server.Close() })

	return &testApp{
		Env:       env,
		server:    server,
		admin:     testutil.CreateUser(t, env.UserRepo, "admin", "Parola#2024", true, user.RoleAdmin),
		secretary: testutil.CreateUser(t, env.UserRepo, "secretar", "Parola#2024", true, user.RoleSecretary),
		professor: testutil.CreateUser(t, env.UserRepo, "profesor", "Parola#2024", true, user.RoleProfessor),
	}
}

func (app *testApp) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	app.server.ServeHTTP(rec, req)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (app *testApp) getToken(t *testing.T, usr user.User) string {
	token, err := echoapi.GenerateToken(echoapi.GetUserClaims(usr, app.Conf), app.Conf.SecretKey)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// decode unmarshals the JSON body of rec into dest.
func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode() failed: %v; body %s", err, rec.Body.String())
	}
	assert.NotNil(t, dest)
}

func itoa(i int64) string {
	return strconv.FormatInt(i, 10)
}
