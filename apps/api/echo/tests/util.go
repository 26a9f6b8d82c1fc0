package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/bmukendi/kongamano/apps/api/echo"
	"github.com/bmukendi/kongamano/core"
	"github.com/bmukendi/kongamano/core/account"
	"github.com/bmukendi/kongamano/core/program"
	inmemdb "github.com/bmukendi/kongamano/storage/database/inmem"
)

type testEnv struct {
	app      *Server
	conf     *core.Config
	acctSvc  *account.Service
	progSvc  *program.Service
	acctRepo account.Repository
	progRepo program.Repository
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	conf := &core.Config{
		AppName:       "Kongamano",
		Env:           "TEST",
		TestMode:      true,
		SecretKey:     "test-secret",
		SessionMaxAge: time.Hour,
		Frontend: core.FrontendConfig{
			LoginPath:     "/google/login",
			SignupPath:    "/signup",
			DashboardPath: "/dashboard",
			BannedPath:    "/fizzbuzz",
		},
	}

	// set up DB & repos
	db := inmemdb.NewDB()
	acctRepo := inmemdb.NewAccountRepository(db)
	progRepo := inmemdb.NewProgramRepository(db)

	// set up services
	acctSvc := account.NewService(acctRepo)
	progSvc := program.NewService(progRepo)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// set up server
	app := NewServer(
		&ServerDeps{
			Conf:           conf,
			Logger:         testLogger{},
			AccountSvc:     acctSvc,
			ProgramSvc:     progSvc,
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
		},
	)

	return &testEnv{
		app:      app,
		conf:     conf,
		acctSvc:  acctSvc,
		progSvc:  progSvc,
		acctRepo: acctRepo,
		progRepo: progRepo,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type testLogger struct{}

func (testLogger) Enable(bool)                  {}
func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(string, ...interface{}) {}

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

// newBrowserRequest carries the token in the session cookie and no JSON
// markers, the way a navigating browser does.
func newBrowserRequest(method, path, token string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newUploadRequest(t *testing.T, path, token, filename string, content []byte) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("csv_file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile(): %v", err)
	}
	if _, err = part.Write(content); err != nil {
		t.Fatalf("part.Write(): %v", err)
	}
	if err = writer.Close(); err != nil {
		t.Fatalf("writer.Close(): %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func accountIdentity(email string) account.Identity {
	return account.Identity{Email: email}
}

func getToken(t *testing.T, conf *core.Config, ident account.Identity) string {
	t.Helper()
	claims := GetIdentityClaims(ident, conf)
	token, err := GenerateSessionToken(claims, conf)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func seedAccount(t *testing.T, env *testEnv, firstName, lastName, email, auth string) (account.Account, string) {
	t.Helper()
	acct, err := env.acctSvc.Create(context.Background(), account.NewAccount{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Auth:      auth,
	})
	if err != nil {
		t.Fatalf("seedAccount(): %v", err)
	}
	return acct, getToken(t, env.conf, account.Identity{Email: email, Name: acct.FullName()})
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	// lists compare element-order-insensitively
	l1, ok1 := j1.([]interface{})
	l2, ok2 := j2.([]interface{})
	if !ok1 || !ok2 {
		return false, nil
	}
	return assert.ElementsMatch(t, l1, l2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func checkRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusFound {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusFound)
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Errorf("failed! location = %q; want %q", got, location)
	}
}
