package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/idhini/apps/api/echo"
	"github.com/trezcool/idhini/core"
	"github.com/trezcool/idhini/core/actor"
	"github.com/trezcool/idhini/core/audit"
	"github.com/trezcool/idhini/core/document"
	"github.com/trezcool/idhini/core/notification"
	emailsvc "github.com/trezcool/idhini/services/email"
	logsvc "github.com/trezcool/idhini/services/logger"
	pushsvc "github.com/trezcool/idhini/services/push"
	inmemdb "github.com/trezcool/idhini/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type env struct {
	app      Server
	conf     *core.Config
	resolver *actor.Resolver
	notifSvc *notification.Service
	bcast    *pushsvc.DummyBroadcaster

	admin, salesHead, marketer, staff actor.Actor
	salesDept                         actor.Department
}

func setup(t *testing.T) *env {
	t.Helper()

	conf := &core.Config{
		TestMode:            true,
		Env:                 "TEST",
		AppName:             "Idhini",
		SecretKey:           "secret",
		DefaultFromEmail:    "noreply@test.cd",
		ExcludedDepartments: []string{"Finance", "Audit", "IT"},
		Server: core.ServerConfig{
			Addr:               ":0",
			JWTExpirationDelta: time.Hour,
		},
	}

	db := inmemdb.Open()
	validate, translator := core.NewValidator()
	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))
	reporter := core.NewLogReporter(logger)
	bcast := pushsvc.NewDummyBroadcaster()

	resolver := actor.NewResolver(inmemdb.NewActorRepository(db))
	auditor := audit.NewRecorder(inmemdb.NewAuditSink(db), reporter)
	notifSvc := notification.NewService(
		inmemdb.NewNotificationRepository(db), resolver, bcast,
		emailsvc.NewConsoleServiceMock(conf), reporter, validate)
	docSvc := document.NewService(
		inmemdb.NewDocumentRepository(db), resolver, notifSvc, auditor, reporter, validate,
		conf.ExcludedDepartments)

	e := &env{
		conf:     conf,
		resolver: resolver,
		notifSvc: notifSvc,
		bcast:    bcast,
	}
	e.app = NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		DisableReqLogs: true,
		Resolver:       resolver,
		DocSvc:         docSvc,
		NotifSvc:       notifSvc,
		Validate:       validate,
		Translator:     translator,
	})

	ctx := context.Background()
	e.admin = createActor(t, resolver, "Admin", "admin@test.cd", actor.RoleAdmin, "")
	e.salesHead = createActor(t, resolver, "Sales Head", "saleshead@test.cd", actor.RoleDeptHead, "Sales")
	e.marketer = createActor(t, resolver, "Marketer", "marketer@test.cd", actor.RoleMarketing, "")
	e.staff = createActor(t, resolver, "Staff", "staff@test.cd", actor.RoleStaff, "Sales")

	dept, err := resolver.CreateDepartment(ctx, actor.NewDepartment{Name: "Sales", HeadID: e.salesHead.ID})
	if err != nil {
		t.Fatalf("CreateDepartment() failed: %v", err)
	}
	e.salesDept = dept
	return e
}

func createActor(t *testing.T, resolver *actor.Resolver, name, email string, role actor.Role, dept string) actor.Actor {
	t.Helper()
	act, err := resolver.CreateActor(context.Background(), actor.NewActor{
		Name:       name,
		Email:      email,
		Role:       role,
		Department: dept,
		Password:   "Password1!",
	})
	if err != nil {
		t.Fatalf("CreateActor(%s) failed: %v", email, err)
	}
	return act
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
	extra    interface{}
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

func (e *env) getToken(t *testing.T, act actor.Actor) string {
	t.Helper()
	claims := GetActorClaims(e.conf, act)
	token, err := GenerateToken(e.conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decodeBody() failed: %v (body: %s)", err, rec.Body.String())
	}
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Fatalf("%s %s code = %d, want %d (body: %s)", tt.method, tt.path, rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}
