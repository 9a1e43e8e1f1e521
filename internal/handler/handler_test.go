package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tourflow/tourflow/internal/assistant"
	"github.com/tourflow/tourflow/internal/config"
	"github.com/tourflow/tourflow/internal/jobs"
	"github.com/tourflow/tourflow/internal/model"
	"github.com/tourflow/tourflow/internal/repository"
	"github.com/tourflow/tourflow/internal/utils"
)

// request builds an echo context as the JWT middleware would leave it.
func request(method, target, body string, uid uint64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != 0 {
		c.Set("user_id", uid)
		c.Set("role", model.RoleEngineer)
	}
	return c, rec
}

func withParams(c echo.Context, kv ...string) echo.Context {
	var names, values []string
	for i := 0; i+1 < len(kv); i += 2 {
		names = append(names, kv[i])
		values = append(values, kv[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c
}

func mockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func newDB(t *testing.T) (*repository.TourRepo, *repository.ShowRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := mockDB(t)
	return repository.NewTourRepo(db), repository.NewShowRepo(db), mock
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: name", model.ErrInvalid), http.StatusBadRequest},
		{model.ErrChannelRange, http.StatusBadRequest},
		{utils.ErrWeakPassword, http.StatusBadRequest},
		{repository.ErrTokenInvalid, http.StatusUnauthorized},
		{repository.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("load: %w", repository.ErrShowNotFound), http.StatusNotFound},
		{repository.ErrEmailExists, http.StatusConflict},
		{repository.ErrInvitationExpired, http.StatusGone},
		{errors.New("driver: bad connection"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

func TestFailHidesInternalErrors(t *testing.T) {
	c, rec := request(http.MethodGet, "/", "", 1)
	require.NoError(t, fail(c, zap.NewNop(), "list tours", errors.New("dial tcp 10.0.0.1:3306")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "list tours failed", decode(t, rec)["error"])
}

func TestCreateTour(t *testing.T) {
	tours, shows, mock := newDB(t)
	h := NewTourHandler(tours, shows, nil)
	h.Now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	mock.ExpectExec("INSERT INTO tours").
		WithArgs(sqlmock.AnyArg(), uint64(7), "Spring", "The Band", model.TourActive, "2026-03-01", "2026-03-31", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := request(http.MethodPost, "/v1/tours",
		`{"name":" Spring ","artist":"The Band","start_date":"2026-03-01","end_date":"2026-03-31"}`, 7)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Spring", body["name"])
	assert.Equal(t, "active", body["status"], "status follows the date range")
	assert.NotEmpty(t, body["id"])
}

func TestCreateTourValidates(t *testing.T) {
	tours, shows, _ := newDB(t)
	h := NewTourHandler(tours, shows, nil)

	for _, body := range []string{`{"name":""}`, `{"name":"X","start_date":"03/01/2026"}`, `{`} {
		c, rec := request(http.MethodPost, "/v1/tours", body, 7)
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestTourAccessControl(t *testing.T) {
	tours, shows, mock := newDB(t)
	h := NewTourHandler(tours, shows, nil)
	access := "SELECT t.owner_id, m.role FROM tours t"
	cols := []string{"owner_id", "role"}

	// a stranger sees nothing
	mock.ExpectQuery(access).WithArgs(uint64(9), "t1").WillReturnRows(sqlmock.NewRows(cols).AddRow(7, nil))
	c, rec := request(http.MethodGet, "/v1/tours/t1", "", 9)
	require.NoError(t, h.Get(withParams(c, "id", "t1")))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// a member can read but not edit
	mock.ExpectQuery(access).WithArgs(uint64(8), "t1").WillReturnRows(sqlmock.NewRows(cols).AddRow(7, "member"))
	c, rec = request(http.MethodPatch, "/v1/tours/t1", `{"name":"Renamed"}`, 8)
	require.NoError(t, h.Update(withParams(c, "id", "t1")))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// missing tour
	mock.ExpectQuery(access).WithArgs(uint64(7), "nope").WillReturnRows(sqlmock.NewRows(cols))
	c, rec = request(http.MethodGet, "/v1/tours/nope", "", 7)
	require.NoError(t, h.Get(withParams(c, "id", "nope")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestParseEndpoint(t *testing.T) {
	h := &DocumentHandler{Log: zap.NewNop()}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/parse/input_list", strings.NewReader("1. Kick In - Beta 91A\n2. Snare - SM57\n"))
	req.Header.Set(echo.HeaderContentType, echo.MIMETextPlain)
	rec := httptest.NewRecorder()
	c := withParams(e.NewContext(req, rec), "type", "input_list")
	require.NoError(t, h.Parse(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var parsed struct {
		Type     string               `json:"type"`
		Channels []model.InputChannel `json:"channels"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	assert.Equal(t, "input_list", parsed.Type)
	require.Len(t, parsed.Channels, 2)
	assert.Equal(t, "Beta 91A", parsed.Channels[0].Mic)

	// JSON bodies carry the text in "content"
	c, rec = request(http.MethodPost, "/v1/parse/rider", `{"content":"HOSPITALITY\n- towels"}`, 1)
	require.NoError(t, h.Parse(withParams(c, "type", "rider")))
	assert.Contains(t, rec.Body.String(), "towels")
}

func TestImportRejectsUnknownType(t *testing.T) {
	h := &DocumentHandler{Log: zap.NewNop()}
	c, rec := request(http.MethodPost, "/v1/documents/import", `{"type":"poster","content":"x"}`, 1)
	require.NoError(t, h.Import(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubCompleter struct {
	reply string
	err   error
}

func (s stubCompleter) Complete(context.Context, []assistant.Message) (string, error) {
	return s.reply, s.err
}

func TestAssistantAlwaysAnswers(t *testing.T) {
	transcript := assistant.NewMemoryTranscript(50)
	h := NewAssistantHandler(assistant.New(stubCompleter{err: errors.New("upstream 500")}, transcript, 20, zap.NewNop()), nil, nil)

	c, rec := request(http.MethodPost, "/v1/assistant/messages", `{"content":"when is doors?"}`, 3)
	require.NoError(t, h.Send(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var reply assistant.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.True(t, reply.Failed)
	assert.Equal(t, assistant.FallbackReply, reply.Assistant.Content)

	c, rec = request(http.MethodGet, "/v1/assistant/messages", "", 3)
	require.NoError(t, h.History(c))
	var history []model.ChatMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 2)

	c, rec = request(http.MethodPost, "/v1/assistant/messages", `{"content":"  "}`, 3)
	require.NoError(t, h.Send(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = request(http.MethodDelete, "/v1/assistant/messages", "", 3)
	require.NoError(t, h.Clear(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type unwritableTranscript struct{ *assistant.MemoryTranscript }

func (unwritableTranscript) Append(context.Context, uint64, ...model.ChatMessage) error {
	return errors.New("redis down")
}

func TestAssistantReplySurvivesTranscriptFailure(t *testing.T) {
	tr := unwritableTranscript{assistant.NewMemoryTranscript(0)}
	h := NewAssistantHandler(assistant.New(stubCompleter{reply: "Curfew is 23:00."}, tr, 20, nil), nil, nil)

	c, rec := request(http.MethodPost, "/v1/assistant/messages", `{"content":"curfew?"}`, 3)
	require.NoError(t, h.Send(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var reply assistant.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.False(t, reply.Failed)
	assert.Equal(t, "Curfew is 23:00.", reply.Assistant.Content)
}

type fakeSweeper struct{ n int }

func (f fakeSweeper) SweepStatuses(context.Context, time.Time) (int, error) { return f.n, nil }

type fakePurger struct{ err error }

func (f fakePurger) DeleteExpiredInvitations(context.Context, time.Time) (int64, error) {
	return 1, f.err
}
func (f fakePurger) PurgeExpired(context.Context, time.Time) (int64, error) { return 2, nil }

func TestAdminJobs(t *testing.T) {
	cfg := config.JobsConfig{StatusSchedule: "@hourly", InviteSchedule: "@every 30m", TimeZone: "UTC"}
	runner, err := jobs.New(cfg, fakeSweeper{n: 3}, fakePurger{}, fakePurger{}, nil)
	require.NoError(t, err)
	h := &AdminHandler{Jobs: runner}

	c, rec := request(http.MethodPost, "/v1/admin/jobs/tour-status/run", "", 1)
	require.NoError(t, h.RunJob(withParams(c, "name", jobs.TourStatus)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decode(t, rec)["affected"])

	c, rec = request(http.MethodPost, "/v1/admin/jobs/reindex/run", "", 1)
	require.NoError(t, h.RunJob(withParams(c, "name", "reindex")))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = request(http.MethodGet, "/v1/admin/jobs", "", 1)
	require.NoError(t, h.ListJobs(c))
	body := decode(t, rec)
	assert.ElementsMatch(t, []any{jobs.Invitations, jobs.TourStatus}, body["jobs"])
	assert.Contains(t, body["last"], jobs.TourStatus)

	failing, err := jobs.New(cfg, fakeSweeper{}, fakePurger{err: errors.New("lock wait timeout")}, fakePurger{}, nil)
	require.NoError(t, err)
	c, rec = request(http.MethodPost, "/v1/admin/jobs/invitation-expiry/run", "", 1)
	require.NoError(t, (&AdminHandler{Jobs: failing}).RunJob(withParams(c, "name", jobs.Invitations)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type slowSweeper struct{ entered, release chan struct{} }

func (s slowSweeper) SweepStatuses(context.Context, time.Time) (int, error) {
	close(s.entered)
	<-s.release
	return 0, nil
}

func TestRunJobConflictsWithRunningJob(t *testing.T) {
	cfg := config.JobsConfig{StatusSchedule: "@hourly", InviteSchedule: "@hourly", TimeZone: "UTC"}
	sweeper := slowSweeper{entered: make(chan struct{}), release: make(chan struct{})}
	runner, err := jobs.New(cfg, sweeper, fakePurger{}, fakePurger{}, nil)
	require.NoError(t, err)
	h := &AdminHandler{Jobs: runner}

	done := make(chan struct{})
	go func() {
		defer close(done)
		runner.Run(context.Background(), jobs.TourStatus)
	}()
	<-sweeper.entered

	c, rec := request(http.MethodPost, "/v1/admin/jobs/tour-status/run", "", 1)
	require.NoError(t, h.RunJob(withParams(c, "name", jobs.TourStatus)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, true, decode(t, rec)["skipped"])

	close(sweeper.release)
	<-done
}

func TestHealthReportsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	h := Health{DB: db}

	mock.ExpectPing()
	c, rec := request(http.MethodGet, "/healthz", "", 0)
	require.NoError(t, h.Check(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	c, rec = request(http.MethodGet, "/healthz", "", 0)
	require.NoError(t, h.Check(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode(t, rec)["status"])
}

func newAuth(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: bcrypt.MinCost}
	return NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db), nil), mock
}

func TestRegisterIssuesTokens(t *testing.T) {
	h, mock := newAuth(t)
	mock.ExpectExec("INSERT INTO users").
		WithArgs("sam@example.com", "Sam", sqlmock.AnyArg(), model.RoleEngineer).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(uint64(42), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := request(http.MethodPost, "/v1/auth/register", `{"email":"Sam@Example.com","name":"Sam","password":"long enough"}`, 0)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.RoleEngineer, resp.User.Role)
	assert.NotEmpty(t, resp.Access.Token)
	assert.NotEmpty(t, resp.Refresh.Token)

	uid, role, err := utils.ParseAccessToken("test-secret", resp.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
	assert.Equal(t, model.RoleEngineer, role)
}

func TestRegisterErrors(t *testing.T) {
	h, mock := newAuth(t)

	c, rec := request(http.MethodPost, "/v1/auth/register", `{"email":"a@b.c","password":"short"}`, 0)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	mock.ExpectExec("INSERT INTO users").WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))
	c, rec = request(http.MethodPost, "/v1/auth/register", `{"email":"a@b.c","password":"long enough"}`, 0)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	h, mock := newAuth(t)
	hash, err := utils.HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	cols := []string{"id", "email", "name", "password_hash", "role", "is_active", "created_at", "updated_at"}
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").WithArgs("sam@example.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(5, "sam@example.com", "Sam", hash, model.RoleEngineer, true, now, now))
	c, rec := request(http.MethodPost, "/v1/auth/login", `{"email":"sam@example.com","password":"battery staple"}`, 0)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows(cols))
	c, rec = request(http.MethodPost, "/v1/auth/login", `{"email":"ghost@example.com","password":"whatever1"}`, 0)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

const accessQuery = "SELECT t.owner_id, m.role FROM tours t"

func TestTaskLinksAreChecked(t *testing.T) {
	db, mock := mockDB(t)
	h := NewTaskHandler(repository.NewTaskRepo(db), repository.NewTourRepo(db), repository.NewShowRepo(db), nil)
	cols := []string{"owner_id", "role"}

	// another user's tour
	mock.ExpectQuery(accessQuery).WithArgs(uint64(9), "t1").WillReturnRows(sqlmock.NewRows(cols).AddRow(7, nil))
	c, rec := request(http.MethodPost, "/v1/tasks", `{"title":"Advance venue","tour_id":"t1"}`, 9)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// a show that does not exist
	mock.ExpectQuery("FROM shows s").WithArgs("s404").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	c, rec = request(http.MethodPost, "/v1/tasks", `{"title":"Advance venue","show_id":"s404"}`, 7)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// the owner's tour
	mock.ExpectQuery(accessQuery).WithArgs(uint64(7), "t1").WillReturnRows(sqlmock.NewRows(cols).AddRow(7, nil))
	mock.ExpectExec("INSERT INTO tasks").WillReturnResult(sqlmock.NewResult(0, 1))
	c, rec = request(http.MethodPost, "/v1/tasks", `{"title":"Advance venue","tour_id":"t1"}`, 7)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "t1", decode(t, rec)["tour_id"])
}

func TestDocumentRejectsForeignTour(t *testing.T) {
	db, mock := mockDB(t)
	h := NewDocumentHandler(repository.NewDocumentRepo(db), nil, nil, repository.NewTourRepo(db), nil)

	mock.ExpectQuery(accessQuery).WithArgs(uint64(9), "t1").WillReturnRows(sqlmock.NewRows([]string{"owner_id", "role"}).AddRow(7, nil))
	c, rec := request(http.MethodPost, "/v1/documents", `{"name":"Rider","type":"rider","content":"x","tour_id":"t1"}`, 9)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	mock.ExpectQuery(accessQuery).WithArgs(uint64(9), "gone").WillReturnRows(sqlmock.NewRows([]string{"owner_id", "role"}))
	c, rec = request(http.MethodPost, "/v1/documents/import", `{"type":"rider","content":"Towels","tour_id":"gone"}`, 9)
	require.NoError(t, h.Import(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateInputListRejectsBadChannels(t *testing.T) {
	h := &GearHandler{Log: zap.NewNop()}
	for _, body := range []string{
		`{"name":"Main","channels":[{"number":33,"source":"Kick"}]}`,
		`{"name":"Main","channels":[{"source":"Kick"}]}`,
	} {
		c, rec := request(http.MethodPost, "/v1/input-lists", body, 7)
		require.NoError(t, h.CreateInputList(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, model.ErrChannelRange.Error(), decode(t, rec)["error"])
	}
}
