package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/maintlog/internal/adapters/db/gormdb"
	"github.com/atvirokodosprendimai/maintlog/internal/application"
	"github.com/atvirokodosprendimai/maintlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestService(t *testing.T, auth *application.Authenticator) *application.RecordService {
	t.Helper()
	ctx := context.Background()
	db, err := gormdb.Open(filepath.Join(t.TempDir(), "router_test.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, gormdb.RunMigrations(ctx, db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return application.NewRecordService(gormdb.NewRecordRepository(db), auth)
}

func do(t *testing.T, h http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeRecords(t *testing.T, rec *httptest.ResponseRecorder) []domain.Record {
	t.Helper()
	var out []domain.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRecordsLifecycle(t *testing.T) {
	h := NewRouter(newTestService(t, nil), zap.NewNop())

	rec := do(t, h, http.MethodPost, "/records/", `{"category":"maintenance","date":"2024-01-01","model_name":"PC200-10","serial_number":"S1","content":"filter done"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var jan domain.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jan))
	require.NotZero(t, jan.ID)
	assert.Equal(t, "2024-01-01", jan.Date.String())

	rec = do(t, h, http.MethodPost, "/records", `{"category":"manual","date":"2024-06-01","model_name":"PC200","content":"manual rev done"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var jun domain.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jun))

	rec = do(t, h, http.MethodPost, "/records/", `{}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var empty domain.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &empty))

	rec = do(t, h, http.MethodGet, "/records/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	all := decodeRecords(t, rec)
	require.Len(t, all, 3)
	assert.Equal(t, []uint{jun.ID, jan.ID, empty.ID}, []uint{all[0].ID, all[1].ID, all[2].ID})

	rec = do(t, h, http.MethodGet, "/records/?category=maintenance", "", "")
	got := decodeRecords(t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, jan.ID, got[0].ID)

	rec = do(t, h, http.MethodGet, "/records/?q="+url.QueryEscape("pc200　DONE"), "", "")
	got = decodeRecords(t, rec)
	assert.Len(t, got, 2)

	rec = do(t, h, http.MethodDelete, "/records/"+uintString(jan.ID), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"record deleted","id":`+uintString(jan.ID)+`}`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/records/"+uintString(jan.ID), "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Record not found"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/records/", "", "")
	assert.Len(t, decodeRecords(t, rec), 2)
}

func TestCreateRejectsBadInput(t *testing.T) {
	h := NewRouter(newTestService(t, nil), zap.NewNop())

	rec := do(t, h, http.MethodPost, "/records/", `{"date":"June 1st"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "date")

	rec = do(t, h, http.MethodPost, "/records/", `{"date":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/records/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/records/0", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/records/", "", "")
	assert.Empty(t, decodeRecords(t, rec))
}

type failingRepository struct{}

func (failingRepository) CreateRecord(context.Context, domain.Record) (domain.Record, error) {
	return domain.Record{}, &domain.StorageError{Op: "create record", Err: assert.AnError}
}

func (failingRepository) SearchRecords(context.Context, domain.SearchQuery) ([]domain.Record, error) {
	return nil, &domain.StorageError{Op: "search records", Err: assert.AnError}
}

func (failingRepository) DeleteRecord(context.Context, uint) error {
	return &domain.StorageError{Op: "delete record", Err: assert.AnError}
}

func (failingRepository) CountRecords(context.Context) (int64, error) {
	return 0, &domain.StorageError{Op: "count records", Err: assert.AnError}
}

func (failingRepository) Ping(context.Context) error {
	return &domain.StorageError{Op: "ping", Err: assert.AnError}
}

func TestStorageFaultsMapTo500AndAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewRouter(application.NewRecordService(failingRepository{}, nil), zap.New(core))

	rec := do(t, h, http.MethodGet, "/records/", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"storage unavailable"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/records/", `{"content":"x"}`, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(t, h, http.MethodDelete, "/records/4", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(t, h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	failures := logs.FilterMessage("request failed").All()
	require.Len(t, failures, 3)
	assert.Equal(t, zapcore.ErrorLevel, failures[0].Level)
	assert.Equal(t, 4, logs.FilterMessage("request").Len())
}

func TestAuthGate(t *testing.T) {
	auth, err := application.NewAuthenticator("mechanic", "s3cret", time.Hour)
	require.NoError(t, err)
	core, logs := observer.New(zapcore.DebugLevel)
	h := NewRouter(newTestService(t, auth), zap.New(core))

	rec := do(t, h, http.MethodGet, "/records/", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/records/", "", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/auth/login", `{"username":"mechanic","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/auth/login", `{"username":"mechanic","password":"s3cret"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)
	_, err = time.Parse(time.RFC3339, login.ExpiresAt)
	require.NoError(t, err)

	rec = do(t, h, http.MethodPost, "/records/", `{"content":"gated"}`, login.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/records/", "", login.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeRecords(t, rec), 1)

	accepted := logs.FilterMessage("token accepted").All()
	require.Len(t, accepted, 2)
	assert.Equal(t, "mechanic", accepted[0].ContextMap()["user"])
	assert.NotEmpty(t, accepted[0].ContextMap()["token_id"])
	assert.Equal(t, accepted[0].ContextMap()["token_id"], accepted[1].ContextMap()["token_id"])

	rec = do(t, h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginWithoutConfiguredCredentials(t *testing.T) {
	h := NewRouter(newTestService(t, nil), zap.NewNop())

	rec := do(t, h, http.MethodPost, "/auth/login", `{"username":"a","password":"b"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func uintString(v uint) string {
	b, _ := json.Marshal(v)
	return string(b)
}
