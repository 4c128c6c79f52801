package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	goi18n "github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/classification/pkg/composables"
	"github.com/iota-uz/classification/pkg/intl"
	"github.com/iota-uz/classification/pkg/middleware"
)

func newRouter(mw mux.MiddlewareFunc, handler http.HandlerFunc) *mux.Router {
	r := mux.NewRouter()
	r.Use(mw)
	r.HandleFunc("/", handler).Methods(http.MethodGet)
	return r
}

func TestRequireTenant(t *testing.T) {
	tenantID := uuid.New()
	var seen uuid.UUID
	router := newRouter(middleware.RequireTenant("X-Tenant-ID"), func(w http.ResponseWriter, r *http.Request) {
		got, err := composables.UseTenantID(r.Context())
		require.NoError(t, err)
		seen = got
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tenant-ID", tenantID.String())
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, tenantID, seen)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "TENANT_REQUIRED")

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tenant-ID", "not-a-uuid")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "TENANT_INVALID")
}

func TestProvideActor(t *testing.T) {
	var actor string
	router := newRouter(middleware.ProvideActor("X-Actor"), func(w http.ResponseWriter, r *http.Request) {
		actor = composables.UseActor(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Actor", "alice")
	router.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "alice", actor)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "system", actor)
}

var localizeConfig = goi18n.LocalizeConfig{MessageID: "Classification.Errors.ConcurrentUpdate"}

func TestProvideLocalizer_NegotiatesLocale(t *testing.T) {
	bundle := intl.LoadBundle()
	var localized string
	router := newRouter(middleware.ProvideLocalizer(bundle), func(w http.ResponseWriter, r *http.Request) {
		l, ok := intl.UseLocalizer(r.Context())
		require.True(t, ok)
		localized = l.MustLocalize(&localizeConfig)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	router.ServeHTTP(httptest.NewRecorder(), req)
	require.Contains(t, localized, "记录")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "fr")
	router.ServeHTTP(httptest.NewRecorder(), req)
	require.Contains(t, localized, "modified by another request")
}
