package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psiclinic/platform/internal/identity"
	"github.com/psiclinic/platform/pkg/logging"
)

var (
	profIdentity    = identity.Identity{UserID: "prof-1", Role: identity.RoleProfessional}
	patientIdentity = identity.Identity{UserID: "user-1", Role: identity.RolePatient, PatientProfileID: "pat-1"}
)

func withCaller(r *http.Request, caller identity.Identity) *http.Request {
	return r.WithContext(identity.WithIdentity(r.Context(), caller))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func newTestHandler(t *testing.T) (*Handler, *Service, string) {
	t.Helper()
	svc, _, _, stID := newTestSessionsService(t)
	return NewHandler(svc, logging.Default()), svc, stID
}

func TestPatientBooksForOwnProfile(t *testing.T) {
	h, _, stID := newTestHandler(t)

	body := fmt.Sprintf(`{"professional_id":"prof-1","patient_id":"someone-else","session_type_id":%q,"start_time":"2026-01-05T09:00:00Z"}`, stID)
	req := withCaller(httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(body)), patientIdentity)
	rec := httptest.NewRecorder()
	h.Book(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var session Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))
	// The patient ID comes from the token, not the body.
	assert.Equal(t, "pat-1", session.PatientID)
}

func TestBookTakenSlotReturnsConflict(t *testing.T) {
	h, svc, stID := newTestHandler(t)

	start := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	_, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-2", SessionTypeID: stID, StartTime: start,
	})
	require.NoError(t, err)

	body := fmt.Sprintf(`{"professional_id":"prof-1","session_type_id":%q,"start_time":"2026-01-05T09:00:00Z"}`, stID)
	req := withCaller(httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(body)), patientIdentity)
	rec := httptest.NewRecorder()
	h.Book(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrSlotConflict.Error())
}

func TestAvailabilityEndpoint(t *testing.T) {
	h, _, stID := newTestHandler(t)

	req := withCaller(httptest.NewRequest(http.MethodGet, "/availability?professional_id=prof-1&session_type_id="+stID, nil), patientIdentity)
	rec := httptest.NewRecorder()
	h.Availability(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var days []struct {
		Day   time.Time   `json:"day"`
		Slots []time.Time `json:"slots"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&days))
	require.NotEmpty(t, days)
	assert.NotEmpty(t, days[0].Slots)

	// A professional can omit professional_id for their own calendar.
	req = withCaller(httptest.NewRequest(http.MethodGet, "/availability?session_type_id="+stID, nil), profIdentity)
	rec = httptest.NewRecorder()
	h.Availability(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Missing parameters are a bad request.
	req = withCaller(httptest.NewRequest(http.MethodGet, "/availability", nil), patientIdentity)
	rec = httptest.NewRecorder()
	h.Availability(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatientCannotMarkPaid(t *testing.T) {
	h, svc, stID := newTestHandler(t)

	session, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-1", SessionTypeID: stID,
		StartTime: time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	req := withCaller(httptest.NewRequest(http.MethodPost, "/sessions/"+session.ID+"/pay", nil), patientIdentity)
	req = withURLParam(req, "id", session.ID)
	rec := httptest.NewRecorder()
	h.MarkPaid(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The owning professional can.
	req = withCaller(httptest.NewRequest(http.MethodPost, "/sessions/"+session.ID+"/pay", nil), profIdentity)
	req = withURLParam(req, "id", session.ID)
	rec = httptest.NewRecorder()
	h.MarkPaid(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCompleteRecordsSatisfaction(t *testing.T) {
	h, svc, stID := newTestHandler(t)

	session, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-1", SessionTypeID: stID,
		StartTime: time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	body := `{"satisfaction":4,"notes":"Discussed coping strategies"}`
	req := withCaller(httptest.NewRequest(http.MethodPost, "/sessions/"+session.ID+"/complete", strings.NewReader(body)), profIdentity)
	req = withURLParam(req, "id", session.ID)
	rec := httptest.NewRecorder()
	h.Complete(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var completed Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&completed))
	require.NotNil(t, completed.Satisfaction)
	assert.Equal(t, 4, *completed.Satisfaction)
	assert.Equal(t, "Discussed coping strategies", completed.Notes)

	// Out-of-range scores are rejected.
	session2, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-1", SessionTypeID: stID,
		StartTime: time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	req = withCaller(httptest.NewRequest(http.MethodPost, "/sessions/"+session2.ID+"/complete", strings.NewReader(`{"satisfaction":9}`)), profIdentity)
	req = withURLParam(req, "id", session2.ID)
	rec = httptest.NewRecorder()
	h.Complete(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelByNonParticipantReadsAsNotFound(t *testing.T) {
	h, svc, stID := newTestHandler(t)

	session, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-2", SessionTypeID: stID,
		StartTime: time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	req := withCaller(httptest.NewRequest(http.MethodPost, "/sessions/"+session.ID+"/cancel", nil), patientIdentity)
	req = withURLParam(req, "id", session.ID)
	rec := httptest.NewRecorder()
	h.Cancel(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListScopedByRole(t *testing.T) {
	h, svc, stID := newTestHandler(t)

	_, err := svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-1", SessionTypeID: stID,
		StartTime: time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), &BookRequest{
		ProfessionalID: "prof-1", PatientID: "pat-2", SessionTypeID: stID,
		StartTime: time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	req := withCaller(httptest.NewRequest(http.MethodGet, "/sessions", nil), patientIdentity)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []*Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "pat-1", mine[0].PatientID)

	req = withCaller(httptest.NewRequest(http.MethodGet, "/sessions", nil), profIdentity)
	rec = httptest.NewRecorder()
	h.List(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var agenda []*Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&agenda))
	assert.Len(t, agenda, 2)
}
