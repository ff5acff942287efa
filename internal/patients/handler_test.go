package patients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psiclinic/platform/internal/identity"
	"github.com/psiclinic/platform/pkg/logging"
)

type recordingInviter struct {
	invited []*Patient
}

func (r *recordingInviter) Invite(ctx context.Context, p *Patient) error {
	r.invited = append(r.invited, p)
	return nil
}

func withCaller(r *http.Request, caller identity.Identity) *http.Request {
	return r.WithContext(identity.WithIdentity(r.Context(), caller))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type recordingNotifier struct {
	recipients []string
	kinds      []string
}

func (r *recordingNotifier) Notify(ctx context.Context, recipientID, kind, message string) {
	r.recipients = append(r.recipients, recipientID)
	r.kinds = append(r.kinds, kind)
}

type recordingEraser struct {
	erased []string
}

func (r *recordingEraser) ErasePatientData(ctx context.Context, patientID string) error {
	r.erased = append(r.erased, patientID)
	return nil
}

type recordingAuditor struct {
	accesses []string
	erasures []string
}

func (r *recordingAuditor) RecordAccess(ctx context.Context, actorID, patientID, action string) {
	r.accesses = append(r.accesses, action)
}

func (r *recordingAuditor) LogErasure(ctx context.Context, actorID, patientID, reason string) error {
	r.erasures = append(r.erasures, patientID)
	return nil
}

var profCaller = identity.Identity{UserID: "prof-1", Name: "Dra. Helena", Role: identity.RoleProfessional}

func TestCreatePatientInvites(t *testing.T) {
	repo := NewInMemoryRepository()
	inviter := &recordingInviter{}
	notifier := &recordingNotifier{}
	h := NewHandler(repo, inviter, logging.Default()).WithNotifier(notifier)

	body := `{"name":"Ana Souza","email":"ana@example.com","phone":"11988887777","lgpd_consent":true}`
	req := withCaller(httptest.NewRequest(http.MethodPost, "/patients", strings.NewReader(body)), profCaller)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created Patient
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, "prof-1", created.ProfessionalID)
	assert.Equal(t, StatusInvited, created.Status)

	require.Len(t, inviter.invited, 1)
	assert.Equal(t, created.ID, inviter.invited[0].ID)

	require.Len(t, notifier.recipients, 1)
	assert.Equal(t, created.ID, notifier.recipients[0])
	assert.Equal(t, "patient_invited", notifier.kinds[0])
}

func TestCreatePatientRequiresConsent(t *testing.T) {
	h := NewHandler(NewInMemoryRepository(), nil, logging.Default())

	body := `{"name":"Ana","email":"ana@example.com","lgpd_consent":false}`
	req := withCaller(httptest.NewRequest(http.MethodPost, "/patients", strings.NewReader(body)), profCaller)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrConsentRequired.Error())
}

func TestListScopedToProfessional(t *testing.T) {
	repo := NewInMemoryRepository()
	h := NewHandler(repo, nil, logging.Default())

	_, err := repo.Create(context.Background(), &CreatePatientRequest{ProfessionalID: "prof-1", Name: "Ana", Email: "ana@example.com", LGPDConsent: true})
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), &CreatePatientRequest{ProfessionalID: "prof-2", Name: "Bruno", Email: "bruno@example.com", LGPDConsent: true})
	require.NoError(t, err)

	req := withCaller(httptest.NewRequest(http.MethodGet, "/patients", nil), profCaller)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var list []*Patient
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "Ana", list[0].Name)
}

func TestGetForeignPatientReadsAsNotFound(t *testing.T) {
	repo := NewInMemoryRepository()
	h := NewHandler(repo, nil, logging.Default())

	other, err := repo.Create(context.Background(), &CreatePatientRequest{ProfessionalID: "prof-2", Name: "Bruno", Email: "bruno@example.com", LGPDConsent: true})
	require.NoError(t, err)

	req := withCaller(httptest.NewRequest(http.MethodGet, "/patients/"+other.ID, nil), profCaller)
	req = withURLParam(req, "id", other.ID)
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdatePatchesFields(t *testing.T) {
	repo := NewInMemoryRepository()
	h := NewHandler(repo, nil, logging.Default())

	p, err := repo.Create(context.Background(), &CreatePatientRequest{ProfessionalID: "prof-1", Name: "Ana", Email: "ana@example.com", Phone: "111", LGPDConsent: true})
	require.NoError(t, err)

	body := `{"phone":"11999990000"}`
	req := withCaller(httptest.NewRequest(http.MethodPut, "/patients/"+p.ID, strings.NewReader(body)), profCaller)
	req = withURLParam(req, "id", p.ID)
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	updated, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "11999990000", updated.Phone)
	assert.Equal(t, "Ana", updated.Name)
}

func TestDeleteErasesRecord(t *testing.T) {
	repo := NewInMemoryRepository()
	h := NewHandler(repo, nil, logging.Default())

	p, err := repo.Create(context.Background(), &CreatePatientRequest{ProfessionalID: "prof-1", Name: "Ana", Email: "ana@example.com", LGPDConsent: true})
	require.NoError(t, err)

	req := withCaller(httptest.NewRequest(http.MethodDelete, "/patients/"+p.ID, nil), profCaller)
	req = withURLParam(req, "id", p.ID)
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	_, err = repo.GetByID(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestDeletePurgesDependentData(t *testing.T) {
	repo := NewInMemoryRepository()
	eraser := &recordingEraser{}
	auditor := &recordingAuditor{}
	h := NewHandler(repo, nil, logging.Default()).WithEraser(eraser).WithAuditor(auditor)

	p, err := repo.Create(context.Background(), &CreatePatientRequest{ProfessionalID: "prof-1", Name: "Ana", Email: "ana@example.com", LGPDConsent: true})
	require.NoError(t, err)

	req := withCaller(httptest.NewRequest(http.MethodDelete, "/patients/"+p.ID, nil), profCaller)
	req = withURLParam(req, "id", p.ID)
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{p.ID}, eraser.erased)
	assert.Equal(t, []string{p.ID}, auditor.erasures)
}

func TestGetOwnProfile(t *testing.T) {
	repo := NewInMemoryRepository()
	h := NewHandler(repo, nil, logging.Default())

	p, err := repo.Create(context.Background(), &CreatePatientRequest{ProfessionalID: "prof-1", Name: "Ana", Email: "ana@example.com", LGPDConsent: true})
	require.NoError(t, err)

	patient := identity.Identity{UserID: "user-1", Role: identity.RolePatient, PatientProfileID: p.ID}
	req := withCaller(httptest.NewRequest(http.MethodGet, "/me/profile", nil), patient)
	rec := httptest.NewRecorder()
	h.GetOwnProfile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got Patient
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, p.ID, got.ID)

	// A professional token has no profile to read.
	req = withCaller(httptest.NewRequest(http.MethodGet, "/me/profile", nil), profCaller)
	rec = httptest.NewRecorder()
	h.GetOwnProfile(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
