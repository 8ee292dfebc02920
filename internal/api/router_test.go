package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/branch-appointment-booking/internal/booking"
	"github.com/hackgods/branch-appointment-booking/internal/commit"
	"github.com/hackgods/branch-appointment-booking/internal/observability/metrics"
	"github.com/hackgods/branch-appointment-booking/internal/session"
)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

var sunday = time.Date(2026, time.October, 18, 15, 30, 0, 0, time.UTC)

type stubSink struct {
	err       error
	committed []booking.BookingRecord
}

func (s *stubSink) Commit(_ context.Context, rec booking.BookingRecord) error {
	if s.err != nil {
		return s.err
	}
	s.committed = append(s.committed, rec)
	return nil
}

type testServer struct {
	*httptest.Server
	client *http.Client
	sink   *stubSink
	store  *session.Store
}

func newTestServer(t *testing.T, rng booking.RandomSource) *testServer {
	t.Helper()
	return newTestServerTTL(t, rng, time.Hour)
}

// newTestServerTTL uses ttl as both the store idle timeout and the cookie age.
func newTestServerTTL(t *testing.T, rng booking.RandomSource, ttl time.Duration) *testServer {
	t.Helper()

	issuer := booking.NewIssuer()
	store := session.NewStore(ttl, func() *booking.Wizard {
		return booking.NewWizard(issuer,
			booking.WithClock(func() time.Time { return sunday }),
			booking.WithRandomSource(rng),
		)
	}, nil, nil)

	reg := prometheus.NewRegistry()
	sink := &stubSink{}
	srv := httptest.NewServer(NewRouter(RouterConfig{
		Sessions:       store,
		Cookies:        NewSessionCookies([]byte("0123456789abcdef0123456789abcdef"), []byte("fedcba9876543210"), ttl),
		Sink:           sink,
		Metrics:        metrics.NewWizardMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Env:            "test",
		Version:        "v0.0.0-test",
	}))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testServer{Server: srv, client: &http.Client{Jar: jar}, sink: sink, store: store}
}

// call sends body as JSON and decodes a JSON response into out when non-nil.
func (s *testServer) call(t *testing.T, method, path string, body, out any) int {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) next(t *testing.T, wantStep string) TransitionResponse {
	t.Helper()
	var tr TransitionResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/session/next", nil, &tr))
	require.True(t, tr.Moved, "expected to reach %s", wantStep)
	require.Equal(t, wantStep, tr.Session.Step)
	return tr
}

func (s *testServer) driveToReview(t *testing.T) {
	t.Helper()
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/sessions", nil, nil))

	require.Equal(t, http.StatusOK, s.call(t, http.MethodPut, "/session/appointment",
		AppointmentRequest{AppointmentType: "Loan Consultation", PostalCode: "64105"}, nil))
	s.next(t, "branch")

	var branches BranchesResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/session/branches", nil, &branches))
	require.NotEmpty(t, branches.Branches)
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPut, "/session/branch",
		BranchRequest{BranchID: branches.Branches[0].ID}, nil))
	s.next(t, "time")

	require.Equal(t, http.StatusOK, s.call(t, http.MethodPut, "/session/slot",
		SlotRequest{Date: "2026-10-20", Time: "10:00 AM"}, nil))
	s.next(t, "contact")

	require.Equal(t, http.StatusOK, s.call(t, http.MethodPut, "/session/contact",
		ContactRequest{Name: "Jane Doe", Email: "jane@x.com", Phone: "5551234567"}, nil))
	s.next(t, "review")
}

func TestFullBookingFlow(t *testing.T) {
	s := newTestServer(t, fixedSource(0.9))
	s.driveToReview(t)

	tr := s.next(t, "done")
	require.NotNil(t, tr.Session.Confirmation)
	conf := tr.Session.Confirmation
	assert.Regexp(t, `^BNK-[0-9A-Z]{7}$`, conf.ConfirmationID)
	assert.Equal(t, booking.TypeLoanConsultation, conf.AppointmentType)
	assert.Equal(t, "1", conf.Branch.ID)
	assert.Equal(t, "Tuesday, October 20, 2026", conf.DateLabel)
	assert.Equal(t, "(555) 123-4567", conf.Contact.Phone)

	require.Len(t, s.sink.committed, 1)
	assert.Equal(t, conf.ConfirmationID, s.sink.committed[0].ConfirmationID)

	resp, err := s.client.Get(s.URL + "/session/confirmation")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), conf.ConfirmationID)
	assert.Contains(t, string(body), "Confirmation Number: "+conf.ConfirmationID)

	var errResp ErrorResponse
	assert.Equal(t, http.StatusConflict, s.call(t, http.MethodPut, "/session/contact",
		ContactRequest{Name: "Other"}, &errResp))
	assert.Equal(t, "booking_complete", errResp.Error)

	var back TransitionResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/session/back", nil, &back))
	assert.False(t, back.Moved)
	assert.Equal(t, "done", back.Session.Step)
}

func TestNextRefusedOnInvalidInput(t *testing.T) {
	s := newTestServer(t, fixedSource(0.9))
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/sessions", nil, nil))

	require.Equal(t, http.StatusOK, s.call(t, http.MethodPut, "/session/appointment",
		AppointmentRequest{AppointmentType: "Loan Consultation", PostalCode: "6410"}, nil))

	var tr TransitionResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/session/next", nil, &tr))
	assert.False(t, tr.Moved)
	assert.Equal(t, "type_and_location", tr.Session.Step)
	assert.False(t, tr.Session.CanAdvance)

	var errResp ErrorResponse
	assert.Equal(t, http.StatusBadRequest, s.call(t, http.MethodGet, "/session/branches", nil, &errResp))
	assert.Equal(t, "invalid_postal_code", errResp.Error)

	assert.Equal(t, http.StatusBadRequest, s.call(t, http.MethodPut, "/session/appointment",
		AppointmentRequest{AppointmentType: "Crypto Advice", PostalCode: "64105"}, &errResp))
	assert.Equal(t, "invalid_appointment_type", errResp.Error)
}

func TestSessionRequired(t *testing.T) {
	s := newTestServer(t, fixedSource(0.9))

	var errResp ErrorResponse
	assert.Equal(t, http.StatusUnauthorized, s.call(t, http.MethodGet, "/session", nil, &errResp))
	assert.Equal(t, "session_required", errResp.Error)
}

func TestSessionExpiredClearsCookie(t *testing.T) {
	s := newTestServer(t, fixedSource(0.9))

	var created SessionResponse
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/sessions", nil, &created))
	assert.Equal(t, "type_and_location", created.Step)
	assert.Len(t, created.Progress, 5)

	s.store.Sweep(time.Now().Add(2 * time.Hour))

	var errResp ErrorResponse
	assert.Equal(t, http.StatusUnauthorized, s.call(t, http.MethodGet, "/session", nil, &errResp))
	assert.Equal(t, "session_expired", errResp.Error)
}

func TestActiveSessionOutlivesCookieAge(t *testing.T) {
	s := newTestServerTTL(t, fixedSource(0.9), 2*time.Second)
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/sessions", nil, nil))

	for i := 0; i < 5; i++ {
		time.Sleep(time.Second)
		var resp SessionResponse
		require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/session", nil, &resp), "request %d", i+1)
		assert.Equal(t, "type_and_location", resp.Step)
	}
	assert.Equal(t, 1, s.store.Len())
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t, fixedSource(0.9))
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/sessions", nil, nil))
	require.Equal(t, 1, s.store.Len())

	assert.Equal(t, http.StatusNoContent, s.call(t, http.MethodDelete, "/session", nil, nil))
	assert.Equal(t, 0, s.store.Len())
	assert.Equal(t, http.StatusUnauthorized, s.call(t, http.MethodGet, "/session", nil, nil))
}

func TestBranchMustComeFromLookup(t *testing.T) {
	s := newTestServer(t, fixedSource(0.9))
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/sessions", nil, nil))

	var errResp ErrorResponse
	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodPut, "/session/branch",
		BranchRequest{BranchID: "1"}, &errResp))
	assert.Equal(t, "branch_not_found", errResp.Error)
}

func TestDatesAndSlots(t *testing.T) {
	s := newTestServer(t, fixedSource(0.9))
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/sessions", nil, nil))

	var win DateWindowResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/session/dates", nil, &win))
	require.Len(t, win.Dates, booking.PageSize)
	assert.Equal(t, "2026-10-18", win.Reference)
	assert.Equal(t, "2026-10-19", win.Dates[0].Date)
	assert.Equal(t, "Mon, Oct 19", win.Dates[0].Label)
	assert.False(t, win.HasPrev)
	assert.True(t, win.HasNext)

	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/session/dates?start=5", nil, &win))
	assert.Equal(t, "2026-10-26", win.Dates[0].Date)
	assert.True(t, win.HasPrev)
	assert.False(t, win.HasNext)

	assert.Equal(t, http.StatusBadRequest, s.call(t, http.MethodGet, "/session/dates?start=x", nil, nil))

	var slots SlotsResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/session/dates/2026-10-20/slots", nil, &slots))
	require.Len(t, slots.Slots, 8)
	assert.Equal(t, "9:00 AM", slots.Slots[0].Time)
	assert.Equal(t, "4:00 PM", slots.Slots[7].Time)

	var errResp ErrorResponse
	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodGet, "/session/dates/2026-10-24/slots", nil, &errResp))
	assert.Equal(t, "not_found", errResp.Error)
}

func TestHeldSlotRejected(t *testing.T) {
	s := newTestServer(t, fixedSource(0.1))
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/sessions", nil, nil))

	var errResp ErrorResponse
	assert.Equal(t, http.StatusConflict, s.call(t, http.MethodPut, "/session/slot",
		SlotRequest{Date: "2026-10-20", Time: "10:00 AM"}, &errResp))
	assert.Equal(t, "slot_unavailable", errResp.Error)

	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodPut, "/session/slot",
		SlotRequest{Date: "2026-10-20", Time: "5:00 PM"}, &errResp))
	assert.Equal(t, "slot_not_found", errResp.Error)
}

func TestCommitRejectionStaysOnReview(t *testing.T) {
	s := newTestServer(t, fixedSource(0.9))
	s.driveToReview(t)
	s.sink.err = commit.ErrSlotTaken

	var errResp ErrorResponse
	assert.Equal(t, http.StatusConflict, s.call(t, http.MethodPost, "/session/next", nil, &errResp))
	assert.Equal(t, "slot_already_booked", errResp.Error)

	var view SessionResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/session", nil, &view))
	assert.Equal(t, "review", view.Step)
	assert.Nil(t, view.Confirmation)

	var errConf ErrorResponse
	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodGet, "/session/confirmation", nil, &errConf))
	assert.Equal(t, "confirmation_not_found", errConf.Error)
}

func TestBackPreservesDraftAndReset(t *testing.T) {
	s := newTestServer(t, fixedSource(0.9))
	s.driveToReview(t)

	var tr TransitionResponse
	for _, want := range []string{"contact", "time", "branch"} {
		require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/session/back", nil, &tr))
		require.True(t, tr.Moved)
		require.Equal(t, want, tr.Session.Step)
	}
	require.NotNil(t, tr.Session.Draft.TimeSlot)
	assert.Equal(t, "2026-10-20", tr.Session.Draft.TimeSlot.Date)
	assert.True(t, tr.Session.Draft.ContactValid.Email)

	var view SessionResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodPost, "/session/reset", nil, &view))
	assert.Equal(t, "type_and_location", view.Step)
	assert.Empty(t, view.Draft.PostalCode)
	assert.Nil(t, view.Draft.Branch)
}

func TestAppointmentTypes(t *testing.T) {
	s := newTestServer(t, fixedSource(0.9))

	var resp AppointmentTypesResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/appointment-types", nil, &resp))
	assert.Equal(t, booking.AppointmentTypes, resp.AppointmentTypes)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, fixedSource(0.9))

	var live LivenessResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/health/live", nil, &live))
	assert.Equal(t, "ok", live.Status)
	assert.Equal(t, "v0.0.0-test", live.Version)

	var ready ReadinessResponse
	require.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/health/ready", nil, &ready))
	assert.Equal(t, "ok", ready.Status)
	assert.Equal(t, "disabled", ready.Dependencies["postgres"])

	s.driveToReview(t)
	resp, err := s.client.Get(s.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "bank_booking_transitions_total")
}

func TestReadinessRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := NewHealthHandler(nil, client, "test", "")

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var ready ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ready))
	assert.Equal(t, "ok", ready.Dependencies["redis"])

	mr.Close()
	rec = httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ready))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", ready.Status)
	assert.Equal(t, "down", ready.Dependencies["redis"])
}
