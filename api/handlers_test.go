/*
handlers_test.go - HTTP tests for the leave API

Tests for:
- Roster endpoints (create, fetch, duplicates, body validation)
- Submission (acceptance, rejection bodies, malformed input, rate limit)
- Decisions (two-tier approval, authorization, terminal states)
- Balances, movements and health
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santamargarita/leave-engine/api"
	"github.com/santamargarita/leave-engine/generic"
	"github.com/santamargarita/leave-engine/leave"
	"github.com/santamargarita/leave-engine/leave/memstore"
	"github.com/santamargarita/leave-engine/lock"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var (
	cst      = time.FixedZone("CST", -6*60*60)
	fixedNow = time.Date(2024, time.June, 15, 10, 0, 0, 0, cst)
)

type testServer struct {
	router http.Handler
	svc    *leave.Service
	clock  *generic.FixedClock
}

func newTestServer(t *testing.T, opts api.Options) *testServer {
	t.Helper()
	clock := generic.NewFixedClock(fixedNow)
	svc := leave.NewService(memstore.New(), lock.NewKeyedMutex(), clock, zerolog.Nop())

	ctx := context.Background()
	for _, emp := range []leave.Employee{
		{ID: "nurse-1", Name: "Rosa Díaz", Role: leave.RoleWorker, Area: "Enfermería", HireDate: generic.MustParseDate("2021-06-01"), VacationDays: 12, UnionDays: 1},
		{ID: "head-1", Name: "Marta Sánchez", Role: leave.RoleAreaManager, Area: "Enfermería", HireDate: generic.MustParseDate("2015-02-01"), VacationDays: 20},
		{ID: "head-2", Name: "Elena Torres", Role: leave.RoleAreaManager, Area: "Farmacia", HireDate: generic.MustParseDate("2016-01-11"), VacationDays: 16},
		{ID: "hr-1", Name: "Pablo Ortega", Role: leave.RoleHRAdmin, Area: "Capital Humano", HireDate: generic.MustParseDate("2012-09-01"), VacationDays: 20},
	} {
		_, err := svc.CreateEmployee(ctx, emp)
		require.NoError(t, err)
	}

	return &testServer{
		router: api.NewRouter(api.NewHandler(svc, nil), opts),
		svc:    svc,
		clock:  clock,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func vacationBody(start, end string) api.SubmitRequest {
	return api.SubmitRequest{Category: "vacation", StartDate: start, EndDate: end}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestCreateEmployee_RoundTrip(t *testing.T) {
	// GIVEN: A valid employee body
	s := newTestServer(t, api.Options{})

	// WHEN: Creating then fetching the employee
	rec := s.do(t, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{
		ID:           "pharm-1",
		Name:         "Ana Gutiérrez",
		Email:        "ana@hospital.example",
		Role:         "worker",
		Area:         "Farmacia",
		HireDate:     "2019-01-15",
		BirthDate:    "1992-03-04",
		VacationDays: 10,
		StartTime:    "07:00",
		EndTime:      "15:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/employees/pharm-1", nil)

	// THEN: The stored fields come back in wire format
	require.Equal(t, http.StatusOK, rec.Code)
	emp := decodeBody[api.EmployeeDTO](t, rec)
	assert.Equal(t, "Ana Gutiérrez", emp.Name)
	assert.Equal(t, "worker", emp.Role)
	assert.Equal(t, "2019-01-15", emp.HireDate)
	assert.Equal(t, "1992-03-04", emp.BirthDate)
	assert.Equal(t, 10, emp.VacationDays)
	assert.Equal(t, "07:00", emp.StartTime)
	assert.Equal(t, []string{"Farmacia"}, emp.AuthorizedAreas)
}

func TestCreateEmployee_ValidationErrors(t *testing.T) {
	s := newTestServer(t, api.Options{})

	rec := s.do(t, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{
		Role:         "janitor",
		Area:         "Farmacia",
		HireDate:     "15/01/2019",
		VacationDays: -1,
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[api.ErrorResponse](t, rec)
	assert.Contains(t, body.Details, "name: required")
	assert.Contains(t, body.Details, "role: oneof")
	assert.Contains(t, body.Details, "hire_date: datetime")
	assert.Contains(t, body.Details, "vacation_days: gte")
}

func TestCreateEmployee_DuplicateIsConflict(t *testing.T) {
	s := newTestServer(t, api.Options{})

	rec := s.do(t, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{
		ID: "nurse-1", Name: "Otra Rosa", Role: "worker", Area: "Enfermería", HireDate: "2020-01-01",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetEmployee_NotFound(t *testing.T) {
	s := newTestServer(t, api.Options{})

	rec := s.do(t, http.MethodGet, "/api/employees/ghost", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListEmployees(t *testing.T) {
	s := newTestServer(t, api.Options{})

	rec := s.do(t, http.MethodGet, "/api/employees", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]api.EmployeeDTO](t, rec), 4)
}

func TestSetAuthorizations(t *testing.T) {
	s := newTestServer(t, api.Options{})

	rec := s.do(t, http.MethodPut, "/api/employees/head-1/authorizations",
		api.AuthorizationsRequest{Areas: []string{"Enfermería", " Urgencias ", "Urgencias"}})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"Enfermería", "Urgencias"}, decodeBody[api.EmployeeDTO](t, rec).AuthorizedAreas)

	// Workers have no approval scope to edit.
	rec = s.do(t, http.MethodPut, "/api/employees/nurse-1/authorizations",
		api.AuthorizationsRequest{Areas: []string{"Farmacia"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAdjustment(t *testing.T) {
	s := newTestServer(t, api.Options{})

	rec := s.do(t, http.MethodPost, "/api/employees/nurse-1/adjustments",
		api.AdjustmentRequest{Delta: 3, ActorID: "hr-1", Reason: "convenio"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 15, decodeBody[api.EmployeeDTO](t, rec).VacationDays)

	rec = s.do(t, http.MethodPost, "/api/employees/nurse-1/adjustments",
		api.AdjustmentRequest{Delta: -40, ActorID: "hr-1", Reason: "error de captura"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/employees/nurse-1/adjustments",
		api.AdjustmentRequest{Delta: 0, ActorID: "hr-1", Reason: "nada"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestSubmitRequest_Accepted(t *testing.T) {
	// GIVEN: A veteran nurse with 12 vacation days
	s := newTestServer(t, api.Options{})

	// WHEN: Submitting 5 days starting in 4 days
	rec := s.do(t, http.MethodPost, "/api/employees/nurse-1/requests", vacationBody("2024-06-19", "2024-06-23"))

	// THEN: The request is stored as pending
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	req := decodeBody[api.RequestDTO](t, rec)
	assert.Equal(t, "pending", req.Status)
	assert.Equal(t, 5, req.Days)
	assert.Equal(t, leave.VacationReason, req.Reason)
	assert.NotEmpty(t, req.ID)

	rec = s.do(t, http.MethodGet, "/api/requests/"+req.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, req.ID, decodeBody[api.RequestDTO](t, rec).ID)
}

func TestSubmitRequest_PassDuration(t *testing.T) {
	s := newTestServer(t, api.Options{})

	rec := s.do(t, http.MethodPost, "/api/employees/nurse-1/requests", api.SubmitRequest{
		Category: "exit_pass", StartDate: "2024-06-20", StartTime: "09:00", EndTime: "10:30",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	req := decodeBody[api.RequestDTO](t, rec)
	assert.Equal(t, 90, req.DurationMinutes)
	assert.Equal(t, "2024-06-20", req.EndDate)
	assert.Equal(t, "09:00", req.StartTime)
}

func TestSubmitRequest_RejectionBody(t *testing.T) {
	// GIVEN: A vacation starting in two days (72h notice required)
	s := newTestServer(t, api.Options{})

	// WHEN: Submitting
	rec := s.do(t, http.MethodPost, "/api/employees/nurse-1/requests", vacationBody("2024-06-17", "2024-06-18"))

	// THEN: 422 with the reason code and its context
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[api.RejectionDTO](t, rec)
	assert.Equal(t, string(leave.ReasonLeadTime), body.Code)
	assert.NotEmpty(t, body.Message)
	assert.EqualValues(t, 72, body.Context["minimum_hours"])
}

func TestSubmitRequest_MonthlyCapReportsRemaining(t *testing.T) {
	s := newTestServer(t, api.Options{})
	pass := func(from, to string) api.SubmitRequest {
		return api.SubmitRequest{Category: "entry_pass", StartDate: "2024-06-20", StartTime: from, EndTime: to}
	}

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/employees/nurse-1/requests", pass("07:00", "08:30")).Code)
	rec := s.do(t, http.MethodPost, "/api/employees/nurse-1/requests", pass("07:00", "08:00"))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody[api.RejectionDTO](t, rec)
	assert.Equal(t, string(leave.ReasonPassMonthlyCap), body.Code)
	assert.EqualValues(t, 30, body.Context["remaining_minutes"])
}

func TestSubmitRequest_MalformedInput(t *testing.T) {
	s := newTestServer(t, api.Options{})

	tests := []struct {
		name     string
		body     any
		wantCode string
	}{
		{"unknown category", api.SubmitRequest{Category: "sabbatical", StartDate: "2024-07-01"}, string(leave.ReasonUnknownCategory)},
		{"reversed range", vacationBody("2024-07-10", "2024-07-01"), string(leave.ReasonInvalidDateRange)},
		{"pass without times", api.SubmitRequest{Category: "exit_pass", StartDate: "2024-06-20"}, string(leave.ReasonInvalidTimeRange)},
		{"bad date format", api.SubmitRequest{Category: "vacation", StartDate: "01/07/2024"}, ""},
		{"missing category", api.SubmitRequest{StartDate: "2024-07-01"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/employees/nurse-1/requests", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeBody[api.RejectionDTO](t, rec).Code)
			}
		})
	}
}

func TestSubmitRequest_UnknownEmployee(t *testing.T) {
	s := newTestServer(t, api.Options{})

	rec := s.do(t, http.MethodPost, "/api/employees/ghost/requests", vacationBody("2024-07-01", "2024-07-02"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitRequest_RateLimitedPerEmployee(t *testing.T) {
	// GIVEN: A limit of two submissions per minute
	s := newTestServer(t, api.Options{SubmitRateLimit: 2})

	// WHEN: The same employee submits three times
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, s.do(t, http.MethodPost, "/api/employees/nurse-1/requests", map[string]string{}).Code)
	}

	// THEN: The third is throttled, another employee is not
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/employees/head-1/requests", map[string]string{}).Code)
}

func TestListEmployeeRequests_NewestFirst(t *testing.T) {
	s := newTestServer(t, api.Options{})

	first := decodeBody[api.RequestDTO](t, s.do(t, http.MethodPost, "/api/employees/nurse-1/requests", vacationBody("2024-07-01", "2024-07-02")))
	s.clock.Advance(time.Minute)
	second := decodeBody[api.RequestDTO](t, s.do(t, http.MethodPost, "/api/employees/nurse-1/requests", vacationBody("2024-08-01", "2024-08-02")))

	rec := s.do(t, http.MethodGet, "/api/employees/nurse-1/requests", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]api.RequestDTO](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

// =============================================================================
// DECISIONS
// =============================================================================

func TestDecision_TwoTierApproval(t *testing.T) {
	// GIVEN: A pending 5-day vacation
	s := newTestServer(t, api.Options{})
	req := decodeBody[api.RequestDTO](t, s.do(t, http.MethodPost, "/api/employees/nurse-1/requests", vacationBody("2024-06-19", "2024-06-23")))
	decision := "/api/requests/" + req.ID + "/decision"

	// WHEN: The area manager then HR approve
	rec := s.do(t, http.MethodPost, decision, api.DecisionRequest{DeciderID: "head-1", Verdict: "approve", Note: "cubierto por turno B"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	afterManager := decodeBody[api.RequestDTO](t, rec)

	rec = s.do(t, http.MethodPost, decision, api.DecisionRequest{DeciderID: "hr-1", Verdict: "approve"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	afterHR := decodeBody[api.RequestDTO](t, rec)

	// THEN: Both tiers are recorded and the balance is consumed
	assert.Equal(t, "approved_by_manager", afterManager.Status)
	assert.Equal(t, "head-1", afterManager.ManagerID)
	assert.Equal(t, "cubierto por turno B", afterManager.ManagerNote)
	assert.NotEmpty(t, afterManager.ManagerDecidedAt)
	assert.Equal(t, "approved_by_hr", afterHR.Status)
	assert.Equal(t, "hr-1", afterHR.HRID)

	balances := decodeBody[api.BalancesDTO](t, s.do(t, http.MethodGet, "/api/employees/nurse-1/balances", nil))
	assert.Equal(t, 7, balances.VacationDays)

	// AND: A terminal request cannot be decided again
	rec = s.do(t, http.MethodPost, decision, api.DecisionRequest{DeciderID: "hr-1", Verdict: "reject"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDecision_Authorization(t *testing.T) {
	s := newTestServer(t, api.Options{})
	req := decodeBody[api.RequestDTO](t, s.do(t, http.MethodPost, "/api/employees/nurse-1/requests", vacationBody("2024-06-19", "2024-06-20")))
	decision := "/api/requests/" + req.ID + "/decision"

	tests := []struct {
		name    string
		decider string
		want    int
	}{
		{"worker", "nurse-1", http.StatusForbidden},
		{"manager of another area", "head-2", http.StatusForbidden},
		{"unknown decider", "ghost", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, decision, api.DecisionRequest{DeciderID: tt.decider, Verdict: "approve"})
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	rec := s.do(t, http.MethodPost, decision, api.DecisionRequest{DeciderID: "head-1", Verdict: "maybe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/requests/ghost/decision", api.DecisionRequest{DeciderID: "hr-1", Verdict: "approve"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListQueue(t *testing.T) {
	s := newTestServer(t, api.Options{})
	req := decodeBody[api.RequestDTO](t, s.do(t, http.MethodPost, "/api/employees/nurse-1/requests", vacationBody("2024-06-19", "2024-06-20")))

	ids := func(approver string) []string {
		rec := s.do(t, http.MethodGet, "/api/employees/"+approver+"/queue", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var out []string
		for _, r := range decodeBody[[]api.RequestDTO](t, rec) {
			out = append(out, r.ID)
		}
		return out
	}

	assert.Equal(t, []string{req.ID}, ids("head-1"))
	assert.Equal(t, []string{req.ID}, ids("hr-1"))
	assert.Empty(t, ids("head-2"))
	assert.Empty(t, ids("nurse-1"))
}

// =============================================================================
// BALANCES, MOVEMENTS, HEALTH
// =============================================================================

func TestGetBalances(t *testing.T) {
	s := newTestServer(t, api.Options{})

	rec := s.do(t, http.MethodGet, "/api/employees/nurse-1/balances?as_of=2024-06-01", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	b := decodeBody[api.BalancesDTO](t, rec)
	assert.Equal(t, "2024-06-01", b.AsOf)
	assert.Equal(t, 12, b.VacationDays)
	assert.True(t, b.UnionDayAvailable)
	assert.Equal(t, 120, b.PassMinutesRemaining)
	assert.Equal(t, 3, b.SeniorityYears)
	assert.True(t, b.IsWorkAnniversary)
	assert.Equal(t, "2024-06-01", b.WindowStart)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/employees/nurse-1/balances?as_of=junio", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/employees/ghost/balances", nil).Code)
}

// stalledHistory parks the first armed history read after it has loaded
// its rows, holding a balance projection open across a concurrent write.
type stalledHistory struct {
	*memstore.Store
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (s *stalledHistory) ListRequestsByEmployee(ctx context.Context, id generic.EntityID) ([]leave.Request, error) {
	reqs, err := s.Store.ListRequestsByEmployee(ctx, id)
	if s.armed.CompareAndSwap(true, false) {
		close(s.entered)
		<-s.release
	}
	return reqs, err
}

func TestGetBalances_ReadAfterSubmitSeesIt(t *testing.T) {
	// GIVEN: A balance read stalled mid-projection
	store := &stalledHistory{Store: memstore.New(), entered: make(chan struct{}), release: make(chan struct{})}
	var releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(store.release) }) }
	t.Cleanup(unblock)

	svc := leave.NewService(store, lock.NewKeyedMutex(), generic.NewFixedClock(fixedNow), zerolog.Nop())
	_, err := svc.CreateEmployee(context.Background(), leave.Employee{
		ID: "nurse-1", Name: "Rosa Díaz", Role: leave.RoleWorker, Area: "Enfermería",
		HireDate: generic.MustParseDate("2021-06-01"), VacationDays: 12,
	})
	require.NoError(t, err)
	router := api.NewRouter(api.NewHandler(svc, nil), api.Options{})
	serve := func(method, path string, body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	store.armed.Store(true)
	stale := make(chan *httptest.ResponseRecorder, 1)
	go func() { stale <- serve(http.MethodGet, "/api/employees/nurse-1/balances", nil) }()
	<-store.entered

	// WHEN: A pass is submitted and balances are read again
	body, err := json.Marshal(api.SubmitRequest{Category: "exit_pass", StartDate: "2024-06-18", StartTime: "08:00", EndTime: "08:45"})
	require.NoError(t, err)
	rec := serve(http.MethodPost, "/api/employees/nurse-1/requests", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	fresh := make(chan *httptest.ResponseRecorder, 1)
	go func() { fresh <- serve(http.MethodGet, "/api/employees/nurse-1/balances", nil) }()

	// THEN: The second read runs its own projection and includes the pass
	select {
	case rec := <-fresh:
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, 45, decodeBody[api.BalancesDTO](t, rec).PassMinutesUsed)
	case <-time.After(2 * time.Second):
		t.Fatal("balance read waited on a projection started before the submit")
	}

	unblock()
	old := <-stale
	require.Equal(t, http.StatusOK, old.Code)
	assert.Equal(t, 0, decodeBody[api.BalancesDTO](t, old).PassMinutesUsed)
}

func TestListMovements_OpeningGrants(t *testing.T) {
	s := newTestServer(t, api.Options{})

	rec := s.do(t, http.MethodGet, "/api/employees/nurse-1/movements", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	movements := decodeBody[[]api.MovementDTO](t, rec)
	require.Len(t, movements, 2)
	total := map[string]float64{}
	for _, m := range movements {
		assert.Equal(t, "grant", m.Type)
		total[m.Category] += m.Delta
	}
	assert.Equal(t, 12.0, total["vacation"])
	assert.Equal(t, 1.0, total["union_day"])
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }

func TestHealth(t *testing.T) {
	s := newTestServer(t, api.Options{})
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", nil).Code)

	down := api.NewRouter(api.NewHandler(s.svc, failingPinger{}), api.Options{})
	rec := httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, api.Options{CORSOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/employees", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSPreflight_WildcardOmitsCredentials(t *testing.T) {
	// GIVEN: The default wildcard origin list
	s := newTestServer(t, api.Options{CORSOrigins: []string{"*"}})

	// WHEN: Any site sends a preflight
	req := httptest.NewRequest(http.MethodOptions, "/api/employees", nil)
	req.Header.Set("Origin", "https://other.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	// THEN: The origin may be allowed but credentials are not
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}
