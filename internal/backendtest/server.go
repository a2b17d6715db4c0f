// Package backendtest runs an in-memory stand-in for the Inkasso backend on
// an httptest server. Totals are derived server-side the way the real backend
// does it, so tests can check that clients re-read them instead of computing.
package backendtest

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
	"github.com/JAlbrecht-svg/inkasso-console/internal/repository"
	"github.com/JAlbrecht-svg/inkasso-console/internal/transport"
)

// Token is the bearer token the fake backend accepts.
const Token = "test-token-0123456789"

// Route names, usable with Calls, LastQuery, Fail and Hold.
const (
	RouteListCases    = "cases.list"
	RouteGetCase      = "cases.get"
	RouteUpdateCase   = "cases.update"
	RouteListPayments = "payments.list"
	RouteAddPayment   = "payments.create"
	RouteListActions  = "actions.list"
	RouteAddAction    = "actions.create"
	RouteUpdateAction = "actions.update"
	RouteListDebtors  = "debtors.list"
	RouteGetDebtor    = "debtors.get"
	RouteUpdateDebtor = "debtors.update"
	RouteListMandants = "mandanten.list"
	RouteGetMandant   = "mandanten.get"
	RouteListOrders   = "auftraege.list"
	RouteMandantOrder = "mandanten.auftraege"
	RouteGetOrder     = "auftraege.get"
	RouteListFlows    = "workflows.list"
	RouteListSteps    = "workflows.steps"
)

type failure struct {
	status int
	body   string
}

// Server is the fake backend.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	cases     map[string]*model.Case
	payments  map[string][]model.Payment
	actions   map[string][]model.Action
	debtors   map[string]*model.Debtor
	mandanten []model.Mandant
	auftraege []model.Auftrag
	workflows []model.Workflow
	steps     map[string][]model.WorkflowStep

	calls    map[string]int
	queries  map[string]url.Values
	bodies   map[string][]byte
	failures map[string]failure
	holds    map[string]chan struct{}
}

// NewServer starts a fake backend with the standard fixtures and closes it
// when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		cases:    map[string]*model.Case{},
		payments: map[string][]model.Payment{},
		actions:  map[string][]model.Action{},
		debtors:  map[string]*model.Debtor{},
		steps:    map[string][]model.WorkflowStep{},
		calls:    map[string]int{},
		queries:  map[string]url.Values{},
		bodies:   map[string][]byte{},
		failures: map[string]failure{},
		holds:    map[string]chan struct{}{},
	}
	s.seed()
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

// Client returns a transport client pointed at the fake backend.
func (s *Server) Client(logger *log.Logger) *transport.Client {
	return transport.New(transport.Config{
		Endpoint: transport.EndpointFunc(func() string { return s.URL }),
		Tokens:   transport.TokenFunc(func() (string, error) { return Token, nil }),
		Timeout:  5 * time.Second,
	}, logger)
}

// Repository returns a repository backed by Client.
func (s *Server) Repository() *repository.Repository {
	return repository.New(s.Client(nil))
}

// Calls is the number of requests served on route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// LastQuery is the query string of the latest request on route.
func (s *Server) LastQuery(route string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[route]
}

// LastBody is the raw body of the latest request on route.
func (s *Server) LastBody(route string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodies[route]
}

// Fail makes every following request on route answer with status and body
// until Recover is called.
func (s *Server) Fail(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, body: body}
}

// Recover clears a failure set with Fail.
func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Hold blocks requests on route until the returned release func is called.
func (s *Server) Hold(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[route] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.holds, route)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Case returns the stored copy of a case.
func (s *Server) Case(id string) (model.Case, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return model.Case{}, false
	}
	return *c, true
}

// PutCase inserts or replaces a case, for setting up test states.
func (s *Server) PutCase(c model.Case) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := c
	s.cases[c.ID] = &cp
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter().UseEncodedPath()
	r.Use(s.track)

	r.HandleFunc("/cases", s.listCases).Methods("GET").Name(RouteListCases)
	r.HandleFunc("/cases/{id}", s.getCase).Methods("GET").Name(RouteGetCase)
	r.HandleFunc("/cases/{id}", s.updateCase).Methods("PUT").Name(RouteUpdateCase)
	r.HandleFunc("/cases/{id}/payments", s.listPayments).Methods("GET").Name(RouteListPayments)
	r.HandleFunc("/cases/{id}/actions", s.listActions).Methods("GET").Name(RouteListActions)
	r.HandleFunc("/payments", s.createPayment).Methods("POST").Name(RouteAddPayment)
	r.HandleFunc("/actions", s.createAction).Methods("POST").Name(RouteAddAction)
	r.HandleFunc("/actions/{id}", s.updateAction).Methods("PUT").Name(RouteUpdateAction)
	r.HandleFunc("/debtors", s.listDebtors).Methods("GET").Name(RouteListDebtors)
	r.HandleFunc("/debtors/{id}", s.getDebtor).Methods("GET").Name(RouteGetDebtor)
	r.HandleFunc("/debtors/{id}", s.updateDebtor).Methods("PUT").Name(RouteUpdateDebtor)
	r.HandleFunc("/mandanten", s.listMandanten).Methods("GET").Name(RouteListMandants)
	r.HandleFunc("/mandanten/{id}", s.getMandant).Methods("GET").Name(RouteGetMandant)
	r.HandleFunc("/mandanten/{id}/auftraege", s.listAuftraege).Methods("GET").Name(RouteMandantOrder)
	r.HandleFunc("/auftraege", s.listAuftraege).Methods("GET").Name(RouteListOrders)
	r.HandleFunc("/auftraege/{id}", s.getAuftrag).Methods("GET").Name(RouteGetOrder)
	r.HandleFunc("/workflows", s.listWorkflows).Methods("GET").Name(RouteListFlows)
	r.HandleFunc("/workflows/{id}/steps", s.listSteps).Methods("GET").Name(RouteListSteps)
	return r
}

// track counts calls, checks the bearer token and applies Fail/Hold.
func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.calls[name]++
		s.queries[name] = r.URL.Query()
		s.bodies[name] = body
		fail, failing := s.failures[name]
		hold := s.holds[name]
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if r.Header.Get("Authorization") != "Bearer "+Token {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if failing {
			w.WriteHeader(fail.status)
			_, _ = io.WriteString(w, fail.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func (s *Server) listCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))

	s.mu.Lock()
	out := make([]model.Case, 0, len(s.cases))
	for _, c := range s.cases {
		if v := q.Get("status"); v != "" && string(c.Status) != v {
			continue
		}
		if v := q.Get("auftragId"); v != "" && c.AuftragID != v {
			continue
		}
		if v := q.Get("debtorId"); v != "" && c.DebtorID != v {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.CaseReference), search) &&
			!strings.Contains(strings.ToLower(c.DebtorName), search) {
			continue
		}
		out = append(out, *c)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, page(out, q))
}

func page[T any](items []T, q url.Values) []T {
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset > len(items) {
		offset = len(items)
	}
	items = items[offset:]
	if limit, _ := strconv.Atoi(q.Get("limit")); limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (s *Server) getCase(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, ok := s.Case(id)
	if !ok {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateCase(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var payload model.UpdateCasePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	c, ok := s.cases[id]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	if payload.Status != nil {
		c.Status = *payload.Status
	}
	if payload.ReasonForClaim != nil {
		c.ReasonForClaim = *payload.ReasonForClaim
	}
	if payload.DueDate != nil {
		c.DueDate = *payload.DueDate
	}
	if payload.ClosedAt != nil {
		c.ClosedAt = *payload.ClosedAt
	}
	c.UpdatedAt = now()
	out := *c
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	out := append([]model.Payment{}, s.payments[id]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createPayment(w http.ResponseWriter, r *http.Request) {
	var payload model.CreatePaymentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[payload.CaseID]
	if !ok {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	p := model.Payment{
		ID:          "P-" + uuid.NewString(),
		CaseID:      payload.CaseID,
		Amount:      payload.Amount,
		PaymentDate: payload.PaymentDate,
		RecordedAt:  now(),
	}
	if payload.PaymentMethod != nil {
		p.PaymentMethod = *payload.PaymentMethod
	}
	if payload.Reference != nil {
		p.Reference = *payload.Reference
	}
	if payload.Notes != nil {
		p.Notes = *payload.Notes
	}
	s.payments[p.CaseID] = append(s.payments[p.CaseID], p)
	c.PaidAmount += p.Amount
	c.UpdatedAt = p.RecordedAt
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) listActions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	out := append([]model.Action{}, s.actions[id]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createAction(w http.ResponseWriter, r *http.Request) {
	var payload model.CreateActionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[payload.CaseID]
	if !ok {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	a := model.Action{
		ID:         "A-" + uuid.NewString(),
		CaseID:     payload.CaseID,
		ActionType: payload.ActionType,
		ActionDate: now(),
		Cost:       payload.CostValue(),
		CreatedAt:  now(),
	}
	if payload.ActionDate != nil {
		a.ActionDate = *payload.ActionDate
	}
	if payload.Notes != nil {
		a.Notes = *payload.Notes
	}
	if payload.CreatedByUser != nil {
		a.CreatedByUser = *payload.CreatedByUser
	}
	s.actions[a.CaseID] = append(s.actions[a.CaseID], a)
	if a.Cost > 0 {
		c.FeesAmount += a.Cost
		c.UpdatedAt = a.CreatedAt
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) updateAction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var payload model.UpdateActionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for caseID, list := range s.actions {
		for i := range list {
			if list[i].ID != id {
				continue
			}
			if payload.Notes != nil {
				list[i].Notes = *payload.Notes
			}
			s.actions[caseID] = list
			writeJSON(w, http.StatusOK, list[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "action not found")
}

func (s *Server) listDebtors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))

	s.mu.Lock()
	out := make([]model.Debtor, 0, len(s.debtors))
	for _, d := range s.debtors {
		if search != "" && !strings.Contains(strings.ToLower(d.Name), search) {
			continue
		}
		out = append(out, *d)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, page(out, q))
}

func (s *Server) getDebtor(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	d, ok := s.debtors[id]
	var out model.Debtor
	if ok {
		out = *d
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "debtor not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateDebtor(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var p model.UpdateDebtorPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debtors[id]
	if !ok {
		writeError(w, http.StatusNotFound, "debtor not found")
		return
	}
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&d.Name, p.Name)
	apply(&d.AddressStreet, p.AddressStreet)
	apply(&d.AddressZip, p.AddressZip)
	apply(&d.AddressCity, p.AddressCity)
	apply(&d.AddressCountry, p.AddressCountry)
	apply(&d.Email, p.Email)
	apply(&d.Phone, p.Phone)
	apply(&d.DebtorType, p.DebtorType)
	apply(&d.Notes, p.Notes)
	d.UpdatedAt = now()
	writeJSON(w, http.StatusOK, *d)
}

func (s *Server) listMandanten(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]model.Mandant{}, s.mandanten...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getMandant(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.mandanten {
		if m.ID == id {
			writeJSON(w, http.StatusOK, m)
			return
		}
	}
	writeError(w, http.StatusNotFound, "mandant not found")
}

func (s *Server) listAuftraege(w http.ResponseWriter, r *http.Request) {
	mandantID := mux.Vars(r)["id"]
	s.mu.Lock()
	out := make([]model.Auftrag, 0, len(s.auftraege))
	for _, a := range s.auftraege {
		if mandantID == "" || a.MandantID == mandantID {
			out = append(out, a)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getAuftrag(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.auftraege {
		if a.ID == id {
			writeJSON(w, http.StatusOK, a)
			return
		}
	}
	writeError(w, http.StatusNotFound, "auftrag not found")
}

func (s *Server) listWorkflows(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]model.Workflow{}, s.workflows...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listSteps(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	out := append([]model.WorkflowStep{}, s.steps[id]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}
