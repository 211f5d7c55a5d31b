// Package mockapi is an in-memory implementation of the employee API. It exists so that the
// suite, the fixture manager and the client can be tested without a real deployment; it
// reproduces the status codes and bodies of the real service, and can be told to misbehave.
package mockapi

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/employee-demo/employee-contract-tests/apidef"
	"github.com/employee-demo/employee-contract-tests/framework"
	"github.com/employee-demo/employee-contract-tests/framework/helpers"
)

// Service is an http.Handler serving the employee API from memory. It is safe for concurrent
// use.
type Service struct {
	handler     http.Handler
	logger      framework.Logger
	employees   map[int64]apidef.Employee
	lastID      int64
	unavailable int
	faults      map[string]int
	requests    int
	lock        sync.Mutex
}

// Option configures a Service.
type Option helpers.ConfigOptionFunc[Service]

func (o Option) Configure(s *Service) error { return o(s) }

// WithLogger logs the method and path of every request.
func WithLogger(logger framework.Logger) Option {
	return func(s *Service) error {
		s.logger = framework.LoggerWithPrefix(logger, "[mockapi] ")
		return nil
	}
}

// WithUnavailableRequests makes the service answer 503 to its first n requests, like a service
// that is still starting up.
func WithUnavailableRequests(n int) Option {
	return func(s *Service) error {
		s.unavailable = n
		return nil
	}
}

// WithFault makes every request with the given method fail with the given status.
func WithFault(method string, status int) Option {
	return func(s *Service) error {
		s.faults[method] = status
		return nil
	}
}

// WithEmployees preloads employees. Ids assigned later continue after the highest preloaded id.
func WithEmployees(employees ...apidef.Employee) Option {
	return func(s *Service) error {
		for _, e := range employees {
			s.employees[e.ID] = e
			if e.ID > s.lastID {
				s.lastID = e.ID
			}
		}
		return nil
	}
}

// NewService creates a Service. It panics if an option returns an error.
func NewService(options ...Option) *Service {
	s := &Service{
		logger:    framework.NullLogger(),
		employees: make(map[int64]apidef.Employee),
		faults:    make(map[string]int),
	}
	if err := helpers.ApplyOptions(s, options...); err != nil {
		panic(err)
	}

	router := mux.NewRouter()
	router.HandleFunc(apidef.EmployeesPath, s.listEmployees).Methods("GET")
	router.HandleFunc(apidef.EmployeesPath, s.createEmployee).Methods("POST")
	router.HandleFunc(apidef.EmployeesPath+"/{id:[0-9]+}", s.getEmployee).Methods("GET")
	router.HandleFunc(apidef.EmployeesPath+"/{id:[0-9]+}", s.updateEmployee).Methods("PUT")
	router.HandleFunc(apidef.EmployeesPath+"/{id:[0-9]+}", s.deleteEmployee).Methods("DELETE")
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "")
	})
	s.handler = router
	return s
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	s.requests++
	unavailable := s.unavailable > 0
	if unavailable {
		s.unavailable--
	}
	faultStatus, fault := s.faults[r.Method]
	s.lock.Unlock()

	s.logger.Printf("%s %s", r.Method, r.URL.Path)
	switch {
	case unavailable:
		writeError(w, r, http.StatusServiceUnavailable, "starting up")
	case fault:
		writeError(w, r, faultStatus, "injected fault")
	default:
		s.handler.ServeHTTP(w, r)
	}
}

// ClearFaults removes every fault added with WithFault.
func (s *Service) ClearFaults() {
	s.lock.Lock()
	defer s.lock.Unlock()
	maps.Clear(s.faults)
}

// RequestCount returns the number of requests received so far.
func (s *Service) RequestCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.requests
}

// Employees returns the stored employees ordered by id.
func (s *Service) Employees() []apidef.Employee {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.sortedEmployees()
}

// Contains returns true if an employee with the id exists.
func (s *Service) Contains(id int64) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	_, ok := s.employees[id]
	return ok
}

func (s *Service) sortedEmployees() []apidef.Employee {
	ids := maps.Keys(s.employees)
	slices.Sort(ids)
	ret := make([]apidef.Employee, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, s.employees[id])
	}
	return ret
}

func (s *Service) listEmployees(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	list := s.sortedEmployees()
	s.lock.Unlock()
	writeJSON(w, http.StatusOK, helpers.AsJSONString(list))
}

func (s *Service) createEmployee(w http.ResponseWriter, r *http.Request) {
	params, ok := readParams(w, r)
	if !ok {
		return
	}
	email := params.Email.Value()
	if strings.TrimSpace(email) == "" {
		writeError(w, r, http.StatusBadRequest, "Email is required")
		return
	}

	s.lock.Lock()
	if s.emailInUse(email, 0) {
		s.lock.Unlock()
		writeError(w, r, http.StatusConflict, "Email already exists: "+email)
		return
	}
	s.lastID++
	e := apidef.Employee{ID: s.lastID, Name: params.Name, Address: params.Address, Email: email}
	s.employees[e.ID] = e
	s.lock.Unlock()

	writeJSON(w, http.StatusCreated, helpers.AsJSONString(e))
}

func (s *Service) getEmployee(w http.ResponseWriter, r *http.Request) {
	id := employeeID(r)
	s.lock.Lock()
	e, ok := s.employees[id]
	s.lock.Unlock()
	if !ok {
		writeError(w, r, http.StatusNotFound, "")
		return
	}
	writeJSON(w, http.StatusOK, helpers.AsJSONString(e))
}

// updateEmployee does not validate the email, matching the real service; an absent email leaves
// the stored one unchanged.
func (s *Service) updateEmployee(w http.ResponseWriter, r *http.Request) {
	id := employeeID(r)
	params, ok := readParams(w, r)
	if !ok {
		return
	}

	s.lock.Lock()
	e, found := s.employees[id]
	if !found {
		s.lock.Unlock()
		writeError(w, r, http.StatusNotFound, "")
		return
	}
	email := params.Email.OrElse(e.Email)
	if s.emailInUse(email, id) {
		s.lock.Unlock()
		writeError(w, r, http.StatusConflict, "Email already exists: "+email)
		return
	}
	e.Name, e.Address, e.Email = params.Name, params.Address, email
	s.employees[id] = e
	s.lock.Unlock()

	writeJSON(w, http.StatusOK, helpers.AsJSONString(e))
}

func (s *Service) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := employeeID(r)
	s.lock.Lock()
	_, found := s.employees[id]
	delete(s.employees, id)
	s.lock.Unlock()
	if !found {
		writeError(w, r, http.StatusNotFound, "")
		return
	}
	w.Header().Set("Content-Type", "text/plain;charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(apidef.DeleteSuccessMessage))
}

// emailInUse must be called with the lock held.
func (s *Service) emailInUse(email string, exceptID int64) bool {
	for id, e := range s.employees {
		if id != exceptID && e.Email == email {
			return true
		}
	}
	return false
}

func employeeID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func readParams(w http.ResponseWriter, r *http.Request) (apidef.EmployeeParams, bool) {
	var params apidef.EmployeeParams
	body, err := io.ReadAll(r.Body)
	if err == nil {
		err = params.UnmarshalJSON(body)
	}
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Malformed JSON request")
		return params, false
	}
	return params, true
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	b := ldvalue.ObjectBuild().
		SetString("timestamp", time.Now().UTC().Format("2006-01-02T15:04:05.000-07:00")).
		SetInt("status", status).
		SetString("error", http.StatusText(status)).
		SetString("path", r.URL.Path)
	if message != "" {
		b.SetString("message", message)
	}
	writeJSON(w, status, b.Build().JSONString())
}
