// Package fixtures manages the employee that each scenario starts with, and cleans up entities
// that earlier runs left behind.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/employee-demo/employee-contract-tests/apiclient"
	"github.com/employee-demo/employee-contract-tests/apidef"
	"github.com/employee-demo/employee-contract-tests/framework"
	o "github.com/employee-demo/employee-contract-tests/framework/opt"
	"github.com/employee-demo/employee-contract-tests/ledger"
)

var (
	// ErrFixtureCreate is wrapped by errors from Manager.Setup.
	ErrFixtureCreate = errors.New("failed to create test employee")

	// ErrFixtureDelete is wrapped by errors from Manager.Teardown.
	ErrFixtureDelete = errors.New("failed to delete test employee")

	// ErrFixtureExists is returned by Setup if a fixture is already held.
	ErrFixtureExists = errors.New("a test employee already exists for this scenario")
)

// State is the lifecycle state of a Manager.
type State int

const (
	NoFixture State = iota
	Creating
	Ready
	Deleting
)

func (s State) String() string {
	switch s {
	case NoFixture:
		return "NoFixture"
	case Creating:
		return "Creating"
	case Ready:
		return "Ready"
	case Deleting:
		return "Deleting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// TeardownPolicy decides whether a fixture that is already gone fails the teardown.
type TeardownPolicy int

const (
	// StrictTeardown requires the delete request to succeed.
	StrictTeardown TeardownPolicy = iota

	// TolerateMissing also accepts a 404, for scenarios that delete their own fixture.
	TolerateMissing
)

// ManagerConfig contains the optional parts of a Manager.
type ManagerConfig struct {
	Policy    TeardownPolicy
	Ledger    ledger.Ledger
	Namespace string
	RunID     string
	Logger    framework.Logger

	// Token is recorded with each ledger entry so that a sweep can still recognize the fixture
	// after a scenario changes its email.
	Token string
}

// Manager owns the fixture employee of one scenario: Setup creates it, Teardown deletes it.
// A Manager is not safe for concurrent use; scenarios run sequentially.
type Manager struct {
	client   *apiclient.Client
	config   ManagerConfig
	state    State
	employee o.Maybe[apidef.Employee]
}

func NewManager(client *apiclient.Client, config ManagerConfig) *Manager {
	if config.Logger == nil {
		config.Logger = framework.NullLogger()
	}
	if config.Namespace == "" {
		config.Namespace = ledger.DefaultNamespace
	}
	return &Manager{client: client, config: config}
}

func (m *Manager) State() State { return m.state }

// ID returns the id of the fixture, if one is held.
func (m *Manager) ID() o.Maybe[int64] {
	if e, ok := m.employee.Get(); ok {
		return o.Some(e.ID)
	}
	return o.None[int64]()
}

// Employee returns the fixture as the API returned it on creation.
func (m *Manager) Employee() o.Maybe[apidef.Employee] { return m.employee }

// Setup creates the fixture. The create request must return 201 with an id. On failure the
// Manager holds no fixture and the error wraps ErrFixtureCreate.
func (m *Manager) Setup(ctx context.Context, params apidef.EmployeeParams) (apidef.Employee, error) {
	if m.state != NoFixture {
		return apidef.Employee{}, ErrFixtureExists
	}
	m.state = Creating
	employee, err := m.create(ctx, params)
	if err != nil {
		m.state = NoFixture
		m.config.Logger.Printf("Failed to create test employee: %s", err)
		return apidef.Employee{}, fmt.Errorf("%w: %w", ErrFixtureCreate, err)
	}
	m.employee = o.Some(employee)
	m.state = Ready
	m.config.Logger.Printf("Created test employee %d", employee.ID)
	m.record(ctx, employee)
	return employee, nil
}

func (m *Manager) create(ctx context.Context, params apidef.EmployeeParams) (apidef.Employee, error) {
	resp, err := m.client.Create(ctx, params)
	if err != nil {
		return apidef.Employee{}, err
	}
	if err := resp.Expect(http.StatusCreated); err != nil {
		return apidef.Employee{}, err
	}
	employee, err := apidef.ParseEmployee(resp.Body)
	if err != nil {
		return apidef.Employee{}, err
	}
	if employee.ID <= 0 {
		return apidef.Employee{}, fmt.Errorf("created employee has invalid id %d", employee.ID)
	}
	return employee, nil
}

// Teardown deletes the fixture, if any. Without a fixture it does nothing. Whatever the outcome,
// the Manager afterward holds no fixture; a failure is logged and returned wrapping
// ErrFixtureDelete, and the ledger entry is kept so that a later sweep can retry.
func (m *Manager) Teardown(ctx context.Context) error {
	id, ok := m.ID().Get()
	if !ok {
		return nil
	}
	m.state = Deleting
	defer func() {
		m.employee = o.None[apidef.Employee]()
		m.state = NoFixture
	}()

	accepted := []int{http.StatusOK}
	if m.config.Policy == TolerateMissing {
		accepted = append(accepted, http.StatusNotFound)
	}
	if err := m.delete(ctx, id, accepted...); err != nil {
		m.config.Logger.Printf("Failed to delete test employee: %s", err)
		return fmt.Errorf("%w %d: %w", ErrFixtureDelete, id, err)
	}
	m.config.Logger.Printf("Deleted test employee %d", id)
	return nil
}

// Adopt records an employee that a scenario created itself, so that it is swept if Discard is
// never called for it.
func (m *Manager) Adopt(ctx context.Context, employee apidef.Employee) {
	m.record(ctx, employee)
}

// Discard deletes an employee that a scenario created, accepting 404 since the scenario may
// have deleted it already.
func (m *Manager) Discard(ctx context.Context, id int64) error {
	return m.delete(ctx, id, http.StatusOK, http.StatusNotFound)
}

func (m *Manager) delete(ctx context.Context, id int64, accepted ...int) error {
	resp, err := m.client.Delete(ctx, id)
	if err != nil {
		return err
	}
	if err := resp.Expect(accepted...); err != nil {
		return err
	}
	m.forget(ctx, id)
	return nil
}

func (m *Manager) record(ctx context.Context, employee apidef.Employee) {
	if m.config.Ledger == nil {
		return
	}
	entry := ledger.Entry{
		Namespace: m.config.Namespace,
		ID:        employee.ID,
		Email:     employee.Email,
		RunID:     m.config.RunID,
		Token:     m.config.Token,
	}
	if err := m.config.Ledger.Record(ctx, entry); err != nil {
		m.config.Logger.Printf("Unable to record employee %d in ledger: %s", employee.ID, err)
	}
}

func (m *Manager) forget(ctx context.Context, id int64) {
	if m.config.Ledger == nil {
		return
	}
	if err := m.config.Ledger.Forget(ctx, m.config.Namespace, id); err != nil {
		m.config.Logger.Printf("Unable to remove employee %d from ledger: %s", id, err)
	}
}
