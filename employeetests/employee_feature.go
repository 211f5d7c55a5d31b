package employeetests

import (
	"strconv"

	"github.com/stretchr/testify/require"

	"github.com/employee-demo/employee-contract-tests/apidef"
	"github.com/employee-demo/employee-contract-tests/fixtures"
	"github.com/employee-demo/employee-contract-tests/framework/scenario"
)

const fixturePayload = "fixture-employee"

// employeeTests holds the state of the scenario that is currently running. Scenarios run one at
// a time, so a single instance serves the whole feature.
type employeeTests struct {
	manager *fixtures.Manager
	client  *EmployeeClient
}

func newEmployeeFeature(t *scenario.T) *scenario.Feature {
	s := &employeeTests{}
	return scenario.NewFeature("employee").
		Before(s.awaitReady).
		Before(s.createFixture).
		After(s.deleteFixture).
		Scenario("create employee", s.createEmployee).
		Scenario("get employee by id", s.getEmployeeByID).
		Scenario("get all employees", s.getAllEmployees).
		Scenario("update employee", s.updateEmployee).
		Scenario("delete employee", s.deleteEmployee).
		Scenario("get employee by invalid id", s.getEmployeeByInvalidID).
		Scenario("create employee with missing fields", s.createEmployeeWithMissingFields).
		Scenario("create employee with invalid email", s.createEmployeeWithInvalidEmail).
		Scenario("create employee with duplicate email", s.createEmployeeWithDuplicateEmail).
		Scenario("update nonexistent employee", s.updateNonexistentEmployee)
}

func (s *employeeTests) awaitReady(t *scenario.T) {
	c := requireContext(t)
	s.manager = fixtures.NewManager(c.config.Client.WithLogger(t.DebugLogger()), fixtures.ManagerConfig{
		Policy: c.config.TeardownPolicy,
		Ledger: c.config.Ledger,
		RunID:  c.config.Token.RunID(),
		Token:  c.config.Token.String(),
		Logger: t.DebugLogger(),
	})
	s.client = newEmployeeClient(t, s.manager)
	require.NoError(t, c.config.Prober.WithLogger(t.DebugLogger()).AwaitReady(c.config.Context))
}

func (s *employeeTests) createFixture(t *scenario.T) {
	params := requireEmployeeParams(t, fixturePayload)
	employee, err := s.manager.Setup(requireContext(t).config.Context, params)
	require.NoError(t, err)
	t.SetProperty("fixture.id", strconv.FormatInt(employee.ID, 10))
	t.SetProperty("fixture.email", employee.Email)
}

func (s *employeeTests) deleteFixture(t *scenario.T) {
	manager := s.manager
	s.manager, s.client = nil, nil
	if manager == nil {
		return
	}
	require.NoError(t, manager.Teardown(requireContext(t).config.Context))
}

// fixture returns the employee created by the Before hook.
func (s *employeeTests) fixture(t *scenario.T) apidef.Employee {
	employee, ok := s.manager.Employee().Get()
	require.True(t, ok, "no fixture employee")
	return employee
}
