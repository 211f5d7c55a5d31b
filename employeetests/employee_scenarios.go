package employeetests

import (
	"net/http"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/employee-demo/employee-contract-tests/apidef"
	"github.com/employee-demo/employee-contract-tests/framework/scenario"
)

func (s *employeeTests) createEmployee(t *scenario.T) {
	params := requireEmployeeParams(t, "create-employee")

	resp := s.client.Create(t, params)
	requireStatus(t, resp, http.StatusCreated)

	m.In(t).Assert(bodyJSON(resp), m.AllOf(
		m.JSONProperty("name").Should(m.JSONEqual(params.Name)),
		m.JSONProperty("address").Should(m.JSONEqual(params.Address)),
		m.JSONProperty("email").Should(m.JSONEqual(params.Email.Value())),
	))
	created := requireEmployee(t, resp)
	assert.Greater(t, created.ID, int64(0))
}

func (s *employeeTests) getEmployeeByID(t *scenario.T) {
	fixture := s.fixture(t)
	expected := requireEmployeeParams(t, fixturePayload)

	resp := s.client.Get(t, fixture.ID)
	requireStatus(t, resp, http.StatusOK)

	got := requireEmployee(t, resp)
	assert.Equal(t, fixture.ID, got.ID)
	assert.Equal(t, expected.Name, got.Name)
	assert.Equal(t, expected.Address, got.Address)
	assert.Equal(t, expected.Email.Value(), got.Email)
}

func (s *employeeTests) getAllEmployees(t *scenario.T) {
	fixture := s.fixture(t)

	resp := s.client.List(t)
	requireStatus(t, resp, http.StatusOK)

	list, err := apidef.ParseEmployeeList(resp.Body)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	ids := make([]int64, 0, len(list))
	for _, e := range list {
		ids = append(ids, e.ID)
	}
	assert.Contains(t, ids, fixture.ID, "list does not include the fixture employee")
}

func (s *employeeTests) updateEmployee(t *scenario.T) {
	fixture := s.fixture(t)
	params := requireEmployeeParams(t, "update-employee")

	resp := s.client.Update(t, fixture.ID, params)
	requireStatus(t, resp, http.StatusOK)

	updated := requireEmployee(t, resp)
	assert.Equal(t, fixture.ID, updated.ID)
	m.In(t).Assert(bodyJSON(resp), m.AllOf(
		m.JSONProperty("name").Should(m.JSONEqual("John Smith")),
		m.JSONProperty("address").Should(m.JSONEqual("789 Oak Street")),
		m.JSONProperty("email").Should(m.JSONEqual(params.Email.Value())),
	))
}

func (s *employeeTests) deleteEmployee(t *scenario.T) {
	params := requireEmployeeParams(t, "delete-employee")

	resp := s.client.Create(t, params)
	requireStatus(t, resp, http.StatusCreated)
	created := requireEmployee(t, resp)

	resp = s.client.Get(t, created.ID)
	requireStatus(t, resp, http.StatusOK)

	resp = s.client.Delete(t, created.ID)
	requireStatus(t, resp, http.StatusOK)
	assert.Equal(t, apidef.DeleteSuccessMessage, resp.Text())

	resp = s.client.Get(t, created.ID)
	requireStatus(t, resp, http.StatusNotFound)
	errBody := requireErrorBody(t, resp)
	assert.Equal(t, apidef.NotFoundError, errBody.Error)
	assert.Equal(t, apidef.EmployeePath(created.ID), errBody.Path)
}

func (s *employeeTests) getEmployeeByInvalidID(t *scenario.T) {
	resp := s.client.Get(t, apidef.NonexistentEmployeeID)
	requireStatus(t, resp, http.StatusNotFound)

	m.In(t).Assert(bodyJSON(resp), m.JSONProperty("error").Should(m.JSONEqual(apidef.NotFoundError)))
}

func (s *employeeTests) createEmployeeWithMissingFields(t *scenario.T) {
	payload := requirePayload(t, "missing-email")

	resp := s.client.CreateRaw(t, payload.Body)
	requireStatus(t, resp, http.StatusBadRequest)

	assert.NotEmpty(t, requireErrorBody(t, resp).Error)
}

func (s *employeeTests) createEmployeeWithInvalidEmail(t *scenario.T) {
	for _, payload := range requirePayloads(t, "invalid-email") {
		payload := payload
		t.Run(payload.Label(), func(t *scenario.T) {
			resp := s.client.CreateRaw(t, payload.Body)
			requireStatus(t, resp, http.StatusBadRequest)

			assert.NotEmpty(t, requireErrorBody(t, resp).Error)
		})
	}
}

func (s *employeeTests) createEmployeeWithDuplicateEmail(t *scenario.T) {
	fixture := s.fixture(t)
	params := apidef.NewEmployeeParams("Duplicate Employee", "1 Duplicate Lane", fixture.Email)

	resp := s.client.Create(t, params)
	assert.NotEqual(t, http.StatusCreated, resp.Status,
		"creating a second employee with email %q should not succeed", fixture.Email)
	assert.GreaterOrEqual(t, resp.Status, 400)
}

func (s *employeeTests) updateNonexistentEmployee(t *scenario.T) {
	params := requireEmployeeParams(t, "update-employee")

	resp := s.client.Update(t, apidef.NonexistentEmployeeID, params)
	requireStatus(t, resp, http.StatusNotFound)
}
