package employeetests

import (
	"encoding/json"
	"net/http"

	"github.com/stretchr/testify/require"

	"github.com/employee-demo/employee-contract-tests/apiclient"
	"github.com/employee-demo/employee-contract-tests/apidef"
	"github.com/employee-demo/employee-contract-tests/fixtures"
	"github.com/employee-demo/employee-contract-tests/framework/harness"
	"github.com/employee-demo/employee-contract-tests/framework/scenario"
)

// EmployeeClient calls the API on behalf of a scenario. A transport error fails the scenario
// immediately; any HTTP status is returned for the scenario to check. Requests and responses
// go to the scenario's debug output.
type EmployeeClient struct {
	api      *apiclient.Client
	fixtures *fixtures.Manager
	context  EmployeeTestContext
}

func newEmployeeClient(t *scenario.T, fixtureManager *fixtures.Manager) *EmployeeClient {
	c := requireContext(t)
	return &EmployeeClient{
		api:      c.config.Client.WithLogger(t.DebugLogger()),
		fixtures: fixtureManager,
		context:  c,
	}
}

func (c *EmployeeClient) List(t *scenario.T) *harness.Response {
	resp, err := c.api.List(c.context.config.Context)
	require.NoError(t, err)
	return resp
}

func (c *EmployeeClient) Create(t *scenario.T, params apidef.EmployeeParams) *harness.Response {
	resp, err := c.api.Create(c.context.config.Context, params)
	require.NoError(t, err)
	c.adoptIfCreated(t, resp)
	return resp
}

func (c *EmployeeClient) CreateRaw(t *scenario.T, body json.RawMessage) *harness.Response {
	resp, err := c.api.CreateRaw(c.context.config.Context, body)
	require.NoError(t, err)
	c.adoptIfCreated(t, resp)
	return resp
}

func (c *EmployeeClient) Get(t *scenario.T, id int64) *harness.Response {
	resp, err := c.api.Get(c.context.config.Context, id)
	require.NoError(t, err)
	return resp
}

func (c *EmployeeClient) Update(t *scenario.T, id int64, params apidef.EmployeeParams) *harness.Response {
	resp, err := c.api.Update(c.context.config.Context, id, params)
	require.NoError(t, err)
	return resp
}

func (c *EmployeeClient) Delete(t *scenario.T, id int64) *harness.Response {
	resp, err := c.api.Delete(c.context.config.Context, id)
	require.NoError(t, err)
	return resp
}

// adoptIfCreated makes sure that any employee a scenario creates, whether or not the scenario
// meant to, is deleted when the scenario ends. The deferred delete accepts 404.
func (c *EmployeeClient) adoptIfCreated(t *scenario.T, resp *harness.Response) {
	if resp.Status != http.StatusCreated {
		return
	}
	employee, err := apidef.ParseEmployee(resp.Body)
	if err != nil {
		return
	}
	ctx := c.context.config.Context
	c.fixtures.Adopt(ctx, employee)
	t.Defer(func() {
		assertNoError(t, c.fixtures.Discard(ctx, employee.ID), "cleaning up %s", employee)
	})
}
