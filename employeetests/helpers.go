package employeetests

import (
	"encoding/json"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/employee-demo/employee-contract-tests/apidef"
	"github.com/employee-demo/employee-contract-tests/data"
	"github.com/employee-demo/employee-contract-tests/framework/harness"
	"github.com/employee-demo/employee-contract-tests/framework/helpers"
	"github.com/employee-demo/employee-contract-tests/framework/scenario"
)

const maxBodyInMessage = 300

func requireStatus(t *scenario.T, resp *harness.Response, status int) {
	t.Helper()
	require.Equal(t, status, resp.Status, "%s %s returned unexpected status; body: %s",
		resp.Method, resp.URL, helpers.Abbreviate(resp.Body, maxBodyInMessage))
}

func requireEmployee(t *scenario.T, resp *harness.Response) apidef.Employee {
	t.Helper()
	employee, err := apidef.ParseEmployee(resp.Body)
	require.NoError(t, err)
	return employee
}

func requireErrorBody(t *scenario.T, resp *harness.Response) apidef.ErrorBody {
	t.Helper()
	body, err := apidef.ParseErrorBody(resp.Body)
	require.NoError(t, err, "error response was not a JSON object: %s",
		helpers.Abbreviate(resp.Body, maxBodyInMessage))
	return body
}

func bodyJSON(resp *harness.Response) json.RawMessage { return json.RawMessage(resp.Body) }

func assertNoError(t *scenario.T, err error, format string, args ...interface{}) {
	t.Helper()
	assert.NoError(t, err, append([]interface{}{format}, args...)...)
}

func requirePayload(t *scenario.T, name string) data.Payload {
	t.Helper()
	p, err := data.LoadPayload(name, requireContext(t).config.Token.Vars())
	require.NoError(t, err)
	return p
}

func requirePayloads(t *scenario.T, name string) []data.Payload {
	t.Helper()
	payloads, err := data.LoadPayloads(name, requireContext(t).config.Token.Vars())
	require.NoError(t, err)
	require.NotEmpty(t, payloads)
	return payloads
}

func requireEmployeeParams(t *scenario.T, name string) apidef.EmployeeParams {
	t.Helper()
	params, err := requirePayload(t, name).EmployeeParams()
	require.NoError(t, err)
	return params
}
