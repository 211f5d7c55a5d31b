package apidef

import (
	"encoding/json"
	"testing"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	o "github.com/employee-demo/employee-contract-tests/framework/opt"
)

func TestEmployeePath(t *testing.T) {
	assert.Equal(t, "/api/employees/99999", EmployeePath(NonexistentEmployeeID))
}

func TestEmployeeParamsJSON(t *testing.T) {
	p := NewEmployeeParams("john doe", "123 main street", "john.doe1@example.com")
	data, err := json.Marshal(p)
	require.NoError(t, err)
	m.In(t).Assert(json.RawMessage(data), m.JSONStrEqual(
		`{"name":"john doe","address":"123 main street","email":"john.doe1@example.com"}`))
}

func TestEmployeeParamsWithoutEmailOmitsProperty(t *testing.T) {
	p := EmployeeParams{Name: "Invalid Employee", Address: "123 Invalid Street"}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Invalid Employee","address":"123 Invalid Street"}`, string(data))
}

func TestEmployeeParamsWithEmptyEmailKeepsProperty(t *testing.T) {
	p := EmployeeParams{Name: "x", Address: "y", Email: o.Some("")}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x","address":"y","email":""}`, string(data))
}

func TestEmployeeParamsUnmarshal(t *testing.T) {
	var p EmployeeParams
	require.NoError(t, json.Unmarshal([]byte(`{"name":"a","address":"b","extra":[1,2]}`), &p))
	assert.Equal(t, EmployeeParams{Name: "a", Address: "b"}, p)

	require.NoError(t, json.Unmarshal([]byte(`{"name":"a","email":null}`), &p))
	assert.False(t, p.Email.IsDefined())

	require.NoError(t, json.Unmarshal([]byte(`{"email":"e@example.com"}`), &p))
	assert.Equal(t, o.Some("e@example.com"), p.Email)
}

func TestParseEmployee(t *testing.T) {
	e, err := ParseEmployee([]byte(`{"id":7,"name":"Jane Doe","address":"456 Elm Street","email":"jane@example.com","dept":{"x":1}}`))
	require.NoError(t, err)
	assert.Equal(t, Employee{ID: 7, Name: "Jane Doe", Address: "456 Elm Street", Email: "jane@example.com"}, e)
	assert.True(t, e.Matches(NewEmployeeParams("Jane Doe", "456 Elm Street", "jane@example.com")))
	assert.False(t, e.Matches(NewEmployeeParams("Jane Doe", "456 Elm Street", "other@example.com")))
}

func TestParseEmployeeRequiresID(t *testing.T) {
	_, err := ParseEmployee([]byte(`{"name":"Jane Doe"}`))
	assert.Error(t, err)

	_, err = ParseEmployee([]byte(`{"id":null}`))
	assert.Error(t, err)
}

func TestParseEmployeeRejectsMalformedJSON(t *testing.T) {
	for _, body := range []string{``, `[]`, `"Employee deleted successfully!"`, `{"id":"x"}`} {
		_, err := ParseEmployee([]byte(body))
		assert.Error(t, err, "body: %s", body)
	}
}

func TestEmployeeJSONRoundTrip(t *testing.T) {
	e := Employee{ID: 12, Name: "John Smith", Address: "789 Oak Street", Email: "johnsmith@example.com"}
	data, err := json.Marshal(e)
	require.NoError(t, err)
	parsed, err := ParseEmployee(data)
	require.NoError(t, err)
	assert.Equal(t, e, parsed)
	assert.Equal(t, e.Params(), NewEmployeeParams("John Smith", "789 Oak Street", "johnsmith@example.com"))
}

func TestParseEmployeeList(t *testing.T) {
	list, err := ParseEmployeeList([]byte(`[{"id":1,"name":"a","address":"b","email":"c"},{"id":2,"email":"d"}]`))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, "d", list[1].Email)

	empty, err := ParseEmployeeList([]byte(`[]`))
	require.NoError(t, err)
	assert.Len(t, empty, 0)

	_, err = ParseEmployeeList([]byte(`{"id":1}`))
	assert.Error(t, err)
}

func TestParseErrorBody(t *testing.T) {
	b, err := ParseErrorBody([]byte(
		`{"timestamp":"2024-05-01T10:00:00.000+00:00","status":404,"error":"Not Found","path":"/api/employees/99999"}`))
	require.NoError(t, err)
	assert.Equal(t, ErrorBody{Status: o.Some(404), Error: NotFoundError, Path: "/api/employees/99999"}, b)

	b, err = ParseErrorBody([]byte(`{"error":"Bad Request","message":"Email is required"}`))
	require.NoError(t, err)
	assert.Equal(t, "Bad Request", b.Error)
	assert.Equal(t, "Email is required", b.Message)
	assert.False(t, b.Status.IsDefined())

	_, err = ParseErrorBody([]byte(`not json`))
	assert.Error(t, err)
}
