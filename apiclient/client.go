// Package apiclient is a client for the employee API. Every method returns the raw
// harness.Response so that callers can assert on status codes and bodies, including error
// responses; the error return is reserved for transport and encoding failures.
package apiclient

import (
	"context"
	"encoding/json"

	"github.com/employee-demo/employee-contract-tests/apidef"
	"github.com/employee-demo/employee-contract-tests/framework"
	"github.com/employee-demo/employee-contract-tests/framework/harness"
)

// Client calls the employee API on a harness.Target.
type Client struct {
	target *harness.Target
}

// New creates a Client.
func New(target *harness.Target) *Client {
	return &Client{target: target}
}

// Target returns the underlying target.
func (c *Client) Target() *harness.Target { return c.target }

// WithLogger returns a copy of the client whose requests are logged to logger.
func (c *Client) WithLogger(logger framework.Logger) *Client {
	return &Client{target: c.target.WithLogger(logger)}
}

// List fetches all employees.
func (c *Client) List(ctx context.Context) (*harness.Response, error) {
	return c.target.Get(ctx, apidef.EmployeesPath)
}

// Create posts a new employee.
func (c *Client) Create(ctx context.Context, params apidef.EmployeeParams) (*harness.Response, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return c.CreateRaw(ctx, body)
}

// CreateRaw posts an arbitrary JSON body, for payloads that EmployeeParams cannot express.
func (c *Client) CreateRaw(ctx context.Context, body json.RawMessage) (*harness.Response, error) {
	return c.target.Post(ctx, apidef.EmployeesPath, body)
}

// Get fetches one employee.
func (c *Client) Get(ctx context.Context, id int64) (*harness.Response, error) {
	return c.target.Get(ctx, apidef.EmployeePath(id))
}

// Update replaces an employee's properties.
func (c *Client) Update(ctx context.Context, id int64, params apidef.EmployeeParams) (*harness.Response, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return c.target.Put(ctx, apidef.EmployeePath(id), body)
}

// Delete removes an employee.
func (c *Client) Delete(ctx context.Context, id int64) (*harness.Response, error) {
	return c.target.Delete(ctx, apidef.EmployeePath(id))
}
