package apidef

import (
	"errors"
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	o "github.com/employee-demo/employee-contract-tests/framework/opt"
)

// Employee is an employee as returned by the API.
type Employee struct {
	ID      int64
	Name    string
	Address string
	Email   string
}

// EmployeeParams is the body of a create or update request. Email is optional so that a
// request can leave the property out entirely, which is different from sending an empty string.
type EmployeeParams struct {
	Name    string
	Address string
	Email   o.Maybe[string]
}

// NewEmployeeParams creates params with all three properties set.
func NewEmployeeParams(name, address, email string) EmployeeParams {
	return EmployeeParams{Name: name, Address: address, Email: o.Some(email)}
}

// Params returns the properties of an employee as request params.
func (e Employee) Params() EmployeeParams {
	return NewEmployeeParams(e.Name, e.Address, e.Email)
}

// Matches returns true if the employee has the given name, address and email.
func (e Employee) Matches(p EmployeeParams) bool {
	return e.Name == p.Name && e.Address == p.Address && e.Email == p.Email.Value()
}

func (e Employee) String() string {
	return fmt.Sprintf("employee %d (%s, %s)", e.ID, e.Name, e.Email)
}

func (e Employee) WriteToJSONWriter(w *jwriter.Writer) {
	obj := w.Object()
	obj.Name("id").Int(int(e.ID))
	obj.Name("name").String(e.Name)
	obj.Name("address").String(e.Address)
	obj.Name("email").String(e.Email)
	obj.End()
}

func (e Employee) MarshalJSON() ([]byte, error) {
	w := jwriter.NewWriter()
	e.WriteToJSONWriter(&w)
	return w.Bytes(), w.Error()
}

func (e *Employee) ReadFromJSONReader(r *jreader.Reader) {
	var hasID bool
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "id":
			var id int
			id, hasID = r.IntOrNull()
			e.ID = int64(id)
		case "name":
			e.Name, _ = r.StringOrNull()
		case "address":
			e.Address, _ = r.StringOrNull()
		case "email":
			e.Email, _ = r.StringOrNull()
		default:
			_ = r.SkipValue()
		}
	}
	if r.Error() == nil && !hasID {
		r.AddError(errors.New(`employee has no "id" property`))
	}
}

func (e *Employee) UnmarshalJSON(data []byte) error {
	r := jreader.NewReader(data)
	e.ReadFromJSONReader(&r)
	return r.Error()
}

// ParseEmployee parses a single employee from a response body.
func ParseEmployee(data []byte) (Employee, error) {
	var e Employee
	if err := e.UnmarshalJSON(data); err != nil {
		return Employee{}, fmt.Errorf("malformed employee JSON: %w", err)
	}
	return e, nil
}

// ParseEmployeeList parses the body of the list operation.
func ParseEmployeeList(data []byte) ([]Employee, error) {
	r := jreader.NewReader(data)
	ret := []Employee{}
	for arr := r.Array(); arr.Next(); {
		var e Employee
		e.ReadFromJSONReader(&r)
		ret = append(ret, e)
	}
	if err := r.Error(); err != nil {
		return nil, fmt.Errorf("malformed employee list JSON: %w", err)
	}
	return ret, nil
}

func (p EmployeeParams) WriteToJSONWriter(w *jwriter.Writer) {
	obj := w.Object()
	obj.Name("name").String(p.Name)
	obj.Name("address").String(p.Address)
	if email, ok := p.Email.Get(); ok {
		obj.Name("email").String(email)
	}
	obj.End()
}

func (p EmployeeParams) MarshalJSON() ([]byte, error) {
	w := jwriter.NewWriter()
	p.WriteToJSONWriter(&w)
	return w.Bytes(), w.Error()
}

func (p *EmployeeParams) ReadFromJSONReader(r *jreader.Reader) {
	*p = EmployeeParams{}
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "name":
			p.Name, _ = r.StringOrNull()
		case "address":
			p.Address, _ = r.StringOrNull()
		case "email":
			if email, ok := r.StringOrNull(); ok {
				p.Email = o.Some(email)
			}
		default:
			_ = r.SkipValue()
		}
	}
}

func (p *EmployeeParams) UnmarshalJSON(data []byte) error {
	r := jreader.NewReader(data)
	p.ReadFromJSONReader(&r)
	return r.Error()
}
