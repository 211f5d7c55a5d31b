// Package apidef defines the wire format of the employee API: paths, constants, and JSON
// representations of employees and error bodies.
package apidef

import "fmt"

const (
	// EmployeesPath is the collection resource.
	EmployeesPath = "/api/employees"

	// DeleteSuccessMessage is the plain-text body of a successful delete.
	DeleteSuccessMessage = "Employee deleted successfully!"

	// NotFoundError is the "error" property of a 404 body.
	NotFoundError = "Not Found"

	// NonexistentEmployeeID is an id that the suite assumes is never assigned.
	NonexistentEmployeeID int64 = 99999
)

// EmployeePath returns the resource path of one employee.
func EmployeePath(id int64) string {
	return fmt.Sprintf("%s/%d", EmployeesPath, id)
}
