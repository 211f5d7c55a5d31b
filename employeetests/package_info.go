// Package employeetests contains the contract tests for the employee API.
//
// All scenarios belong to one feature whose Before hooks wait for the service and create a
// fixture employee, and whose After hook deletes it. Each scenario runs in its own scenario.T
// scope with its own fixture; scenarios never share entities.
package employeetests
