// Package framework contains the reusable infrastructure of the employee API contract tests.
// The base package holds shared types such as Logger; the subpackages are:
//
//   - scenario: a runner similar to Go's testing package that runs as a normal program,
//     with Feature hooks for per-scenario setup and teardown
//   - harness: HTTP access to the API under test and the readiness prober
//   - helpers, opt: small utilities shared by the other packages
//
// Nothing here knows about employees; the domain-specific parts live in apidef, fixtures and
// employeetests.
package framework
