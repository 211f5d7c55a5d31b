package employeetests

import (
	"context"
	"fmt"
	"os"

	"github.com/stretchr/testify/require"

	"github.com/employee-demo/employee-contract-tests/apiclient"
	"github.com/employee-demo/employee-contract-tests/fixtures"
	"github.com/employee-demo/employee-contract-tests/framework/harness"
	"github.com/employee-demo/employee-contract-tests/framework/scenario"
	"github.com/employee-demo/employee-contract-tests/ledger"
)

// SuiteConfig contains everything the scenarios need from the command line.
type SuiteConfig struct {
	Client         *apiclient.Client
	Prober         *harness.Prober
	Token          fixtures.RunToken
	Ledger         ledger.Ledger
	TeardownPolicy fixtures.TeardownPolicy

	// Context is used for every request; cancelling it aborts the run. Defaults to
	// context.Background().
	Context context.Context
}

// EmployeeTestContext is the scenario.TestConfiguration context value for this suite.
type EmployeeTestContext struct {
	config SuiteConfig
}

func requireContext(t *scenario.T) EmployeeTestContext {
	c, ok := t.Context().(EmployeeTestContext)
	require.True(t, ok, "test context was not set up correctly")
	return c
}

// RunEmployeeTestSuite runs all scenarios, reporting to testLogger.
func RunEmployeeTestSuite(
	config SuiteConfig,
	filter scenario.Filter,
	testLogger scenario.TestLogger,
) scenario.Results {
	if config.Context == nil {
		config.Context = context.Background()
	}
	if config.Ledger == nil {
		config.Ledger = ledger.NewMemoryLedger()
	}

	fmt.Printf("Running employee API contract tests against %s\n", config.Client.Target().BaseURL())
	fmt.Printf("Run token %s, run id %s\n", config.Token, config.Token.RunID())
	fmt.Println()

	return scenario.Run(scenario.TestConfiguration{
		Filter:     filter,
		TestLogger: testLogger,
		Context:    EmployeeTestContext{config: config},
	}, doAllEmployeeTests)
}

// DescribeFilters prints the active filters, if any.
func DescribeFilters(filters scenario.RegexFilters) {
	filters.Describe(os.Stdout)
}

func doAllEmployeeTests(t *scenario.T) {
	newEmployeeFeature(t).Run(t)
}
