package main

import (
	"bufio"
	"context"
	_ "embed" // this is required in order for go:embed to work
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/employee-demo/employee-contract-tests/apiclient"
	"github.com/employee-demo/employee-contract-tests/employeetests"
	"github.com/employee-demo/employee-contract-tests/fixtures"
	"github.com/employee-demo/employee-contract-tests/framework"
	"github.com/employee-demo/employee-contract-tests/framework/harness"
	"github.com/employee-demo/employee-contract-tests/framework/helpers"
	"github.com/employee-demo/employee-contract-tests/framework/scenario"
	"github.com/employee-demo/employee-contract-tests/ledger"
)

//go:embed VERSION
var versionString string // comes from the VERSION file which we update for each release

func main() {
	fmt.Printf("employee-contract-tests v%s\n", version())

	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	results, err := run(ctx, params)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !results.OK() {
		if failed := results.FailedIDs(); len(failed) != 0 {
			fmt.Println()
			fmt.Println("To rerun only the failed tests:")
			fmt.Println("  " + params.rerunCommand(failed))
		}
		os.Exit(1)
	}
}

func version() string { return strings.TrimSpace(versionString) }

func run(ctx context.Context, params commandParams) (*scenario.Results, error) {
	if params.skipFile != "" {
		if err := loadSuppressions(&params); err != nil {
			return nil, err
		}
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	targetOptions := append([]harness.TargetOption{
		harness.WithRequestTimeout(params.requestTimeout),
		harness.WithLogger(mainDebugLogger),
	}, params.headers.options()...)
	target, err := harness.NewTarget(params.serviceURL, targetOptions...)
	if err != nil {
		return nil, err
	}
	prober := harness.NewProber(target, harness.ProberConfig{
		MaxAttempts: params.retries,
		Delay:       params.retryDelay,
	}).WithLogger(mainDebugLogger)
	client := apiclient.New(target)

	fixtureLedger, err := ledger.Open(params.ledgerDSN)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fixtureLedger.Close() }()

	if params.sweep {
		if err := sweep(ctx, prober, client, fixtureLedger, mainDebugLogger); err != nil {
			return nil, err
		}
	}

	token := fixtures.NewRunToken(time.Now())
	policy := helpers.IfElse(params.tolerateMissingFixture, fixtures.TolerateMissing, fixtures.StrictTeardown)

	var testLogger scenario.TestLogger
	consoleLogger := scenario.ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	if params.jUnitFile == "" {
		testLogger = consoleLogger
	} else {
		testLogger = &scenario.MultiTestLogger{Loggers: []scenario.TestLogger{
			consoleLogger,
			scenario.NewJUnitTestLogger(params.jUnitFile, map[string]string{
				"service.url": target.BaseURL(),
				"run.token":   token.String(),
				"run.id":      token.RunID(),
				"ledger":      fixtureLedger.DSN(),
				"version":     version(),
			}, params.filters),
		}}
	}

	employeetests.DescribeFilters(params.filters)
	results := employeetests.RunEmployeeTestSuite(employeetests.SuiteConfig{
		Client:         client,
		Prober:         prober,
		Token:          token,
		Ledger:         fixtureLedger,
		TeardownPolicy: policy,
		Context:        ctx,
	}, params.filters.AsFilter(), testLogger)

	fmt.Println()
	logErr := testLogger.EndLog(results)
	if logErr != nil {
		return nil, fmt.Errorf("error writing log: %v", logErr)
	}

	if params.recordFailures != "" {
		if err := recordFailures(params.recordFailures, results); err != nil {
			return nil, err
		}
	}

	return &results, nil
}

func sweep(
	ctx context.Context,
	prober *harness.Prober,
	client *apiclient.Client,
	fixtureLedger ledger.Ledger,
	logger framework.Logger,
) error {
	if !ledger.IsDurable(fixtureLedger) {
		fmt.Println("Warning: -sweep has no effect with an in-memory ledger")
		return nil
	}
	if err := prober.AwaitReady(ctx); err != nil {
		return err
	}
	fmt.Printf("Sweeping leftover employees recorded in %s\n", fixtureLedger.DSN())
	result, err := fixtures.NewSweeper(client, fixtureLedger, ledger.DefaultNamespace,
		framework.LoggerWithPrefix(logger, "[sweep] ")).Sweep(ctx)
	fmt.Printf("  deleted %d, already gone %d, reassigned %d, failed %d\n",
		len(result.Deleted), len(result.Missing), len(result.Replaced), len(result.Failed))
	if err != nil {
		// leftovers do not prevent the run; they are retried by the next sweep
		fmt.Fprintf(os.Stderr, "Warning: %s\n", err)
	}
	fmt.Println()
	return nil
}

func recordFailures(path string, results scenario.Results) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create failure file: %v", err)
	}
	defer func() { _ = f.Close() }()
	for _, id := range results.FailedIDs() {
		fmt.Fprintln(f, id)
	}
	return nil
}

func loadSuppressions(params *commandParams) error {
	file, err := os.Open(params.skipFile)
	if err != nil {
		return fmt.Errorf("cannot open provided suppression file: %v", err)
	}
	defer func() { _ = file.Close() }()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id := scenario.TestID(strings.Split(line, "/"))
		params.filters.MustNotMatch = append(params.filters.MustNotMatch, scenario.ExactTestIDPattern(id))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("while processing suppression file: %v", err)
	}
	return nil
}
