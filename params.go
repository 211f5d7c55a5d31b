package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alessio/shellescape"

	"github.com/employee-demo/employee-contract-tests/data"
	"github.com/employee-demo/employee-contract-tests/framework/harness"
	"github.com/employee-demo/employee-contract-tests/framework/scenario"
)

const defaultServiceURL = "http://localhost:8080"

type commandParams struct {
	serviceURL             string
	configFile             string
	retries                int
	retryDelay             time.Duration
	requestTimeout         time.Duration
	headers                headerList
	filters                scenario.RegexFilters
	skipFile               string
	recordFailures         string
	tolerateMissingFixture bool
	ledgerDSN              string
	sweep                  bool
	debug                  bool
	debugAll               bool
	jUnitFile              string
	args                   []string
}

// fileConfig is the format of the -config file, in YAML or JSON. Durations use Go syntax, such
// as "500ms".
type fileConfig struct {
	URL                    string            `json:"url"`
	Retries                int               `json:"retries"`
	RetryDelay             string            `json:"retryDelay"`
	RequestTimeout         string            `json:"requestTimeout"`
	Headers                map[string]string `json:"headers"`
	Run                    []string          `json:"run"`
	Skip                   []string          `json:"skip"`
	SkipFrom               string            `json:"skipFrom"`
	TolerateMissingFixture bool              `json:"tolerateMissingFixture"`
	Ledger                 string            `json:"ledger"`
	Sweep                  bool              `json:"sweep"`
	JUnit                  string            `json:"junit"`
}

type headerList []string

func (h headerList) String() string { return strings.Join(h, ", ") }

func (h *headerList) Set(value string) error {
	if name, _, ok := strings.Cut(value, ":"); !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf(`header must be in the form "Name: value": %q`, value)
	}
	*h = append(*h, value)
	return nil
}

func (h headerList) options() []harness.TargetOption {
	ret := make([]harness.TargetOption, 0, len(h))
	for _, header := range h {
		name, value, _ := strings.Cut(header, ":")
		ret = append(ret, harness.WithHeader(strings.TrimSpace(name), strings.TrimSpace(value)))
	}
	return ret
}

func (c *commandParams) Read(args []string) bool {
	return c.read(args, os.Stderr)
}

func (c *commandParams) read(args []string, errOut io.Writer) bool {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&c.serviceURL, "url", defaultServiceURL, "base URL of the employee API")
	fs.StringVar(&c.configFile, "config", "", "YAML or JSON file of settings; flags override it")
	fs.IntVar(&c.retries, "retries", harness.DefaultProbeMaxAttempts, "readiness probe attempts before each scenario")
	fs.DurationVar(&c.retryDelay, "retry-delay", harness.DefaultProbeDelay, "delay between readiness probe attempts")
	fs.DurationVar(&c.requestTimeout, "request-timeout", 0, "timeout for each request (default none)")
	fs.Var(&c.headers, "header", `"Name: value" header to add to every request (may be repeated)`)
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.StringVar(&c.skipFile, "skip-from", "", "file containing IDs of tests to skip, one per line")
	fs.StringVar(&c.recordFailures, "record-failures", "", "write the IDs of failed tests to this file")
	fs.BoolVar(&c.tolerateMissingFixture, "tolerate-missing-fixture", false,
		"do not fail a scenario whose fixture employee was already deleted")
	fs.StringVar(&c.ledgerDSN, "ledger", "memory:",
		"where to record created employees: memory:, redis://host:port/db, consul://host:port/prefix, dynamodb://table")
	fs.BoolVar(&c.sweep, "sweep", false, "delete employees left in the ledger by earlier runs before running tests")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.StringVar(&c.jUnitFile, "junit", "", "write JUnit XML output to the specified path")

	if err := fs.Parse(args[1:]); err != nil {
		return false
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(errOut, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return false
	}
	c.args = args

	if c.configFile != "" {
		explicit := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		if err := c.applyConfigFile(explicit); err != nil {
			fmt.Fprintf(errOut, "error in config file %s: %s\n", c.configFile, err)
			return false
		}
	}

	if c.serviceURL == "" {
		fmt.Fprintln(errOut, "-url is required")
		fs.Usage()
		return false
	}
	if c.retries < 1 {
		fmt.Fprintln(errOut, "-retries must be at least 1")
		return false
	}
	if c.retryDelay <= 0 {
		fmt.Fprintln(errOut, "-retry-delay must be positive")
		return false
	}
	return true
}

// applyConfigFile sets every parameter that was not given explicitly on the command line and
// that has a value in the file. Lists from the file are added to lists from the command line.
func (c *commandParams) applyConfigFile(explicit map[string]bool) error {
	content, err := os.ReadFile(c.configFile)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := data.ParseJSONOrYAML(content, &fc); err != nil {
		return err
	}

	setString := func(name string, target *string, value string) {
		if !explicit[name] && value != "" {
			*target = value
		}
	}
	setBool := func(name string, target *bool, value bool) {
		if !explicit[name] && value {
			*target = value
		}
	}
	setDuration := func(name string, target *time.Duration, value string) error {
		if explicit[name] || value == "" {
			return nil
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*target = d
		return nil
	}

	setString("url", &c.serviceURL, fc.URL)
	setString("skip-from", &c.skipFile, fc.SkipFrom)
	setString("ledger", &c.ledgerDSN, fc.Ledger)
	setString("junit", &c.jUnitFile, fc.JUnit)
	setBool("tolerate-missing-fixture", &c.tolerateMissingFixture, fc.TolerateMissingFixture)
	setBool("sweep", &c.sweep, fc.Sweep)
	if !explicit["retries"] && fc.Retries != 0 {
		c.retries = fc.Retries
	}
	if err := setDuration("retry-delay", &c.retryDelay, fc.RetryDelay); err != nil {
		return err
	}
	if err := setDuration("request-timeout", &c.requestTimeout, fc.RequestTimeout); err != nil {
		return err
	}
	for name, value := range fc.Headers {
		if err := c.headers.Set(name + ": " + value); err != nil {
			return err
		}
	}
	for _, p := range fc.Run {
		if err := c.filters.MustMatch.Set(p); err != nil {
			return fmt.Errorf("run: %w", err)
		}
	}
	for _, p := range fc.Skip {
		if err := c.filters.MustNotMatch.Set(p); err != nil {
			return fmt.Errorf("skip: %w", err)
		}
	}
	return nil
}

// rerunCommand returns a shell command that repeats this run for only the given tests.
func (c *commandParams) rerunCommand(failed []scenario.TestID) string {
	var b commandBuilder
	b.add(c.args[0])
	for i := 1; i < len(c.args); i++ {
		arg := c.args[i]
		name := strings.TrimLeft(arg, "-")
		if name == "run" || name == "skip" {
			i++ // also drop the flag's value
			continue
		}
		if strings.HasPrefix(name, "run=") || strings.HasPrefix(name, "skip=") {
			continue
		}
		b.add(arg)
	}
	for _, id := range failed {
		b.add("-run", scenario.ExactTestIDPattern(id).String())
	}
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
