package fixtures

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/employee-demo/employee-contract-tests/apiclient"
	"github.com/employee-demo/employee-contract-tests/apidef"
	"github.com/employee-demo/employee-contract-tests/framework"
	"github.com/employee-demo/employee-contract-tests/ledger"
)

// SweepResult lists what a sweep did with each ledger entry, by id.
type SweepResult struct {
	Deleted  []int64
	Missing  []int64
	Replaced []int64
	Failed   []int64
}

// Sweeper deletes employees that are still recorded in a ledger, which means an earlier run did
// not get to delete them.
type Sweeper struct {
	client    *apiclient.Client
	ledger    ledger.Ledger
	namespace string
	logger    framework.Logger
}

func NewSweeper(client *apiclient.Client, l ledger.Ledger, namespace string, logger framework.Logger) *Sweeper {
	if namespace == "" {
		namespace = ledger.DefaultNamespace
	}
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Sweeper{client: client, ledger: l, namespace: namespace, logger: logger}
}

// Sweep visits every entry in the ledger. An entity that no longer exists, or whose email
// shows that the id now belongs to a different employee, is only removed from the ledger. An
// entity that still matches, by its recorded email or by the run token in its current email,
// is deleted first. Entries that could not be resolved stay in the
// ledger and their errors are joined into the returned error.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	entries, err := s.ledger.Pending(ctx, s.namespace)
	if err != nil {
		return result, fmt.Errorf("unable to read ledger %s: %w", s.ledger.DSN(), err)
	}
	var errs []error
	for _, entry := range entries {
		outcome, err := s.sweepEntry(ctx, entry)
		if err != nil {
			s.logger.Printf("Unable to sweep employee %d: %s", entry.ID, err)
			result.Failed = append(result.Failed, entry.ID)
			errs = append(errs, fmt.Errorf("employee %d: %w", entry.ID, err))
			continue
		}
		if err := s.ledger.Forget(ctx, s.namespace, entry.ID); err != nil {
			errs = append(errs, fmt.Errorf("employee %d: removing from ledger: %w", entry.ID, err))
		}
		switch outcome {
		case http.StatusOK:
			result.Deleted = append(result.Deleted, entry.ID)
		case http.StatusNotFound:
			result.Missing = append(result.Missing, entry.ID)
		case http.StatusConflict:
			result.Replaced = append(result.Replaced, entry.ID)
		}
	}
	s.logger.Printf("Swept %d leftover employees (%d deleted, %d already gone, %d reassigned, %d failed)",
		len(entries), len(result.Deleted), len(result.Missing), len(result.Replaced), len(result.Failed))
	return result, errors.Join(errs...)
}

// sweepEntry returns 200 if the entity was deleted, 404 if it was already gone, or 409 if its id
// now belongs to a different employee.
func (s *Sweeper) sweepEntry(ctx context.Context, entry ledger.Entry) (int, error) {
	resp, err := s.client.Get(ctx, entry.ID)
	if err != nil {
		return 0, err
	}
	if resp.Status == http.StatusNotFound {
		return http.StatusNotFound, nil
	}
	if err := resp.Expect(http.StatusOK); err != nil {
		return 0, err
	}
	current, err := apidef.ParseEmployee(resp.Body)
	if err != nil {
		return 0, err
	}
	if !identifies(entry, current) {
		return http.StatusConflict, nil
	}
	resp, err = s.client.Delete(ctx, entry.ID)
	if err != nil {
		return 0, err
	}
	if err := resp.Expect(http.StatusOK, http.StatusNotFound); err != nil {
		return 0, err
	}
	return resp.Status, nil
}

func identifies(entry ledger.Entry, current apidef.Employee) bool {
	if entry.Email == "" || current.Email == entry.Email {
		return true
	}
	return entry.Token != "" && strings.Contains(current.Email, entry.Token)
}
