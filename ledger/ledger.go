// Package ledger keeps a record of the employees that the suite has created and not yet deleted,
// so that entities left behind by an interrupted or failed run can be removed by a later one.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"golang.org/x/exp/maps"

	"github.com/employee-demo/employee-contract-tests/framework/helpers"
)

// DefaultNamespace is the namespace used for employees created by the suite.
const DefaultNamespace = "employees"

// Entry records one entity created by the suite.
type Entry struct {
	Namespace string
	ID        int64
	Email     string
	RunID     string

	// Token is the run token built into the emails of employees created by that run. It still
	// identifies an employee after a scenario has changed its email.
	Token string
}

// Ledger is a store of entries keyed by namespace and id.
type Ledger interface {
	// DSN describes the backend in the same form accepted by Open.
	DSN() string

	// Record adds or replaces an entry.
	Record(ctx context.Context, entry Entry) error

	// Forget removes an entry. Forgetting an unknown entry is not an error.
	Forget(ctx context.Context, namespace string, id int64) error

	// Pending returns all entries in a namespace, ordered by id.
	Pending(ctx context.Context, namespace string) ([]Entry, error)

	Close() error
}

func (e Entry) key() string { return strconv.FormatInt(e.ID, 10) }

func (e Entry) WriteToJSONWriter(w *jwriter.Writer) {
	obj := w.Object()
	obj.Name("namespace").String(e.Namespace)
	obj.Name("id").Int(int(e.ID))
	obj.Name("email").String(e.Email)
	obj.Name("runId").String(e.RunID)
	obj.Maybe("token", e.Token != "").String(e.Token)
	obj.End()
}

func (e Entry) MarshalJSON() ([]byte, error) {
	w := jwriter.NewWriter()
	e.WriteToJSONWriter(&w)
	return w.Bytes(), w.Error()
}

func (e *Entry) ReadFromJSONReader(r *jreader.Reader) {
	var hasID bool
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "namespace":
			e.Namespace = r.String()
		case "id":
			e.ID = int64(r.Int())
			hasID = true
		case "email":
			e.Email, _ = r.StringOrNull()
		case "runId":
			e.RunID, _ = r.StringOrNull()
		case "token":
			e.Token, _ = r.StringOrNull()
		default:
			_ = r.SkipValue()
		}
	}
	if r.Error() == nil && !hasID {
		r.AddError(errors.New(`ledger entry has no "id" property`))
	}
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	r := jreader.NewReader(data)
	e.ReadFromJSONReader(&r)
	return r.Error()
}

func sortedEntries(byID map[int64]Entry) []Entry {
	ids := helpers.Sorted(maps.Keys(byID))
	ret := make([]Entry, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, byID[id])
	}
	return ret
}

func parseEntries(namespace string, values map[string][]byte) ([]Entry, error) {
	byID := make(map[int64]Entry, len(values))
	for key, value := range values {
		var e Entry
		if err := e.UnmarshalJSON(value); err != nil {
			return nil, fmt.Errorf("malformed ledger entry %q: %w", key, err)
		}
		if e.Namespace == "" {
			e.Namespace = namespace
		}
		byID[e.ID] = e
	}
	return sortedEntries(byID), nil
}
