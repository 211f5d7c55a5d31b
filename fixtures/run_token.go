package fixtures

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/employee-demo/employee-contract-tests/data"
)

// RunToken identifies one run of the suite. Its millisecond timestamp is built into the email
// addresses of created employees so that they cannot collide with entities left over from
// earlier runs. A RunToken is immutable and is passed explicitly to whatever needs it.
type RunToken struct {
	timestamp int64
	runID     string
}

// NewRunToken captures the token for a run starting at now.
func NewRunToken(now time.Time) RunToken {
	return RunToken{timestamp: now.UnixMilli(), runID: uuid.NewString()}
}

// String returns the timestamp in milliseconds, as substituted into emails.
func (r RunToken) String() string { return strconv.FormatInt(r.timestamp, 10) }

// RunID returns a random identifier for the run, recorded in ledger entries.
func (r RunToken) RunID() string { return r.runID }

// Vars returns the substitutions that data files can refer to.
func (r RunToken) Vars() data.Substitutions {
	return data.Substitutions{data.TimestampVar: ldvalue.String(r.String())}
}
