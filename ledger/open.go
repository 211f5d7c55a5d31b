package ledger

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	memoryScheme   = "memory"
	redisScheme    = "redis"
	consulScheme   = "consul"
	dynamoDBScheme = "dynamodb"

	defaultConsulPrefix = "employee-contract-tests"
)

// Open creates a Ledger from a DSN:
//
//	memory:                                  (the default, also used for an empty string)
//	redis://[:password@]host:port[/db]
//	consul://host:port[/prefix]
//	dynamodb://table[?region=...&endpoint=...&create=true]
//
// No connection is made until the ledger is used. With create=true, a DynamoDB ledger creates
// its table on first use if it does not exist.
func Open(dsn string) (Ledger, error) {
	if dsn == "" || dsn == memoryScheme+":" {
		return NewMemoryLedger(), nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid ledger DSN %q: %w", dsn, err)
	}
	switch u.Scheme {
	case redisScheme:
		opts, err := redis.ParseURL(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid Redis ledger DSN %q: %w", dsn, err)
		}
		return NewRedisLedger(redis.NewClient(opts)), nil
	case consulScheme:
		if u.Host == "" {
			return nil, fmt.Errorf("Consul ledger DSN %q has no host", dsn) //nolint:stylecheck
		}
		prefix := strings.Trim(u.Path, "/")
		if prefix == "" {
			prefix = defaultConsulPrefix
		}
		return NewConsulLedger(u.Host, prefix)
	case dynamoDBScheme:
		query := u.Query()
		l, err := NewDynamoDBLedger(u.Host, query.Get("region"), query.Get("endpoint"))
		if err != nil {
			return nil, err
		}
		if create := query.Get("create"); create != "" {
			enabled, err := strconv.ParseBool(create)
			if err != nil {
				return nil, fmt.Errorf("invalid create option in DynamoDB ledger DSN %q: %w", dsn, err)
			}
			if enabled {
				l.WithTableCreation()
			}
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unknown ledger type %q in DSN %q", u.Scheme, dsn)
	}
}

// IsDurable returns false for ledgers whose entries do not outlive the process.
func IsDurable(l Ledger) bool {
	_, inMemory := l.(*MemoryLedger)
	return !inMemory
}
