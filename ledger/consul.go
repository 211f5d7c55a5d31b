package ledger

import (
	"context"
	"strconv"
	"strings"

	consul "github.com/hashicorp/consul/api"
)

// ConsulLedger stores each entry as a KV pair at prefix/namespace/id.
type ConsulLedger struct {
	consul  *consul.Client
	address string
	prefix  string
}

// NewConsulLedger creates a client for the agent at address, which is in the form accepted by
// consul.Config.
func NewConsulLedger(address, prefix string) (*ConsulLedger, error) {
	config := consul.DefaultConfig()
	config.Address = address
	client, err := consul.NewClient(config)
	if err != nil {
		return nil, err
	}
	return &ConsulLedger{consul: client, address: address, prefix: strings.Trim(prefix, "/")}, nil
}

func (c *ConsulLedger) DSN() string {
	return consulScheme + "://" + strings.TrimPrefix(c.address, "http://") + "/" + c.prefix
}

func (c *ConsulLedger) namespaceKey(namespace string) string {
	return c.prefix + "/" + namespace
}

func (c *ConsulLedger) Record(ctx context.Context, entry Entry) error {
	data, err := entry.MarshalJSON()
	if err != nil {
		return err
	}
	pair := &consul.KVPair{Key: c.namespaceKey(entry.Namespace) + "/" + entry.key(), Value: data}
	_, err = c.consul.KV().Put(pair, (&consul.WriteOptions{}).WithContext(ctx))
	return err
}

func (c *ConsulLedger) Forget(ctx context.Context, namespace string, id int64) error {
	key := c.namespaceKey(namespace) + "/" + strconv.FormatInt(id, 10)
	_, err := c.consul.KV().Delete(key, (&consul.WriteOptions{}).WithContext(ctx))
	return err
}

func (c *ConsulLedger) Pending(ctx context.Context, namespace string) ([]Entry, error) {
	base := c.namespaceKey(namespace) + "/"
	pairs, _, err := c.consul.KV().List(base, (&consul.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, err
	}
	values := make(map[string][]byte, len(pairs))
	for _, pair := range pairs {
		values[strings.TrimPrefix(pair.Key, base)] = pair.Value
	}
	return parseEntries(namespace, values)
}

func (c *ConsulLedger) Close() error { return nil }
