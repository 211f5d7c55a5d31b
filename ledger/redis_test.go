package ledger

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis speaks enough of RESP2 for RedisLedger. It rejects HELLO and CLIENT, which makes
// the client fall back to RESP2 as it does with older servers.
type fakeRedis struct {
	listener net.Listener
	hashes   map[string]map[string]string
	lock     sync.Mutex
}

func startFakeRedis(t *testing.T) *fakeRedis {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeRedis{listener: listener, hashes: make(map[string]map[string]string)}
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go f.serve(conn)
		}
	}()
	t.Cleanup(func() { _ = listener.Close() })
	return f
}

func (f *fakeRedis) addr() string { return f.listener.Addr().String() }

func (f *fakeRedis) serve(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	r := bufio.NewReader(conn)
	for {
		args, err := readRedisCommand(r)
		if err != nil {
			return
		}
		if _, err := io.WriteString(conn, f.execute(args)); err != nil {
			return
		}
	}
}

func readRedisCommand(r *bufio.Reader) ([]string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(line, "*") {
		return nil, fmt.Errorf("unexpected command line %q", line)
	}
	n, err := strconv.Atoi(strings.TrimSpace(line[1:]))
	if err != nil {
		return nil, err
	}
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "$")))
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func (f *fakeRedis) execute(args []string) string {
	f.lock.Lock()
	defer f.lock.Unlock()
	if len(args) == 0 {
		return "-ERR empty command\r\n"
	}
	switch strings.ToUpper(args[0]) {
	case "PING":
		return "+PONG\r\n"
	case "HSET":
		hash := f.hashes[args[1]]
		if hash == nil {
			hash = make(map[string]string)
			f.hashes[args[1]] = hash
		}
		added := 0
		for i := 2; i+1 < len(args); i += 2 {
			if _, ok := hash[args[i]]; !ok {
				added++
			}
			hash[args[i]] = args[i+1]
		}
		return fmt.Sprintf(":%d\r\n", added)
	case "HDEL":
		removed := 0
		for _, field := range args[2:] {
			if _, ok := f.hashes[args[1]][field]; ok {
				delete(f.hashes[args[1]], field)
				removed++
			}
		}
		return fmt.Sprintf(":%d\r\n", removed)
	case "HGETALL":
		hash := f.hashes[args[1]]
		var b strings.Builder
		fmt.Fprintf(&b, "*%d\r\n", len(hash)*2)
		for k, v := range hash {
			fmt.Fprintf(&b, "$%d\r\n%s\r\n$%d\r\n%s\r\n", len(k), k, len(v), v)
		}
		return b.String()
	default:
		return fmt.Sprintf("-ERR unknown command '%s'\r\n", args[0])
	}
}

func (f *fakeRedis) fields(key string) map[string]string {
	f.lock.Lock()
	defer f.lock.Unlock()
	ret := make(map[string]string)
	for k, v := range f.hashes[key] {
		ret[k] = v
	}
	return ret
}

func TestRedisLedger(t *testing.T) {
	fake := startFakeRedis(t)
	l, err := Open("redis://" + fake.addr() + "/0")
	require.NoError(t, err)
	defer l.Close()
	assert.Equal(t, "redis://"+fake.addr()+"/0", l.DSN())
	ctx := context.Background()

	pending, err := l.Pending(ctx, DefaultNamespace)
	require.NoError(t, err)
	assert.Len(t, pending, 0)

	e1 := Entry{Namespace: DefaultNamespace, ID: 10, Email: "a@example.com", RunID: "r", Token: "1"}
	e2 := Entry{Namespace: DefaultNamespace, ID: 9, Email: "b@example.com", RunID: "r"}
	other := Entry{Namespace: "other", ID: 1}
	for _, e := range []Entry{e1, e2, other} {
		require.NoError(t, l.Record(ctx, e))
	}
	assert.Contains(t, fake.fields("employee-contract-tests:employees"), "10")

	pending, err = l.Pending(ctx, DefaultNamespace)
	require.NoError(t, err)
	assert.Equal(t, []Entry{e2, e1}, pending)

	require.NoError(t, l.Forget(ctx, DefaultNamespace, 9))
	require.NoError(t, l.Forget(ctx, DefaultNamespace, 9))
	pending, err = l.Pending(ctx, DefaultNamespace)
	require.NoError(t, err)
	assert.Equal(t, []Entry{e1}, pending)
}
