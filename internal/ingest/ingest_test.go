package ingest

import (
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NinthDecimal/statsite/internal/sample"
)

type fakeAdder struct {
	mu      sync.Mutex
	samples []sample.Sample
}

func (f *fakeAdder) Add(s sample.Sample) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = append(f.samples, s)
}

func (f *fakeAdder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.samples)
}

func waitForCount(t *testing.T, a *fakeAdder, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.count() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d samples, got %d", n, a.count())
}

func TestTCP_ParsesLinesAndSurvivesOversize(t *testing.T) {
	adder := &fakeAdder{}
	logger, _ := test.NewNullLogger()
	srv, err := ListenTCP("127.0.0.1:0", adder, logger, nil)
	require.NoError(t, err)
	defer srv.Close()

	conn, err := net.Dial("tcp", srv.ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	oversize := strings.Repeat("x", 5000)
	_, err = conn.Write([]byte("a:1|c\n" + oversize + ":1|c\nb:2|c\n"))
	require.NoError(t, err)

	waitForCount(t, adder, 2)
	assert.Equal(t, "a", adder.samples[0].Key)
	assert.Equal(t, "b", adder.samples[1].Key)
}

func TestTCP_IndependentConnections(t *testing.T) {
	adder := &fakeAdder{}
	logger, _ := test.NewNullLogger()
	srv, err := ListenTCP("127.0.0.1:0", adder, logger, nil)
	require.NoError(t, err)
	defer srv.Close()

	conn1, err := net.Dial("tcp", srv.ln.Addr().String())
	require.NoError(t, err)
	_, err = conn1.Write([]byte("a:1|c\n"))
	require.NoError(t, err)
	conn1.Close()

	conn2, err := net.Dial("tcp", srv.ln.Addr().String())
	require.NoError(t, err)
	defer conn2.Close()
	_, err = conn2.Write([]byte("b:2|c\n"))
	require.NoError(t, err)

	waitForCount(t, adder, 2)
}

func TestUDP_ParsesDatagram(t *testing.T) {
	adder := &fakeAdder{}
	logger, _ := test.NewNullLogger()
	srv, err := ListenUDP("127.0.0.1:0", adder, logger, nil)
	require.NoError(t, err)
	defer srv.Close()

	conn, err := net.Dial("udp", srv.conn.LocalAddr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("a:1|c\njunk:1|zz\nb:2|c"))
	require.NoError(t, err)

	waitForCount(t, adder, 2)
}
