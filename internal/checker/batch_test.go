package checker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/August26/proxyprobe/internal/model"
	"github.com/August26/proxyprobe/internal/output"
)

// fakeProber treats any address containing "ok" as alive and sleeps for the
// configured delay, so completion order can be made to differ from input order.
type fakeProber struct {
	delay map[model.ProxyAddress]time.Duration

	mu    sync.Mutex
	calls []model.ProxyAddress
}

func (f *fakeProber) Probe(ctx context.Context, addr model.ProxyAddress) model.ProbeResult {
	f.mu.Lock()
	f.calls = append(f.calls, addr)
	f.mu.Unlock()

	select {
	case <-time.After(f.delay[addr]):
	case <-ctx.Done():
		return model.Failed(addr, ctx.Err())
	}

	if strings.Contains(string(addr), "ok") {
		return model.ProbeResult{Address: addr, Success: true, NetworkType: model.NetworkResidential}
	}
	return model.Failed(addr, errors.New("refused"))
}

type memRecorder struct {
	got     []model.ProbeResult
	failAt  int // 1-based; 0 never fails
	records int
}

func (m *memRecorder) Record(res model.ProbeResult) error {
	m.records++
	if m.records == m.failAt {
		return errors.New("disk full")
	}
	m.got = append(m.got, res)
	return nil
}

func addresses(rs []model.ProbeResult) []model.ProxyAddress {
	out := make([]model.ProxyAddress, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Address)
	}
	return out
}

var batchInput = []model.ProxyAddress{"ok-1", "dead-2", "ok-3", "dead-4", "ok-5", "dead-6"}

func TestRunBatch_SequentialKeepsOrderAndNeverStops(t *testing.T) {
	prober := &fakeProber{}
	rec := &memRecorder{}
	var seen int

	results, err := RunBatch(context.Background(), batchInput, prober, rec, BatchOptions{
		OnResult: func(model.ProbeResult) { seen++ },
		Log:      zerolog.Nop(),
	})
	require.NoError(t, err)

	assert.Equal(t, batchInput, prober.calls)
	assert.Equal(t, batchInput, addresses(rec.got))
	assert.Equal(t, batchInput, addresses(results))
	assert.Equal(t, len(batchInput), seen)
	for _, r := range results {
		assert.Equal(t, strings.HasPrefix(string(r.Address), "ok"), r.Success, r.Address)
	}
}

func TestRunBatch_PoolRecordsInInputOrder(t *testing.T) {
	// Earlier proxies are slower, so they finish last.
	delay := make(map[model.ProxyAddress]time.Duration)
	for i, addr := range batchInput {
		delay[addr] = time.Duration(len(batchInput)-i) * 15 * time.Millisecond
	}
	prober := &fakeProber{delay: delay}
	rec := &memRecorder{}

	results, err := RunBatch(context.Background(), batchInput, prober, rec, BatchOptions{
		Concurrency: 4,
		Log:         zerolog.Nop(),
	})
	require.NoError(t, err)

	assert.Equal(t, batchInput, addresses(rec.got))
	assert.Equal(t, batchInput, addresses(results))
	assert.ElementsMatch(t, batchInput, prober.calls)
}

func TestRunBatch_RecorderErrorIsFatal(t *testing.T) {
	for _, n := range []int{1, 3} {
		t.Run(fmt.Sprintf("concurrency=%d", n), func(t *testing.T) {
			rec := &memRecorder{failAt: 3}
			results, err := RunBatch(context.Background(), batchInput, &fakeProber{}, rec, BatchOptions{
				Concurrency: n,
				Log:         zerolog.Nop(),
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "disk full")
			assert.Equal(t, batchInput[:2], addresses(results))
		})
	}
}

func TestRunBatch_CancelDropsUnfinishedProbes(t *testing.T) {
	for _, n := range []int{1, 3} {
		t.Run(fmt.Sprintf("concurrency=%d", n), func(t *testing.T) {
			delay := map[model.ProxyAddress]time.Duration{}
			for _, addr := range batchInput[1:] {
				delay[addr] = time.Hour
			}
			ctx, cancel := context.WithCancel(context.Background())
			rec := &memRecorder{}

			done := make(chan struct{})
			var results []model.ProbeResult
			var err error
			go func() {
				defer close(done)
				results, err = RunBatch(ctx, batchInput, &fakeProber{delay: delay}, rec, BatchOptions{
					Concurrency: n,
					Log:         zerolog.Nop(),
				})
			}()

			time.Sleep(50 * time.Millisecond)
			cancel()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("RunBatch did not return after cancel")
			}

			assert.ErrorIs(t, err, context.Canceled)
			assert.Equal(t, batchInput[:1], addresses(results))
			assert.Equal(t, batchInput[:1], addresses(rec.got), "cancelled probes must not be recorded as dead")
		})
	}
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0
	}
	require.NoError(t, err)
	return strings.Count(string(b), "\n")
}

// End to end over real HTTP: alive, non-200, refused and malformed proxies
// together must partition the input with nothing lost, and a second run appends.
func TestRunBatch_PartitionIsLossless(t *testing.T) {
	alive := newFakeProxy(t, echoOrigin("5.6.7.8"))
	broken := newFakeProxy(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	gone := httptest.NewServer(echoOrigin("5.6.7.8"))
	gone.Close()

	input := []model.ProxyAddress{
		model.ProxyAddress(alive.URL),
		model.ProxyAddress(broken.URL),
		model.ProxyAddress(gone.URL),
		"",
		"not a proxy",
		model.ProxyAddress(alive.URL),
	}

	dir := t.TempDir()
	rec := output.NewRecorder(filepath.Join(dir, "aktif.txt"), filepath.Join(dir, "dead.txt"))
	prober := NewProber(echoURL, 2*time.Second, &stubClassifier{nt: model.NetworkDatacenter}, zerolog.Nop())

	for run := 1; run <= 2; run++ {
		_, err := RunBatch(context.Background(), input, prober, rec, BatchOptions{Concurrency: run, Log: zerolog.Nop()})
		require.NoError(t, err)

		active := countLines(t, rec.ActiveFile)
		dead := countLines(t, rec.DeadFile)
		assert.Equal(t, 2*run, active)
		assert.Equal(t, 4*run, dead)
		assert.Equal(t, run*len(input), active+dead)
	}

	b, err := os.ReadFile(rec.ActiveFile)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat(alive.URL+"\n", 4), string(b))
}
