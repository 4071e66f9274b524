package metrics

import (
	"reflect"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBasicProvider_Counter_ReusedAndAccumulates(t *testing.T) {
	p := NewBasicProvider()

	c1 := p.Counter("tasks_enqueued")
	c2 := p.Counter("tasks_enqueued")
	require.Equal(t, reflect.ValueOf(c1).Pointer(), reflect.ValueOf(c2).Pointer())

	bc, ok := c1.(*BasicCounter)
	require.True(t, ok)

	c1.Add(3)
	c2.Add(2)
	require.Equal(t, int64(5), bc.Snapshot())

	cOther := p.Counter("other")
	require.NotEqual(t, reflect.ValueOf(c1).Pointer(), reflect.ValueOf(cOther).Pointer())
}

func TestBasicProvider_UpDownCounter_ReusedAndMoves(t *testing.T) {
	p := NewBasicProvider()
	u1 := p.UpDownCounter("inflight")
	u2 := p.UpDownCounter("inflight")
	require.Equal(t, reflect.ValueOf(u1).Pointer(), reflect.ValueOf(u2).Pointer())

	bu, ok := u1.(*BasicUpDownCounter)
	require.True(t, ok)

	u1.Add(+3)
	u2.Add(-1)
	u1.Add(+10)
	require.Equal(t, int64(12), bu.Snapshot())
}

func TestBasicProvider_Histogram_RecordsStats(t *testing.T) {
	p := NewBasicProvider()
	h := p.Histogram("exec_seconds")

	bh, ok := h.(*BasicHistogram)
	require.True(t, ok)

	h.Record(0.1)
	h.Record(0.3)
	h.Record(0.2)
	s := bh.Snapshot()
	require.Equal(t, int64(3), s.Count)
	require.InDelta(t, 0.1, s.Min, 1e-9)
	require.InDelta(t, 0.3, s.Max, 1e-9)
	require.InDelta(t, 0.6, s.Sum, 0.01)
	require.InDelta(t, 0.2, s.Mean, 0.01)
}

func TestBasicProvider_Meta_RetainsInstrumentConfig(t *testing.T) {
	p := NewBasicProvider()

	_, ok := p.Meta("never_created")
	require.False(t, ok)

	p.Counter("tasks_enqueued", WithDescription("fiberize tasks enqueued"), WithUnit("1"))
	cfg, ok := p.Meta("tasks_enqueued")
	require.True(t, ok)
	require.Equal(t, "fiberize tasks enqueued", cfg.Description)
	require.Equal(t, "1", cfg.Unit)

	p.UpDownCounter("mailbox_depth", WithAttributes(map[string]string{"scope": "system"}))
	cfg, ok = p.Meta("mailbox_depth")
	require.True(t, ok)
	require.Equal(t, "system", cfg.Attributes["scope"])

	p.Histogram("dispatch_seconds", WithDescription("dispatch latency"))
	cfg, ok = p.Meta("dispatch_seconds")
	require.True(t, ok)
	require.Equal(t, "dispatch latency", cfg.Description)
}

func TestBasicProvider_Snapshot_DumpsCountersAndUpDowns(t *testing.T) {
	p := NewBasicProvider()

	p.Counter("a").Add(2)
	p.Counter("a").Add(3)
	p.UpDownCounter("b").Add(7)
	p.UpDownCounter("b").Add(-1)
	// A histogram doesn't participate in Snapshot, only counters/up-downs.
	p.Histogram("c").Record(1.0)

	snap := p.Snapshot()
	require.Equal(t, int64(5), snap["a"])
	require.Equal(t, int64(6), snap["b"])
	_, histPresent := snap["c"]
	require.False(t, histPresent)
}

func TestBasicProvider_Concurrent_GetSameInstrument(t *testing.T) {
	p := NewBasicProvider()
	n := 50
	ptrs := make([]uintptr, n)
	wg := sync.WaitGroup{}
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(idx int) {
			defer wg.Done()
			c := p.Counter("shared")
			ptrs[idx] = reflect.ValueOf(c).Pointer()
		}(i)
	}
	wg.Wait()
	first := ptrs[0]
	for i := 1; i < n; i++ {
		require.Equal(t, first, ptrs[i])
	}
}

func TestBasicProvider_Concurrent_CounterAdd(t *testing.T) {
	p := NewBasicProvider()
	c := p.Counter("hits")
	bc := c.(*BasicCounter)

	workers := runtime.NumCPU() * 2
	iters := 1000
	wg := sync.WaitGroup{}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iters; i++ {
				c.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int64(workers*iters), bc.Snapshot())
}

func TestBasicProvider_Concurrent_UpDownAdd(t *testing.T) {
	p := NewBasicProvider()
	u := p.UpDownCounter("inflight")
	bu := u.(*BasicUpDownCounter)

	workers := runtime.NumCPU() * 2
	iters := 1000
	wg := sync.WaitGroup{}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < iters; i++ {
				if (i+id)%2 == 0 {
					u.Add(+1)
				} else {
					u.Add(-1)
				}
			}
		}(w)
	}
	wg.Wait()
	require.Equal(t, int64(0), bu.Snapshot())
}

func TestBasicProvider_Concurrent_HistogramRecord(t *testing.T) {
	p := NewBasicProvider()
	h := p.Histogram("latency")
	bh := h.(*BasicHistogram)

	workers := runtime.NumCPU() * 2
	iters := 500
	wg := sync.WaitGroup{}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(base int) {
			defer wg.Done()
			for i := 0; i < iters; i++ {
				v := float64((base%10)+i%10) / 100.0
				h.Record(v)
			}
		}(w)
	}
	wg.Wait()
	s := bh.Snapshot()
	require.Equal(t, int64(workers*iters), s.Count)
	require.GreaterOrEqual(t, s.Min, 0.0)
	require.LessOrEqual(t, s.Min, 0.09)
	require.GreaterOrEqual(t, s.Max, 0.0)
	require.LessOrEqual(t, s.Max, 0.19)
}
