// Dashboard is an optional localhost web dashboard exposing live
// engine metrics — output-queue depth, frame counter, and the
// call-counter-to-stuck-loop-threshold ratio — built on
// go-echarts/statsview, the same way the teacher's CLI exposes opt-in
// diagnostics rather than baking them into the core loop.
package diagnostics

import (
	"sync/atomic"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// Dashboard serves a live localhost chart of queue occupancy, frame
// count, and stuck-loop risk. A host calls Update once per drained
// output item (matching outqueue.Queue.Run's drain loop) and starts
// the dashboard once at engine start-up.
type Dashboard struct {
	occupancy  int64
	frameCount uint64
	callRatio  int64 // percent, 0..100+
}

// NewDashboard registers the custom collectors and returns a
// Dashboard ready to Start.
func NewDashboard() *Dashboard {
	d := &Dashboard{}

	viewer.AddCountCollector("queue_occupancy", func() int64 {
		return atomic.LoadInt64(&d.occupancy)
	})
	viewer.AddCountCollector("frames_delivered", func() int64 {
		return int64(atomic.LoadUint64(&d.frameCount))
	})
	viewer.AddCountCollector("stuck_loop_ratio_pct", func() int64 {
		return atomic.LoadInt64(&d.callRatio)
	})

	return d
}

// Update records the latest metrics; threshold is the engine's
// configured debugStuckLoopThreshold, used to compute callRatio as a
// percentage of the allowed call count already consumed.
func (d *Dashboard) Update(queueOccupancy int, frameCount uint32, totalCalls, threshold int) {
	atomic.StoreInt64(&d.occupancy, int64(queueOccupancy))
	atomic.StoreUint64(&d.frameCount, uint64(frameCount))

	ratio := int64(0)
	if threshold > 0 {
		ratio = int64(totalCalls) * 100 / int64(threshold)
	}
	atomic.StoreInt64(&d.callRatio, ratio)
}

// Start launches the dashboard's HTTP server at addr (e.g.
// "localhost:18066") in the background. It does not block; stop the
// process or its context to shut it down, matching statsview's own
// fire-and-forget Start.
func (d *Dashboard) Start(addr string) {
	mgr := statsview.New(viewer.WithAddr(addr))
	go mgr.Start()
}
