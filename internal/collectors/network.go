package collectors

import (
	"context"
	"sync"
	"time"

	gnet "github.com/shirou/gopsutil/v3/net"

	"github.com/sentineld/sentineld/internal/model"
)

// NetworkCollector samples aggregate throughput and per-interface state.
// download/upload rates are first-differences of cumulative byte counters
// since the previous tick; the first sample after process start reports
// zero rates with WarmingUp set, per spec.md §4.1. A counter decrease
// (interface reset, counter wraparound) is treated the same as a first
// sample: the delta state resets and the tick reports WarmingUp again
// rather than a negative rate.
type NetworkCollector struct {
	mu       sync.Mutex
	prev     gnet.IOCountersStat
	prevWall time.Time
	haveAny  bool
}

// NewNetworkCollector constructs a NetworkCollector with empty delta state.
func NewNetworkCollector() *NetworkCollector {
	return &NetworkCollector{}
}

func (c *NetworkCollector) Name() string { return "network" }

func (c *NetworkCollector) DefaultCadence() Cadence { return CadenceHigh }

func (c *NetworkCollector) Sample(ctx context.Context, deadline time.Time) Result {
	done := make(chan Result, 1)
	go func() { done <- c.sample() }()

	select {
	case r := <-done:
		return r
	case <-time.After(time.Until(deadline)):
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTimeout}}
	case <-ctx.Done():
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTimeout, Message: ctx.Err().Error()}}
	}
}

func (c *NetworkCollector) sample() Result {
	totals, err := gnet.IOCounters(false)
	if err != nil || len(totals) == 0 {
		return Result{Name: c.Name(), Err: &Failure{Reason: ReasonTransientError, Message: errString(err)}}
	}
	cur := totals[0]

	perIface, err := gnet.IOCounters(true)
	if err != nil {
		perIface = nil
	}
	ifaceInfo, err := gnet.Interfaces()
	if err != nil {
		ifaceInfo = nil
	}

	downMbps, upMbps, warming := c.rates(cur)

	conns, err := gnet.Connections("all")
	active := 0
	if err == nil {
		for _, cn := range conns {
			if cn.Status == "ESTABLISHED" {
				active++
			}
		}
	}

	frag := &model.Network{
		DownloadMbps:      downMbps,
		UploadMbps:        upMbps,
		ConnectionsActive: active,
		BytesSent:         cur.BytesSent,
		BytesReceived:     cur.BytesRecv,
		PacketsSent:       cur.PacketsSent,
		PacketsReceived:   cur.PacketsRecv,
		Errors:            cur.Errin + cur.Errout,
		WarmingUp:         warming,
		Interfaces:        buildInterfaces(ifaceInfo, perIface),
	}
	return Result{Name: c.Name(), Fragment: frag}
}

func (c *NetworkCollector) rates(cur gnet.IOCountersStat) (downMbps, upMbps float64, warming bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if !c.haveAny || cur.BytesRecv < c.prev.BytesRecv || cur.BytesSent < c.prev.BytesSent {
		c.prev = cur
		c.prevWall = now
		c.haveAny = true
		return 0, 0, true
	}

	dt := now.Sub(c.prevWall).Seconds()
	if dt <= 0 {
		dt = 1
	}

	const mb = 1024 * 1024
	downMbps = float64(cur.BytesRecv-c.prev.BytesRecv) / mb / dt * 8
	upMbps = float64(cur.BytesSent-c.prev.BytesSent) / mb / dt * 8

	c.prev = cur
	c.prevWall = now
	return downMbps, upMbps, false
}

func buildInterfaces(info gnet.InterfaceStatList, perIface []gnet.IOCountersStat) []model.NetworkInterface {
	up := make(map[string]bool, len(info))
	for _, ifc := range info {
		for _, flag := range ifc.Flags {
			if flag == "up" {
				up[ifc.Name] = true
			}
		}
	}

	out := make([]model.NetworkInterface, 0, len(perIface))
	for _, stat := range perIface {
		out = append(out, model.NetworkInterface{
			Name: stat.Name,
			IsUp: up[stat.Name],
		})
	}
	return out
}
