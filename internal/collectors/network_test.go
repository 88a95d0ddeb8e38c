package collectors

import (
	"testing"
	"time"

	gnet "github.com/shirou/gopsutil/v3/net"
)

func TestNetworkRatesFirstCallWarmsUp(t *testing.T) {
	c := NewNetworkCollector()
	down, up, warming := c.rates(gnet.IOCountersStat{BytesRecv: 1000, BytesSent: 500})
	if !warming {
		t.Errorf("first call should report warming_up=true")
	}
	if down != 0 || up != 0 {
		t.Errorf("first call should report zero rates, got %v %v", down, up)
	}
}

func TestNetworkRatesCounterResetWarmsUpAgain(t *testing.T) {
	c := NewNetworkCollector()
	c.rates(gnet.IOCountersStat{BytesRecv: 10000, BytesSent: 10000})
	_, _, warming := c.rates(gnet.IOCountersStat{BytesRecv: 500, BytesSent: 500})
	if !warming {
		t.Errorf("counter decrease should re-trigger warming_up")
	}
}

func TestNetworkRatesSteadyIncreaseComputesPositiveRate(t *testing.T) {
	c := &NetworkCollector{
		prev:     gnet.IOCountersStat{BytesRecv: 1_000_000, BytesSent: 500_000},
		prevWall: time.Now().Add(-time.Second),
		haveAny:  true,
	}
	down, up, warming := c.rates(gnet.IOCountersStat{BytesRecv: 2_000_000, BytesSent: 1_000_000})
	if warming {
		t.Fatalf("steady increase should not report warming_up")
	}
	if down <= 0 || up <= 0 {
		t.Fatalf("expected positive rates, got down=%v up=%v", down, up)
	}
}

func TestBuildInterfacesMarksUpFlagFromInterfaceInfo(t *testing.T) {
	info := gnet.InterfaceStatList{
		{Name: "eth0", Flags: []string{"up", "broadcast"}},
		{Name: "eth1", Flags: []string{"broadcast"}},
	}
	perIface := []gnet.IOCountersStat{
		{Name: "eth0"},
		{Name: "eth1"},
	}
	out := buildInterfaces(info, perIface)
	if len(out) != 2 {
		t.Fatalf("got %d interfaces, want 2", len(out))
	}
	byName := map[string]bool{}
	for _, ifc := range out {
		byName[ifc.Name] = ifc.IsUp
	}
	if !byName["eth0"] {
		t.Errorf("eth0 should be marked up")
	}
	if byName["eth1"] {
		t.Errorf("eth1 should not be marked up")
	}
}
