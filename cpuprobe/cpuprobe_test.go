package cpuprobe_test

import (
	"testing"

	"github.com/kristoftunner/sigmax/cpuprobe"
)

func TestQueryPopulatesVendorAndCores(t *testing.T) {
	info := cpuprobe.Query()

	if info.Vendor == "" {
		t.Error("Vendor: got empty string")
	}
	if info.Uarch == "" {
		t.Error("Uarch: got empty string")
	}
	if info.CoresPerSocket < 1 {
		t.Errorf("CoresPerSocket: got %d, want >= 1", info.CoresPerSocket)
	}
	if info.PageSize <= 0 {
		t.Errorf("PageSize: got %d, want > 0", info.PageSize)
	}
}

func TestQueryCacheLineSizeIsConsistent(t *testing.T) {
	info := cpuprobe.Query()

	for name, c := range map[string]cpuprobe.Cache{
		"l1i": info.L1ICache,
		"l1d": info.L1DCache,
		"l2":  info.L2Cache,
		"l3":  info.L3Cache,
	} {
		if c.LineSize <= 0 {
			t.Errorf("%s line size: got %d, want > 0", name, c.LineSize)
		}
	}
}

func TestQueryIsDeterministicPerProcess(t *testing.T) {
	a := cpuprobe.Query()
	b := cpuprobe.Query()
	if a != b {
		t.Fatal("two Query() calls in the same process returned different records")
	}
}
