// Package cpuprobe captures the CPU/cache topology of the host running a
// benchmark, once per process, and renders it into the serialization-ready
// shape resultsink expects under the "cpuInfo" key.
package cpuprobe

import (
	"fmt"
	"os"

	"github.com/klauspost/cpuid/v2"
)

// Cache describes one level of the cache hierarchy.
type Cache struct {
	Size          int `json:"size"`
	Associativity int `json:"associativity"`
	LineSize      int `json:"line_size"`
}

// Info is the one-time environment probe record, matching the cpuInfo
// schema: vendor, uarch, the four cache levels, and cores per socket.
type Info struct {
	Vendor         string `json:"vendor"`
	Uarch          string `json:"uarch"`
	L1ICache       Cache  `json:"l1iCache"`
	L1DCache       Cache  `json:"l1dCache"`
	L2Cache        Cache  `json:"l2Cache"`
	L3Cache        Cache  `json:"l3Cache"`
	CoresPerSocket int    `json:"coresPerSocket"`
	PageSize       int    `json:"pageSize"`
}

// unknownAssociativity marks a cache level whose set-associativity the
// host could not report. cpuid/v2 exposes total cache size and the global
// line size but not per-level associativity; size and line size are still
// real measurements.
const unknownAssociativity = -1

// Query runs the probe once and returns the resulting record. It never
// fails: an unavailable cache size is reported as zero, an unavailable line
// size as 64, an unavailable core count as 1, and associativity always as
// unknownAssociativity, rather than raising an error, since the probe is
// observational metadata that must not gate a benchmark run.
func Query() Info {
	cpu := cpuid.CPU
	lineSize := cpu.CacheLine
	if lineSize <= 0 {
		lineSize = 64
	}

	cache := func(size int) Cache {
		if size <= 0 {
			return Cache{Size: 0, Associativity: unknownAssociativity, LineSize: lineSize}
		}
		return Cache{Size: size, Associativity: unknownAssociativity, LineSize: lineSize}
	}

	cores := cpu.PhysicalCores
	if cores <= 0 {
		cores = 1
	}

	return Info{
		Vendor:         cpu.VendorID.String(),
		Uarch:          microarchitecture(cpu),
		L1ICache:       cache(cpu.Cache.L1I),
		L1DCache:       cache(cpu.Cache.L1D),
		L2Cache:        cache(cpu.Cache.L2),
		L3Cache:        cache(cpu.Cache.L3),
		CoresPerSocket: cores,
		PageSize:       os.Getpagesize(),
	}
}

// microarchitecture gives a best-effort human-readable microarchitecture
// identifier. cpuid/v2 does not carry the exhaustive vendor/model decode
// tables a dedicated cache-topology library does, so this covers the
// common recent families and falls back to a family/model tag otherwise.
func microarchitecture(cpu cpuid.CPUInfo) string {
	switch {
	case cpu.VendorID == cpuid.Intel && cpu.Family == 6:
		switch cpu.Model {
		case 0x8C, 0x8D:
			return "Tiger Lake"
		case 0x7D, 0x7E:
			return "Ice Lake"
		case 0x6A, 0x6C:
			return "Ice Lake SP"
		case 0x8E, 0x9E:
			return "Kaby Lake/Sky Lake"
		case 0x4E, 0x5E:
			return "Sky Lake"
		case 0x3D, 0x47:
			return "Broadwell"
		}
	case cpu.VendorID == cpuid.AMD:
		switch cpu.Family {
		case 0x19:
			return "Zen 3/4"
		case 0x17:
			return "Zen/Zen 2"
		}
	}
	if cpu.BrandName != "" {
		return cpu.BrandName
	}
	return fmt.Sprintf("family %#x model %#x", cpu.Family, cpu.Model)
}
