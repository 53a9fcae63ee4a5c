package health

import (
	"fmt"
	"runtime"
	"time"
)

// checkSystem reads process memory usage and classifies it against the
// configured threshold. Resource pressure alone never marks the process
// unhealthy; the worst this check reports is degraded.
func (c *Checker) checkSystem() (CheckResult, MemoryStatus) {
	start := time.Now()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	mem := MemoryStatus{
		UsedBytes:  ms.HeapAlloc,
		TotalBytes: ms.Sys,
	}

	res := CheckResult{
		Name:     "system",
		Status:   StatusHealthy,
		Duration: time.Since(start),
	}
	if ms.HeapAlloc > c.cfg.MemoryThresholdBytes {
		res.Status = StatusDegraded
		res.Message = fmt.Sprintf("heap usage %d bytes exceeds threshold %d bytes",
			ms.HeapAlloc, c.cfg.MemoryThresholdBytes)
	}

	return res, mem
}
