package util

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"
)

// ProcessInfo holds information about the process
type ProcessInfo struct {
	PID         int
	Goroutines  int
	HeapInUse   uint64
	Sys         uint64
	NumGC       uint32
	CPUCores    int
	GoVersion   string
	ElapsedTime time.Duration
}

// GetProcessInfo returns diagnostic information about the running process
func GetProcessInfo(startTime time.Time) ProcessInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return ProcessInfo{
		PID:         os.Getpid(),
		Goroutines:  runtime.NumGoroutine(),
		HeapInUse:   m.HeapInuse,
		Sys:         m.Sys,
		NumGC:       m.NumGC,
		CPUCores:    runtime.NumCPU(),
		GoVersion:   runtime.Version(),
		ElapsedTime: time.Since(startTime),
	}
}

// LogDiagnostics writes one diagnostic record to logger
func LogDiagnostics(logger *slog.Logger, startTime time.Time) {
	info := GetProcessInfo(startTime)

	logger.Info("diagnostics",
		"pid", info.PID,
		"go", info.GoVersion,
		"cpus", info.CPUCores,
		"goroutines", info.Goroutines,
		"heap_in_use", FormatBytes(info.HeapInUse),
		"sys", FormatBytes(info.Sys),
		"gc_cycles", info.NumGC,
		"runtime", info.ElapsedTime.Round(time.Millisecond))
}

// FormatBytes formats bytes as human-readable string
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
