// Package sysinfo exposes host monitoring functions backed by gopsutil.
package sysinfo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/prashantdagar001/automation-api/errors"
	"github.com/prashantdagar001/automation-api/registry"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

type module struct{}

var Module registry.Module = module{}

func (module) Name() string { return "sysinfo" }

func (module) Functions() []registry.Function {
	return []registry.Function{
		registry.NewFunction("get_cpu_usage", "Get the current CPU usage percentage.", getCPUUsage),
		registry.NewFunction("get_memory_usage", "Get the current RAM usage information.", getMemoryUsage),
		registry.NewFunction("get_disk_usage", "Get disk usage for a specified path.", getDiskUsage),
		registry.NewFunction("list_running_processes", "List the top running processes by memory usage.", listRunningProcesses),
	}
}

func gigabytes(v uint64) string {
	return fmt.Sprintf("%.2f GB", float64(v)/(1<<30))
}

type cpuUsageInput struct{}

func getCPUUsage(ctx context.Context, _ cpuUsageInput) (any, error) {
	percents, err := cpu.PercentWithContext(ctx, time.Second, false)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read cpu usage")
	}
	if len(percents) == 0 {
		return nil, errors.New("no cpu usage reported")
	}
	return fmt.Sprintf("Current CPU usage: %.1f%%", percents[0]), nil
}

type memoryUsageInput struct{}

func getMemoryUsage(ctx context.Context, _ memoryUsageInput) (any, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read memory usage")
	}
	return map[string]any{
		"total":     gigabytes(vm.Total),
		"available": gigabytes(vm.Available),
		"used":      gigabytes(vm.Used),
		"percent":   fmt.Sprintf("%.1f%%", vm.UsedPercent),
	}, nil
}

type diskUsageInput struct {
	Path string `json:"path,omitempty" jsonschema:"default=/"`
}

func getDiskUsage(ctx context.Context, in diskUsageInput) (any, error) {
	path := in.Path
	if path == "" {
		path = "/"
	}
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read disk usage for %s", path)
	}
	return map[string]any{
		"total":   gigabytes(usage.Total),
		"used":    gigabytes(usage.Used),
		"free":    gigabytes(usage.Free),
		"percent": fmt.Sprintf("%.1f%%", usage.UsedPercent),
	}, nil
}

type listProcessesInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"default=10"`
}

func listRunningProcesses(ctx context.Context, in listProcessesInput) (any, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 10
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list processes")
	}

	type entry struct {
		pid    int32
		name   string
		memory float32
	}
	entries := make([]entry, 0, len(procs))
	for _, proc := range procs {
		// Skip processes that vanish or deny access mid-scan.
		memory, err := proc.MemoryPercentWithContext(ctx)
		if err != nil {
			continue
		}
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			continue
		}
		entries = append(entries, entry{pid: proc.Pid, name: name, memory: memory})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].memory > entries[j].memory
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	results := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		results = append(results, map[string]any{
			"pid":            e.pid,
			"name":           e.name,
			"memory_percent": fmt.Sprintf("%.2f%%", e.memory),
		})
	}
	return results, nil
}
