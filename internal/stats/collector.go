// Package stats samples process memory and CPU while a long import runs and
// summarizes the result.
package stats

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/process"
)

type Sample struct {
	Elapsed    time.Duration
	HeapAlloc  uint64
	RSS        uint64
	CPUPercent float64
	Goroutines int
}

type Report struct {
	Duration time.Duration
	Samples  []Sample

	PeakHeapAlloc uint64
	PeakRSS       uint64
	PeakCPU       float64
	AvgCPU        float64
}

type Collector struct {
	mu      sync.Mutex
	samples []Sample

	interval time.Duration
	start    time.Time
	proc     *process.Process

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewCollector(interval time.Duration) (*Collector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to get process info: %w", err)
	}

	return &Collector{
		interval: interval,
		proc:     proc,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

func (c *Collector) Start() {
	c.start = time.Now()
	go c.collect()
}

func (c *Collector) collect() {
	defer close(c.doneChan)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.sample()

	for {
		select {
		case <-c.stopChan:
			c.sample()
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

func (c *Collector) sample() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	s := Sample{
		Elapsed:    time.Since(c.start),
		HeapAlloc:  memStats.HeapAlloc,
		Goroutines: runtime.NumGoroutine(),
	}

	if memInfo, err := c.proc.MemoryInfo(); err == nil && memInfo != nil {
		s.RSS = memInfo.RSS
	}
	if cpuPercent, err := c.proc.CPUPercent(); err == nil {
		s.CPUPercent = cpuPercent
	}

	c.mu.Lock()
	c.samples = append(c.samples, s)
	c.mu.Unlock()
}

// Stop ends collection and returns the summarized report.
func (c *Collector) Stop() Report {
	close(c.stopChan)
	<-c.doneChan

	c.mu.Lock()
	defer c.mu.Unlock()

	r := Report{
		Duration: time.Since(c.start),
		Samples:  c.samples,
	}

	var totalCPU float64
	for _, s := range c.samples {
		if s.HeapAlloc > r.PeakHeapAlloc {
			r.PeakHeapAlloc = s.HeapAlloc
		}
		if s.RSS > r.PeakRSS {
			r.PeakRSS = s.RSS
		}
		if s.CPUPercent > r.PeakCPU {
			r.PeakCPU = s.CPUPercent
		}
		totalCPU += s.CPUPercent
	}
	if len(c.samples) > 0 {
		r.AvgCPU = totalCPU / float64(len(c.samples))
	}

	return r
}

func (r Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "duration:       %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&sb, "peak heap:      %s\n", humanize.Bytes(r.PeakHeapAlloc))
	fmt.Fprintf(&sb, "peak rss:       %s\n", humanize.Bytes(r.PeakRSS))
	fmt.Fprintf(&sb, "cpu avg/peak:   %.1f%% / %.1f%%\n", r.AvgCPU, r.PeakCPU)
	fmt.Fprintf(&sb, "samples:        %d\n", len(r.Samples))
	return sb.String()
}

// SaveToFile writes the summary plus one line per sample.
func (r Report) SaveToFile(name string) error {
	var sb strings.Builder
	sb.WriteString(r.String())
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "%-12s %-12s %-12s %-8s %-10s\n",
		"elapsed", "heap", "rss", "cpu%", "goroutines")
	for _, s := range r.Samples {
		fmt.Fprintf(&sb, "%-12s %-12s %-12s %-8.1f %-10d\n",
			s.Elapsed.Round(time.Millisecond),
			humanize.Bytes(s.HeapAlloc),
			humanize.Bytes(s.RSS),
			s.CPUPercent,
			s.Goroutines)
	}

	return os.WriteFile(name, []byte(sb.String()), 0644)
}
