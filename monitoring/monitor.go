// Package monitoring turns a running simulation into a small web server so
// long runs can be watched from a browser.
package monitoring

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"

	"github.com/AIALRA-0/Ramulator2-ECC/stats"
)

// A Monitor serves live statistics and progress of a simulation over HTTP.
type Monitor struct {
	registry   *stats.Registry
	portNumber int

	sentRequests  *int64
	totalRequests int64
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port the server listens on. Zero picks a random
// free port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is not allowed for the monitoring server. "+
				"Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterRegistry registers the stats registry of the simulation.
func (m *Monitor) RegisterRegistry(r *stats.Registry) {
	m.registry = r
}

// RegisterProgress registers a request counter and the total to report
// completion against.
func (m *Monitor) RegisterProgress(sent *int64, total int64) {
	m.sentRequests = sent
	m.totalRequests = total
}

// StartServer starts the monitoring server and opens the stats page in the
// local browser.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()
	r.HandleFunc("/api/stats", m.serveStats)
	r.HandleFunc("/api/progress", m.serveProgress)
	r.HandleFunc("/api/process", m.serveProcess)

	listener, err := net.Listen("tcp",
		fmt.Sprintf("localhost:%d", m.portNumber))
	if err != nil {
		log.Panic(err)
	}

	url := "http://" + listener.Addr().String() + "/api/stats"
	fmt.Fprintf(os.Stderr, "Monitoring simulation at %s\n", url)

	go func() {
		_ = browser.OpenURL(url)
	}()

	go func() {
		if err := http.Serve(listener, r); err != nil {
			log.Print(err)
		}
	}()
}

func (m *Monitor) serveStats(w http.ResponseWriter, _ *http.Request) {
	if m.registry == nil {
		http.Error(w, "no stats registry registered",
			http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, m.registry.Collect())
}

func (m *Monitor) serveProgress(w http.ResponseWriter, _ *http.Request) {
	if m.sentRequests == nil {
		http.Error(w, "no progress registered",
			http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, map[string]int64{
		"sent":  atomic.LoadInt64(m.sentRequests),
		"total": m.totalRequests,
	})
}

func (m *Monitor) serveProcess(w http.ResponseWriter, _ *http.Request) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memInfo, err := p.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, _ := p.CPUPercent()

	writeJSON(w, map[string]any{
		"rss_bytes":   memInfo.RSS,
		"vms_bytes":   memInfo.VMS,
		"cpu_percent": cpuPercent,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Print(err)
	}
}
