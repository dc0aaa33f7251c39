package sim

import "log"

type domain struct {
	clocked Clocked
	ratio   int
	ticks   int64
}

// nextEdge returns the normalized time of the domain's next tick. A domain
// with ratio R ticks once every R units of normalized time.
func (d *domain) nextEdge() int64 {
	return (d.ticks + 1) * int64(d.ratio)
}

// A Driver advances multiple clock domains that are bridged by integer
// ratios. Each registered Clocked ticks whenever its ratio-normalized clock
// is the smallest among all domains, so a domain with ratio 3 ticks once for
// every three ticks of a domain with ratio 1.
type Driver struct {
	domains []*domain
}

// NewDriver creates an empty Driver.
func NewDriver() *Driver {
	return &Driver{}
}

// Register adds a clock domain. The ratio is the number of normalized time
// units between two ticks of this domain. Registration order breaks ties:
// domains registered earlier tick first on a shared edge.
func (d *Driver) Register(c Clocked, ratio int) {
	if ratio <= 0 {
		log.Panic("clock ratio must be positive")
	}

	d.domains = append(d.domains, &domain{clocked: c, ratio: ratio})
}

// TickNext advances the single domain whose next tick edge is the earliest.
func (d *Driver) TickNext() {
	if len(d.domains) == 0 {
		log.Panic("no clock domain registered")
	}

	earliest := d.domains[0]
	for _, dom := range d.domains[1:] {
		if dom.nextEdge() < earliest.nextEdge() {
			earliest = dom
		}
	}

	earliest.ticks++
	earliest.clocked.Tick()
}

// RunUntil keeps ticking domains until the stop condition reports true. The
// condition is evaluated between ticks.
func (d *Driver) RunUntil(stop func() bool) {
	for !stop() {
		d.TickNext()
	}
}

// Ticks returns how many times the i-th registered domain has ticked.
func (d *Driver) Ticks(i int) int64 {
	return d.domains[i].ticks
}
