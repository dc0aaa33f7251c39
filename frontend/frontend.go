// Package frontend drives the simulation with memory requests, either
// replayed from trace files or received from a host simulator.
package frontend

import (
	"github.com/AIALRA-0/Ramulator2-ECC/dram"
	"github.com/AIALRA-0/Ramulator2-ECC/memctrl"
	"github.com/AIALRA-0/Ramulator2-ECC/sim"
)

// A FrontEnd generates requests in the frontend clock domain.
type FrontEnd interface {
	sim.Clocked

	// IsFinished reports whether the simulation should terminate.
	IsFinished() bool

	// ReceiveExternalRequest lets a host simulator inject a request. The
	// callback runs when the request departs the controller. It returns
	// false when the memory system cannot accept the request this cycle.
	ReceiveExternalRequest(
		t dram.RequestType,
		addr int64,
		sourceID int,
		callback func(*memctrl.Request),
	) bool
}
