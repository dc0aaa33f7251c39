package memctrl

import (
	"strings"

	"github.com/AIALRA-0/Ramulator2-ECC/datarecording"
)

// A Plugin observes the controller pipeline. Plugins run each cycle after a
// request is chosen and before its command issues, in registration order.
// They must not mutate the chosen request's command or address vector.
type Plugin interface {
	// Setup binds the plugin to its controller before the first cycle.
	Setup(ctrl *Controller)

	// Update runs once per cycle with the scheduling outcome.
	Update(found bool, req *Request)

	// Finalize runs when the simulation ends.
	Finalize()
}

// A CommandRecord is one issued command, as stored by the command trace
// plugin.
type CommandRecord struct {
	Cycle     int64
	Channel   int
	Command   string
	Rank      int
	BankGroup int
	Bank      int
	Row       int
}

// CommandTracePlugin records every issued command into a data recorder
// table, one table per channel.
type CommandTracePlugin struct {
	recorder datarecording.DataRecorder
	table    string
	ctrl     *Controller
}

// NewCommandTracePlugin creates a command trace plugin writing into the
// given recorder.
func NewCommandTracePlugin(recorder datarecording.DataRecorder) *CommandTracePlugin {
	return &CommandTracePlugin{recorder: recorder}
}

func (p *CommandTracePlugin) Setup(ctrl *Controller) {
	p.ctrl = ctrl
	p.table = "commands_" + sanitizeTableName(ctrl.Name())

	p.recorder.CreateTable(p.table, CommandRecord{})
}

func sanitizeTableName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func (p *CommandTracePlugin) Update(found bool, req *Request) {
	if !found {
		return
	}

	vec := req.AddrVec
	p.recorder.InsertData(p.table, CommandRecord{
		Cycle:     int64(p.ctrl.Clk()),
		Channel:   vec[0],
		Command:   req.Command.String(),
		Rank:      vec[1],
		BankGroup: vec[2],
		Bank:      vec[3],
		Row:       vec[4],
	})
}

func (p *CommandTracePlugin) Finalize() {
	p.recorder.Flush()
}
