package frontend

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/AIALRA-0/Ramulator2-ECC/dram"
	"github.com/AIALRA-0/Ramulator2-ECC/memctrl"
	"github.com/AIALRA-0/Ramulator2-ECC/memsystem"
)

type readWriteEntry struct {
	isWrite bool
	vec     dram.AddrVec
}

// ReadWriteTrace replays an address-vector trace. Each line is
// "R <v0,v1,...>" or "W <v0,v1,...>" with decimal vector elements, one per
// hierarchy level. The trace wraps around until the request budget is
// exhausted.
type ReadWriteTrace struct {
	mem *memsystem.MemSystem

	trace  []readWriteEntry
	idx    int
	count  int64
	budget int64
}

// NewReadWriteTrace loads a vector trace file. A non-positive budget means
// one pass over the trace.
func NewReadWriteTrace(
	path string,
	mem *memsystem.MemSystem,
	budget int64,
) (*ReadWriteTrace, error) {
	trace, err := parseReadWriteFile(path)
	if err != nil {
		return nil, err
	}

	if budget <= 0 {
		budget = int64(len(trace))
	}

	log.Printf("ReadWriteTrace: loaded %d lines from %s", len(trace), path)

	return &ReadWriteTrace{
		mem:    mem,
		trace:  trace,
		budget: budget,
	}, nil
}

func parseReadWriteFile(path string) ([]readWriteEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open trace %s: %w", path, err)
	}
	defer f.Close()

	var trace []readWriteEntry

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		if len(tokens) != 2 {
			return nil, fmt.Errorf(
				"trace %s line %d: expected \"R|W <v0,v1,...>\", got %q",
				path, lineNum, line)
		}

		var isWrite bool
		switch tokens[0] {
		case "R":
			isWrite = false
		case "W":
			isWrite = true
		default:
			return nil, fmt.Errorf(
				"trace %s line %d: unknown operation %q",
				path, lineNum, tokens[0])
		}

		elems := strings.Split(tokens[1], ",")
		vec := make(dram.AddrVec, 0, len(elems))
		for _, e := range elems {
			v, err := strconv.Atoi(strings.TrimSpace(e))
			if err != nil {
				return nil, fmt.Errorf(
					"trace %s line %d: invalid vector element %q",
					path, lineNum, e)
			}

			vec = append(vec, v)
		}

		trace = append(trace, readWriteEntry{isWrite: isWrite, vec: vec})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read trace %s: %w", path, err)
	}

	if len(trace) == 0 {
		return nil, fmt.Errorf("trace %s is empty", path)
	}

	return trace, nil
}

// Tick tries to send the current trace entry, retrying on backpressure.
func (t *ReadWriteTrace) Tick() {
	if t.IsFinished() {
		return
	}

	e := t.trace[t.idx]

	reqType := dram.ReqRead
	if e.isWrite {
		reqType = dram.ReqWrite
	}

	req := memctrl.NewVecRequest(e.vec.Clone(), reqType)
	req.SourceID = 0

	if t.mem.Send(req) {
		t.idx = (t.idx + 1) % len(t.trace)
		t.count++
	}
}

// IsFinished reports whether the request budget has been spent.
func (t *ReadWriteTrace) IsFinished() bool {
	return t.count >= t.budget
}

// ReceiveExternalRequest injects a host request ahead of the trace.
func (t *ReadWriteTrace) ReceiveExternalRequest(
	reqType dram.RequestType,
	addr int64,
	sourceID int,
	callback func(*memctrl.Request),
) bool {
	req := memctrl.NewRequest(addr, reqType)
	req.SourceID = sourceID
	req.Callback = callback

	return t.mem.Send(req)
}
