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

type loadStoreEntry struct {
	isWrite bool
	addr    int64
}

// LoadStoreTrace replays a load/store address trace. Each line is
// "LD <addr>" or "ST <addr>" with a decimal or 0x-prefixed address. The
// trace wraps around until the request budget is exhausted.
type LoadStoreTrace struct {
	mem *memsystem.MemSystem

	trace []loadStoreEntry
	idx   int
	count int64

	// budget is the number of requests to send before finishing. It
	// defaults to one pass over the trace.
	budget int64
}

// NewLoadStoreTrace loads a trace file. A non-positive budget means one
// pass over the trace.
func NewLoadStoreTrace(
	path string,
	mem *memsystem.MemSystem,
	budget int64,
) (*LoadStoreTrace, error) {
	trace, err := parseLoadStoreFile(path)
	if err != nil {
		return nil, err
	}

	if budget <= 0 {
		budget = int64(len(trace))
	}

	log.Printf("LoadStoreTrace: loaded %d lines from %s", len(trace), path)

	return &LoadStoreTrace{
		mem:    mem,
		trace:  trace,
		budget: budget,
	}, nil
}

func parseLoadStoreFile(path string) ([]loadStoreEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open trace %s: %w", path, err)
	}
	defer f.Close()

	var trace []loadStoreEntry

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
				"trace %s line %d: expected \"LD|ST <addr>\", got %q",
				path, lineNum, line)
		}

		var isWrite bool
		switch tokens[0] {
		case "LD":
			isWrite = false
		case "ST":
			isWrite = true
		default:
			return nil, fmt.Errorf(
				"trace %s line %d: unknown operation %q",
				path, lineNum, tokens[0])
		}

		addr, err := parseAddr(tokens[1])
		if err != nil {
			return nil, fmt.Errorf(
				"trace %s line %d: %w", path, lineNum, err)
		}

		trace = append(trace, loadStoreEntry{isWrite: isWrite, addr: addr})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read trace %s: %w", path, err)
	}

	if len(trace) == 0 {
		return nil, fmt.Errorf("trace %s is empty", path)
	}

	return trace, nil
}

func parseAddr(token string) (int64, error) {
	if strings.HasPrefix(token, "0x") || strings.HasPrefix(token, "0X") {
		v, err := strconv.ParseInt(token[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid address %q", token)
		}

		return v, nil
	}

	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", token)
	}

	return v, nil
}

// Tick tries to send the current trace entry. Backpressure leaves the
// entry in place for a retry next cycle.
func (t *LoadStoreTrace) Tick() {
	if t.IsFinished() {
		return
	}

	e := t.trace[t.idx]

	reqType := dram.ReqRead
	if e.isWrite {
		reqType = dram.ReqWrite
	}

	req := memctrl.NewRequest(e.addr, reqType)
	req.SourceID = 0

	if t.mem.Send(req) {
		t.idx = (t.idx + 1) % len(t.trace)
		t.count++
	}
}

// IsFinished reports whether the request budget has been spent.
func (t *LoadStoreTrace) IsFinished() bool {
	return t.count >= t.budget
}

// ReceiveExternalRequest injects a host request ahead of the trace.
func (t *LoadStoreTrace) ReceiveExternalRequest(
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
