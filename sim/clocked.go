package sim

// Cycle is a point in simulated time, counted in ticks of the component's own
// clock domain.
type Cycle int64

// CycleNever marks a cycle value that has not been assigned yet.
const CycleNever Cycle = -1

// A Clocked is an object that advances its state one cycle at a time.
type Clocked interface {
	// Tick advances the object by one cycle of its own clock domain.
	Tick()
}

// Named is implemented by objects that carry a name for stats and logs.
type Named interface {
	Name() string
}
