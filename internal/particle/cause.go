package particle

import "fmt"

// Cause is the fate of a particle. Every value other than Alive is
// terminal.
type Cause int

const (
	Alive Cause = iota
	DeadOld
	DeadOut
	DeadBeach
	DeadCold
	DeadHot
)

// Causes lists every fate in code order.
var Causes = []Cause{Alive, DeadOld, DeadOut, DeadBeach, DeadCold, DeadHot}

func (c Cause) String() string {
	switch c {
	case Alive:
		return "alive"
	case DeadOld:
		return "old"
	case DeadOut:
		return "out"
	case DeadBeach:
		return "beached"
	case DeadCold:
		return "cold"
	case DeadHot:
		return "hot"
	default:
		return fmt.Sprintf("cause(%d)", int(c))
	}
}

// Code is the integer written to output files.
func (c Cause) Code() int { return int(c) }
