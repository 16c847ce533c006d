// Package system holds the process-wide aggregate: the route pool every
// route belongs to, plus identity metadata stamped into the startup log
// line so logs from multiple pooler hosts can be told apart once
// aggregated centrally. Statistics lines do not carry it.
package system

import (
	"github.com/denisbrodbeck/machineid"

	"github.com/sbgrid/pgpool/internal/route"
)

// System is the single process-wide instance every component is
// constructed against: one route pool, one machine identity.
type System struct {
	Routes    *route.Pool
	MachineID string
}

// New builds a System with a fresh, empty route pool. The machine ID is
// resolved via denisbrodbeck/machineid's protected, per-host identifier;
// a resolution failure is not fatal, it simply leaves MachineID empty —
// the pooler can run without the ability to tag its own logs.
func New() *System {
	id, err := machineid.ProtectedID("pgpool")
	if err != nil {
		id = ""
	}
	return &System{
		Routes:    route.NewPool(),
		MachineID: id,
	}
}
