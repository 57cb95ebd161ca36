// Package drift provides the core value types shared by the particle
// transport engine.
//
// Positions in grid space are expressed with [Point], whose X and Y are
// fractional rho-point indices and Z a fractional sigma level. The same
// type carries displacements and velocities in grid units per second.
//
//   - [Point]: grid position, displacement or velocity
//   - [StepError]: failure wrapped with step and time context
//
// # Errors
//
// Sentinel errors such as [ErrEndOfDataset] and [ErrMissingVariable] are
// returned wrapped with fmt.Errorf("...: %w"); match them with errors.Is.
// Particle deaths are regular state transitions and never surface as errors.
package drift
