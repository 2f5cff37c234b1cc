// Package tracking implements the 6-D particle tracking engine: the
// per-element symplectic pass methods, the line and ring drivers with
// aperture and loss handling, and the closed-orbit and one-turn map
// extraction.
//
//   - [ElementPass]: one element, one particle, in place
//   - [LinePass] / [RingPass]: lattice traversal with loss detection
//     and trajectory capture
//   - [FindOrbit4] / [FindOrbit6]: Newton fixed point of the one-turn map
//   - [FindM66]: finite-difference linearized transfer matrices
//
// # Thread Safety
//
// The engine mutates only the caller's phase-space state. An
// [lattice.Accelerator] is read-only during tracking, so disjoint
// particles may be tracked concurrently against a shared instance.
package tracking
