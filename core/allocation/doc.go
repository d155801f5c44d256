// Package allocation assigns streets to pharmacies and rebalances the
// resulting loads.
//
// Allocation happens in two strictly ordered steps. Build assigns every
// street to the pharmacy closest to it (squared euclidean distance, first
// pharmacy in input order wins ties) and returns a Partition. A Rebalancer
// then runs a fixed number of rounds over that Partition; each round moves
// streets from loaded pharmacies to the least loaded pharmacy below the
// target load, one street per pharmacy and per round.
//
// Engine wraps both steps into a single unit of work and returns immutable
// report tables. A Partition is never shared outside of one Allocate call.
package allocation
