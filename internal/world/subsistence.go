package world

import (
	"context"

	"manifestsim/logging/subsistence"
)

// subsistence.go implements the ranked in-kind yield curve shared by the
// optional subsistence-in-kind injection and the subsistence-reservation
// wage floor consulted by the labor market.

// subsistenceYield returns q(rank) = q_max / (1 + alpha*(rank-1)), strictly
// decreasing in rank: q(rank_i) >= q(rank_j) for i < j.
func subsistenceYield(rank int, t Tunables) Quantity {
	if rank < 1 {
		rank = 1
	}
	return t.SubsistenceQMax / (1 + t.SubsistenceAlpha*float64(rank-1))
}

// InjectSubsistence adds ranked in-kind grain yields directly to the stocks
// of every unemployed pop at the settlement, when SubsistenceInKind is
// enabled. Pops are ranked by ascending ID for determinism.
func (w *World) InjectSubsistence(ctx context.Context, tick uint64, s *Settlement) {
	t := w.config.Tunables
	if !t.SubsistenceInKind {
		return
	}

	var unemployed []PopID
	for _, pid := range w.popIDsSorted(s.Pops) {
		if !w.pops[pid].Employed() {
			unemployed = append(unemployed, pid)
		}
	}

	for i, pid := range unemployed {
		rank := i + 1
		q := subsistenceYield(rank, t)
		pop := w.pops[pid]
		AddGood(pop.Stocks, w.grainGood, q)
		subsistence.SubsistenceInjected(ctx, w.publisher, tick, entityRef(entityKindPop, string(pid)), subsistence.SubsistenceInjectedPayload{
			Good: string(w.grainGood), Rank: rank, Quantity: q,
		}, nil)
	}
}
