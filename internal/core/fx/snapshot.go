// Package fx builds exchange-rate snapshots from stored forex quotes and
// resolves currency conversions against them.
//
// A Snapshot is immutable once built and safe to share across concurrent
// readers without locking. All arithmetic is plain float64; nothing in this
// package rounds amounts, blocks, or performs I/O.
package fx

import (
	"sort"
	"strings"
)

// Quote is a single stored forex quote, already reduced by the quote store to
// the latest entry at-or-before the caller's cutoff for its symbol.
type Quote struct {
	Symbol string  // "FROM/TO", e.g. "EUR/USD"
	Rate   float64 // ask price of the quoted pair
	AsOf   int64   // unix seconds
}

// Pair identifies a directed currency pair and is the snapshot lookup key.
// Keying on a struct rather than a concatenated string keeps malformed or
// inconsistently joined pair strings out of the table.
type Pair struct {
	From string
	To   string
}

// entry is a resolved rate plus the provenance it should be reported with:
// SourceDirect for a rate quoted as-is, SourceReverse for the stored inverse
// of a quoted rate, SourceCross for anything derived by composing two rates.
type entry struct {
	rate   float64
	origin Source
}

// Snapshot is an immutable rate table built for one as-of instant.
type Snapshot struct {
	entries map[Pair]entry
	pairs   []Pair // all keys, sorted, so scans are deterministic
}

// BuildSnapshot folds quotes into a snapshot.
//
// Every parseable quote contributes FROM/TO at its quoted rate and TO/FROM at
// the reciprocal; later quotes for the same symbol overwrite earlier ones.
// Quotes whose symbol has no "/" separator are silently skipped. A second
// pass derives single-hop cross rates: for entries A/B and B/C with A != C
// and no A/C yet, it inserts A/C and C/A. The pass is quadratic over the
// quoted entries and deliberately not a shortest-path search; the first
// intermediate in sorted pair order wins, and already present entries are
// never overwritten, so quoted rates always beat derived ones.
func BuildSnapshot(quotes []Quote) *Snapshot {
	entries := make(map[Pair]entry)
	for _, q := range quotes {
		from, to, ok := strings.Cut(q.Symbol, "/")
		if !ok {
			continue
		}
		entries[Pair{From: from, To: to}] = entry{rate: q.Rate, origin: SourceDirect}
		entries[Pair{From: to, To: from}] = entry{rate: 1.0 / q.Rate, origin: SourceReverse}
	}

	quoted := sortedPairs(entries)
	for _, p1 := range quoted {
		r1 := entries[p1].rate
		for _, p2 := range quoted {
			if p1.To != p2.From || p1.From == p2.To {
				continue
			}
			cross := Pair{From: p1.From, To: p2.To}
			if _, exists := entries[cross]; exists {
				continue
			}
			combined := r1 * entries[p2].rate
			entries[cross] = entry{rate: combined, origin: SourceCross}
			entries[Pair{From: p2.To, To: p1.From}] = entry{rate: 1.0 / combined, origin: SourceCross}
		}
	}

	return &Snapshot{entries: entries, pairs: sortedPairs(entries)}
}

// PairRate is one directed pair with its stored rate and provenance.
type PairRate struct {
	Pair   Pair
	Rate   float64
	Source Source
}

// Entries returns every directed pair in the snapshot in sorted order.
func (s *Snapshot) Entries() []PairRate {
	if s == nil {
		return nil
	}
	out := make([]PairRate, 0, len(s.pairs))
	for _, p := range s.pairs {
		e := s.entries[p]
		out = append(out, PairRate{Pair: p, Rate: e.rate, Source: e.origin})
	}
	return out
}

// Rate returns the stored rate for the directed pair, if present.
func (s *Snapshot) Rate(from, to string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	e, ok := s.entries[Pair{From: from, To: to}]
	return e.rate, ok
}

// Len reports the number of directed pairs in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

func sortedPairs(entries map[Pair]entry) []Pair {
	pairs := make([]Pair, 0, len(entries))
	for p := range entries {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].From != pairs[j].From {
			return pairs[i].From < pairs[j].From
		}
		return pairs[i].To < pairs[j].To
	})
	return pairs
}
