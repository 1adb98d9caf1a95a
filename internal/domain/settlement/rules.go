// Package settlement decides how the ledger must change so that every
// settled payable record is mirrored by exactly one ledger entry.
package settlement

import (
	"github.com/google/uuid"
	"github.com/opsledger/backend/internal/domain/finance"
	"github.com/opsledger/backend/internal/domain/shared"
)

// Action is the ledger mutation a decision asks for
type Action string

const (
	ActionNoop   Action = "NOOP"
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// State is a record's settlement view: whether it must be mirrored and,
// if so, the entry that mirrors it.
type State struct {
	Settled bool
	Draft   finance.EntryDraft
}

// Decision is the outcome of Decide
type Decision struct {
	Action   Action
	Draft    finance.EntryDraft
	Existing *finance.LedgerEntry
}

// Decide compares a record's state with the entry currently linked to it.
// A settled record without an entry gets one even when it was already
// settled before the change, which repairs a missing mirror.
func Decide(state State, existing *finance.LedgerEntry) Decision {
	switch {
	case state.Settled && existing == nil:
		return Decision{Action: ActionCreate, Draft: state.Draft}
	case state.Settled && existing.Matches(state.Draft):
		return Decision{Action: ActionNoop, Existing: existing}
	case state.Settled:
		return Decision{Action: ActionUpdate, Draft: state.Draft, Existing: existing}
	case existing != nil:
		return Decision{Action: ActionDelete, Existing: existing}
	default:
		return Decision{Action: ActionNoop}
	}
}

// SingleEntry returns the only entry in entries, nil when there is none,
// and a ledger invariant error when a record is referenced more than once.
func SingleEntry(kind string, id uuid.UUID, entries []finance.LedgerEntry) (*finance.LedgerEntry, error) {
	switch len(entries) {
	case 0:
		return nil, nil
	case 1:
		return &entries[0], nil
	default:
		return nil, shared.NewLedgerInvariantError(kind, id, len(entries))
	}
}
