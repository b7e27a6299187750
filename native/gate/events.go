package gate

import (
	"strconv"

	"assetledger/core/types"
)

const (
	EventTypeVerifierAdded   = "gate.verifier_added"
	EventTypeVerifierRemoved = "gate.verifier_removed"
	EventTypeVerification    = "gate.verified"
	EventTypeMaturityTime    = "gate.maturity_time"
	EventTypeRetire          = "gate.retired"
	EventTypeRetract         = "gate.retracted"
)

// NewVerifierAddedEvent returns the payload emitted when a verifier joins the set.
func NewVerifierAddedEvent(verifier types.Address) *types.Event {
	return &types.Event{Type: EventTypeVerifierAdded, Attributes: map[string]string{"verifier": verifier.String()}}
}

// NewVerifierRemovedEvent returns the payload emitted when a verifier leaves the set.
func NewVerifierRemovedEvent(verifier types.Address) *types.Event {
	return &types.Event{Type: EventTypeVerifierRemoved, Attributes: map[string]string{"verifier": verifier.String()}}
}

func NewVerificationEvent(id types.TokenID, verifier types.Address) *types.Event {
	return &types.Event{
		Type: EventTypeVerification,
		Attributes: map[string]string{
			"tokenId":  id.String(),
			"verifier": verifier.String(),
		},
	}
}

func NewMaturityTimeEvent(id types.TokenID, ts types.Timestamp) *types.Event {
	return &types.Event{
		Type: EventTypeMaturityTime,
		Attributes: map[string]string{
			"tokenId":      id.String(),
			"maturityTime": strconv.FormatUint(uint64(ts), 10),
		},
	}
}

func newBurnPathEvent(eventType string, id types.TokenID, amount types.Amount, owner types.Address) *types.Event {
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"tokenId": id.String(),
			"amount":  strconv.FormatUint(uint64(amount), 10),
			"owner":   owner.String(),
		},
	}
}

// NewRetireEvent records a permanent, value-realizing burn.
func NewRetireEvent(id types.TokenID, amount types.Amount, owner types.Address) *types.Event {
	return newBurnPathEvent(EventTypeRetire, id, amount, owner)
}

// NewRetractEvent records a corrective burn of an immature or unverified token.
func NewRetractEvent(id types.TokenID, amount types.Amount, owner types.Address) *types.Event {
	return newBurnPathEvent(EventTypeRetract, id, amount, owner)
}
