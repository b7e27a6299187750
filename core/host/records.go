package host

import (
	"encoding/binary"
	"math/bits"

	coreerrors "assetledger/core/errors"
	"assetledger/core/state"
	"assetledger/core/types"
)

var (
	nextInstanceKey = []byte("registry/next")
	instancePrefix  = []byte("registry/instance/")
	balancePrefix   = []byte("balance/")
	nextSeqKey      = []byte("log/seq")
	nextEventKey    = []byte("log/next")
	eventPrefix     = []byte("log/event/")
)

// Instance describes a deployed contract.
type Instance struct {
	Address types.ContractAddress `json:"address"`
	Name    string                `json:"name"`
	Owner   types.AccountAddress  `json:"owner"`
}

// LoggedEvent is a committed event with its position in the chain log.
type LoggedEvent struct {
	Position   uint64                `json:"position"`
	Seq        uint64                `json:"seq"`
	Index      uint32                `json:"index"`
	Contract   types.ContractAddress `json:"contract"`
	Type       string                `json:"type"`
	Attributes map[string]string     `json:"attributes"`
}

type storedEvent struct {
	Seq      uint64
	Index    uint32
	Contract types.ContractAddress
	Type     string
	Keys     []string
	Values   []string
}

func instanceKey(addr types.ContractAddress) []byte {
	buf := make([]byte, len(instancePrefix)+16)
	copy(buf, instancePrefix)
	binary.BigEndian.PutUint64(buf[len(instancePrefix):], addr.Index)
	binary.BigEndian.PutUint64(buf[len(instancePrefix)+8:], addr.SubIndex)
	return buf
}

func balanceKey(addr types.Address) []byte {
	raw := addr.Bytes()
	buf := make([]byte, len(balancePrefix)+len(raw))
	copy(buf, balancePrefix)
	copy(buf[len(balancePrefix):], raw)
	return buf
}

func eventKey(position uint64) []byte {
	buf := make([]byte, len(eventPrefix)+8)
	copy(buf, eventPrefix)
	binary.BigEndian.PutUint64(buf[len(eventPrefix):], position)
	return buf
}

// ledgerState wraps the host namespace of one transaction.
type ledgerState struct {
	mgr *state.Manager
}

func newLedgerState(kv state.KV) ledgerState {
	return ledgerState{mgr: state.NewManager(state.HostNamespace(kv))}
}

func (l ledgerState) counter(key []byte) (uint64, error) {
	var v uint64
	if _, err := l.mgr.KVGet(key, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func (l ledgerState) instance(addr types.ContractAddress) (*Instance, error) {
	inst := new(Instance)
	ok, err := l.mgr.KVGet(instanceKey(addr), inst)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, coreerrors.Wrap(coreerrors.ErrUnknownContract, "%s", addr)
	}
	return inst, nil
}

func (l ledgerState) allocate(name string, owner types.AccountAddress) (*Instance, error) {
	next, err := l.counter(nextInstanceKey)
	if err != nil {
		return nil, err
	}
	inst := &Instance{Address: types.ContractAddress{Index: next}, Name: name, Owner: owner}
	if err := l.mgr.KVPut(instanceKey(inst.Address), inst); err != nil {
		return nil, err
	}
	if err := l.mgr.KVPut(nextInstanceKey, next+1); err != nil {
		return nil, err
	}
	return inst, nil
}

func (l ledgerState) balance(addr types.Address) (types.Amount, error) {
	var v uint64
	if _, err := l.mgr.KVGet(balanceKey(addr), &v); err != nil {
		return 0, err
	}
	return types.Amount(v), nil
}

func (l ledgerState) setBalance(addr types.Address, amount types.Amount) error {
	if amount == 0 {
		return l.mgr.KVDelete(balanceKey(addr))
	}
	return l.mgr.KVPut(balanceKey(addr), uint64(amount))
}

func (l ledgerState) credit(addr types.Address, amount types.Amount) error {
	current, err := l.balance(addr)
	if err != nil {
		return err
	}
	sum, carry := bits.Add64(uint64(current), uint64(amount), 0)
	if carry != 0 {
		return coreerrors.Wrap(coreerrors.ErrOverflow, "balance of %s", addr)
	}
	return l.setBalance(addr, types.Amount(sum))
}

func (l ledgerState) move(from, to types.Address, amount types.Amount) error {
	if amount == 0 {
		return nil
	}
	current, err := l.balance(from)
	if err != nil {
		return err
	}
	if current < amount {
		return coreerrors.Wrap(coreerrors.ErrInsufficientCCD, "%s holds %d, needs %d", from, current, amount)
	}
	if err := l.setBalance(from, current-amount); err != nil {
		return err
	}
	return l.credit(to, amount)
}

// appendEvents persists the events of one committed call and returns the
// sequence number assigned to it.
func (l ledgerState) appendEvents(events []LoggedEvent) (uint64, error) {
	seq, err := l.counter(nextSeqKey)
	if err != nil {
		return 0, err
	}
	position, err := l.counter(nextEventKey)
	if err != nil {
		return 0, err
	}
	for i := range events {
		evt := &events[i]
		evt.Seq = seq
		evt.Position = position
		evt.Index = uint32(i)
		stored := storedEvent{Seq: seq, Index: evt.Index, Contract: evt.Contract, Type: evt.Type}
		for _, k := range (&types.Event{Attributes: evt.Attributes}).AttributeKeys() {
			stored.Keys = append(stored.Keys, k)
			stored.Values = append(stored.Values, evt.Attributes[k])
		}
		if err := l.mgr.KVPut(eventKey(position), stored); err != nil {
			return 0, err
		}
		position++
	}
	if err := l.mgr.KVPut(nextEventKey, position); err != nil {
		return 0, err
	}
	if err := l.mgr.KVPut(nextSeqKey, seq+1); err != nil {
		return 0, err
	}
	return seq, nil
}

func (l ledgerState) events(from uint64, limit int) ([]LoggedEvent, error) {
	end, err := l.counter(nextEventKey)
	if err != nil {
		return nil, err
	}
	out := make([]LoggedEvent, 0)
	for pos := from; pos < end && (limit <= 0 || len(out) < limit); pos++ {
		var stored storedEvent
		ok, err := l.mgr.KVGet(eventKey(pos), &stored)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		attrs := make(map[string]string, len(stored.Keys))
		for i, k := range stored.Keys {
			if i < len(stored.Values) {
				attrs[k] = stored.Values[i]
			}
		}
		out = append(out, LoggedEvent{
			Position:   pos,
			Seq:        stored.Seq,
			Index:      stored.Index,
			Contract:   stored.Contract,
			Type:       stored.Type,
			Attributes: attrs,
		})
	}
	return out, nil
}
