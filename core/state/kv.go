package state

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	coreerrors "assetledger/core/errors"
	"assetledger/core/types"
)

// KV is the raw key/value surface exposed to contract code. Get returns a nil
// slice and no error when the key is absent.
type KV interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
}

var (
	contractPrefix = []byte("contract:")
	hostPrefix     = []byte("host:")
)

// namespaced isolates one owner's keys by hashing them under a fixed prefix.
type namespaced struct {
	kv     KV
	prefix []byte
}

func (n namespaced) key(key []byte) []byte {
	buf := make([]byte, len(n.prefix)+len(key))
	copy(buf, n.prefix)
	copy(buf[len(n.prefix):], key)
	return ethcrypto.Keccak256(buf)
}

func (n namespaced) Get(key []byte) ([]byte, error) { return n.kv.Get(n.key(key)) }
func (n namespaced) Put(key, value []byte) error    { return n.kv.Put(n.key(key), value) }
func (n namespaced) Delete(key []byte) error        { return n.kv.Delete(n.key(key)) }

// ContractNamespace returns the private key space of one contract instance.
func ContractNamespace(kv KV, addr types.ContractAddress) KV {
	prefix := make([]byte, len(contractPrefix)+16)
	copy(prefix, contractPrefix)
	binary.BigEndian.PutUint64(prefix[len(contractPrefix):], addr.Index)
	binary.BigEndian.PutUint64(prefix[len(contractPrefix)+8:], addr.SubIndex)
	return namespaced{kv: kv, prefix: prefix}
}

// HostNamespace returns the key space reserved for host bookkeeping such as
// the instance registry, native balances and the event log.
func HostNamespace(kv KV) KV {
	return namespaced{kv: kv, prefix: hostPrefix}
}

type readOnly struct {
	kv KV
}

func (r readOnly) Get(key []byte) ([]byte, error) { return r.kv.Get(key) }
func (readOnly) Put([]byte, []byte) error         { return coreerrors.ErrReadOnly }
func (readOnly) Delete([]byte) error              { return coreerrors.ErrReadOnly }

// ReadOnly wraps a KV so that every write fails with ErrReadOnly.
func ReadOnly(kv KV) KV {
	if ro, ok := kv.(readOnly); ok {
		return ro
	}
	return readOnly{kv: kv}
}
