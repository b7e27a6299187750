package state

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"
)

// Manager layers RLP records and index lists over a KV. Components receive a
// Manager scoped to their own key prefix.
type Manager struct {
	kv     KV
	prefix []byte
}

// NewManager creates a state manager operating on the provided KV.
func NewManager(kv KV) *Manager {
	return &Manager{kv: kv}
}

// Sub returns a manager whose keys are prefixed with the provided string.
func (m *Manager) Sub(prefix string) *Manager {
	joined := make([]byte, len(m.prefix)+len(prefix))
	copy(joined, m.prefix)
	copy(joined[len(m.prefix):], prefix)
	return &Manager{kv: m.kv, prefix: joined}
}

// KV exposes the underlying store.
func (m *Manager) KV() KV {
	return m.kv
}

func (m *Manager) key(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("kv: key must not be empty")
	}
	buf := make([]byte, len(m.prefix)+len(key))
	copy(buf, m.prefix)
	copy(buf[len(m.prefix):], key)
	return buf, nil
}

// KVPut encodes the value using RLP and stores it under the supplied key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	full, err := m.key(key)
	if err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.kv.Put(full, encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	full, err := m.key(key)
	if err != nil {
		return false, err
	}
	data, err := m.kv.Get(full)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the key.
func (m *Manager) KVDelete(key []byte) error {
	full, err := m.key(key)
	if err != nil {
		return err
	}
	return m.kv.Delete(full)
}

// KVAppend appends the provided value to the RLP-encoded byte slice list stored
// under the supplied key. Duplicate values are ignored to keep the index
// deterministic.
func (m *Manager) KVAppend(key []byte, value []byte) error {
	list, err := m.KVList(key)
	if err != nil {
		return err
	}
	for _, existing := range list {
		if bytes.Equal(existing, value) {
			return nil
		}
	}
	list = append(list, append([]byte(nil), value...))
	return m.KVPut(key, list)
}

// KVRemove drops a value from an index list, deleting the list once empty.
func (m *Manager) KVRemove(key []byte, value []byte) error {
	list, err := m.KVList(key)
	if err != nil {
		return err
	}
	filtered := list[:0]
	for _, existing := range list {
		if !bytes.Equal(existing, value) {
			filtered = append(filtered, existing)
		}
	}
	if len(filtered) == len(list) {
		return nil
	}
	if len(filtered) == 0 {
		return m.KVDelete(key)
	}
	return m.KVPut(key, filtered)
}

// KVList returns the index list stored under the key, or an empty list.
func (m *Manager) KVList(key []byte) ([][]byte, error) {
	list := [][]byte{}
	if _, err := m.KVGet(key, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// KVGetList retrieves an RLP-encoded slice stored under the provided key and
// decodes it into the supplied destination slice pointer. When no value is
// present the destination is initialised with an empty slice.
func (m *Manager) KVGetList(key []byte, out interface{}) error {
	ok, err := m.KVGet(key, out)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	val := reflect.ValueOf(out)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("kv: destination must be a non-nil pointer")
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Slice {
		return fmt.Errorf("kv: destination must point to a slice")
	}
	elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
	return nil
}
