package state

import (
	"errors"
	"sort"

	"assetledger/storage"
)

type overlayEntry struct {
	value   []byte
	deleted bool
}

type journalEntry struct {
	key     string
	prev    overlayEntry
	present bool
}

// Overlay buffers writes on top of a database. Every write is journaled so a
// failed nested call can be rolled back to a snapshot, and Commit lands all
// buffered writes in one batch.
type Overlay struct {
	base    storage.Database
	dirty   map[string]overlayEntry
	journal []journalEntry
}

// NewOverlay creates an empty overlay above the provided database.
func NewOverlay(base storage.Database) *Overlay {
	return &Overlay{base: base, dirty: make(map[string]overlayEntry)}
}

// Get returns the buffered value when present, falling back to the database.
func (o *Overlay) Get(key []byte) ([]byte, error) {
	if entry, ok := o.dirty[string(key)]; ok {
		if entry.deleted {
			return nil, nil
		}
		return append([]byte(nil), entry.value...), nil
	}
	value, err := o.base.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (o *Overlay) record(key string) {
	prev, present := o.dirty[key]
	o.journal = append(o.journal, journalEntry{key: key, prev: prev, present: present})
}

func (o *Overlay) Put(key, value []byte) error {
	k := string(key)
	o.record(k)
	o.dirty[k] = overlayEntry{value: append([]byte(nil), value...)}
	return nil
}

func (o *Overlay) Delete(key []byte) error {
	k := string(key)
	o.record(k)
	o.dirty[k] = overlayEntry{deleted: true}
	return nil
}

// Snapshot returns an identifier for the current journal position.
func (o *Overlay) Snapshot() int {
	return len(o.journal)
}

// RevertTo undoes every write recorded after the snapshot was taken.
func (o *Overlay) RevertTo(snapshot int) {
	if snapshot < 0 {
		snapshot = 0
	}
	for i := len(o.journal) - 1; i >= snapshot; i-- {
		entry := o.journal[i]
		if entry.present {
			o.dirty[entry.key] = entry.prev
		} else {
			delete(o.dirty, entry.key)
		}
	}
	if snapshot < len(o.journal) {
		o.journal = o.journal[:snapshot]
	}
}

// Dirty reports how many keys are buffered.
func (o *Overlay) Dirty() int {
	return len(o.dirty)
}

// Commit writes all buffered changes atomically and resets the overlay.
func (o *Overlay) Commit() error {
	if len(o.dirty) == 0 {
		o.journal = nil
		return nil
	}
	keys := make([]string, 0, len(o.dirty))
	for k := range o.dirty {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	batch := storage.NewBatch()
	for _, k := range keys {
		entry := o.dirty[k]
		if entry.deleted {
			batch.Delete([]byte(k))
			continue
		}
		batch.Put([]byte(k), entry.value)
	}
	if err := o.base.Write(batch); err != nil {
		return err
	}
	o.Discard()
	return nil
}

// Discard drops all buffered changes.
func (o *Overlay) Discard() {
	o.dirty = make(map[string]overlayEntry)
	o.journal = nil
}
