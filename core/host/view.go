package host

import (
	"errors"

	coreerrors "assetledger/core/errors"
	"assetledger/storage"
)

// readView reads straight from the database outside of a transaction.
type readView struct {
	db storage.Database
}

func (r *readView) Get(key []byte) ([]byte, error) {
	value, err := r.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

func (*readView) Put([]byte, []byte) error { return coreerrors.ErrReadOnly }
func (*readView) Delete([]byte) error      { return coreerrors.ErrReadOnly }
