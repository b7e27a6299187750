package ledger

import coreerrors "assetledger/core/errors"

var (
	ErrInvalidTokenID     = coreerrors.ErrInvalidTokenID
	ErrInsufficientFunds  = coreerrors.ErrInsufficientFunds
	ErrOverflow           = coreerrors.ErrOverflow
	ErrTokenAlreadyMinted = coreerrors.ErrTokenAlreadyMinted
)
