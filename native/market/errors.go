package market

import coreerrors "assetledger/core/errors"

var (
	ErrInvalidCommission    = coreerrors.ErrInvalidCommission
	ErrInvalidRoyalty       = coreerrors.ErrInvalidRoyalty
	ErrInvalidTokenQuantity = coreerrors.ErrInvalidTokenQuantity
	ErrTokenNotListed       = coreerrors.ErrTokenNotListed
	ErrTokenNotInCustody    = coreerrors.ErrTokenNotInCustody
	ErrInvokeTransfer       = coreerrors.ErrInvokeTransfer
	ErrOverflow             = coreerrors.ErrOverflow
)
