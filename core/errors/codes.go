package errors

// common errors - keep grouped by kind
var (
	ErrParseParams  = New(KindParse, "ParseParams", "failed to parse parameters")
	ErrParseResult  = New(KindParse, "ParseResult", "failed to parse contract result")
	ErrLogMalformed = New(KindParse, "LogMalformed", "malformed event")

	ErrUnauthorized      = New(KindAuthorization, "Unauthorized", "unauthorized")
	ErrAccountsOnly      = New(KindAuthorization, "AccountsOnly", "only accounts may call this entrypoint")
	ErrContractOnly      = New(KindAuthorization, "ContractOnly", "only contracts may call this entrypoint")
	ErrCalledByAContract = New(KindAuthorization, "CalledByAContract", "called by a contract")
	ErrCalledByAnAccount = New(KindAuthorization, "CalledByAnAccount", "called by an account")

	ErrInvalidTokenID        = New(KindDomain, "InvalidTokenId", "invalid token id")
	ErrInsufficientFunds     = New(KindDomain, "InsufficientFunds", "insufficient funds")
	ErrInvalidCollateral     = New(KindDomain, "InvalidCollateral", "invalid collateral")
	ErrTokenAlreadyMinted    = New(KindDomain, "TokenAlreadyMinted", "token already minted")
	ErrNoBalanceToBurn       = New(KindDomain, "NoBalanceToBurn", "no balance to burn")
	ErrTokenNotMature        = New(KindDomain, "TokenNotMature", "token not mature")
	ErrTokenNotVerified      = New(KindDomain, "TokenNotVerified", "token not verified")
	ErrTokenVerifiedOrMature = New(KindDomain, "TokenVerifiedOrMature", "token verified or mature")
	ErrInvalidCommission     = New(KindDomain, "InvalidCommission", "invalid commission")
	ErrInvalidRoyalty        = New(KindDomain, "InvalidRoyalty", "invalid royalty")
	ErrInvalidTokenQuantity  = New(KindDomain, "InvalidTokenQuantity", "invalid token quantity")
	ErrTokenNotListed        = New(KindDomain, "TokenNotListed", "token not listed")
	ErrTokenNotInCustody     = New(KindDomain, "TokenNotInCustody", "token not in custody")
	ErrInvalidAmountPaid     = New(KindDomain, "InvalidAmountPaid", "invalid amount paid")
	ErrInsufficientCCD       = New(KindDomain, "InsufficientCCD", "insufficient native balance")
	ErrOverflow              = New(KindDomain, "Overflow", "arithmetic overflow")
	ErrNotImplemented        = New(KindDomain, "NotImplemented", "not implemented")

	ErrInvokeContract   = New(KindCollaborator, "InvokeContractError", "contract invocation failed")
	ErrInvokeTransfer   = New(KindCollaborator, "InvokeTransferError", "native transfer failed")
	ErrCIS2NotSupported = New(KindCollaborator, "CIS2NotSupported", "contract does not support CIS-2")

	ErrLogFull           = New(KindFatal, "LogFull", "event log is full")
	ErrCallDepthExceeded = New(KindFatal, "CallDepthExceeded", "call depth exceeded")
	ErrReadOnly          = New(KindFatal, "ReadOnly", "state is read-only")
	ErrUnknownContract   = New(KindFatal, "UnknownContract", "unknown contract")
	ErrUnknownEntrypoint = New(KindFatal, "UnknownEntrypoint", "unknown entrypoint")
)
