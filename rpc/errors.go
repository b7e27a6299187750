package rpc

import (
	"errors"

	coreerrors "assetledger/core/errors"
)

// ErrorData accompanies contract failures so clients can branch on the
// error code rather than the message.
type ErrorData struct {
	Kind string `json:"kind"`
	Code string `json:"code"`
}

func invalidParams(err error) *RPCError {
	return &RPCError{Code: codeInvalidParams, Message: err.Error()}
}

// contractError maps a classified failure onto a JSON-RPC error.
func contractError(err error) *RPCError {
	kind := coreerrors.KindOf(err)
	code := codeServerError
	switch kind {
	case coreerrors.KindParse:
		code = codeInvalidParams
	case coreerrors.KindAuthorization:
		code = codeUnauthorized
	case coreerrors.KindDomain:
		code = codeContractRejected
	case coreerrors.KindCollaborator:
		code = codeCollaborator
	}
	if kind == coreerrors.KindFatal &&
		(errors.Is(err, coreerrors.ErrUnknownContract) || errors.Is(err, coreerrors.ErrUnknownEntrypoint)) {
		code = codeInvalidParams
	}
	return &RPCError{
		Code:    code,
		Message: err.Error(),
		Data:    ErrorData{Kind: kind.String(), Code: coreerrors.CodeOf(err)},
	}
}
