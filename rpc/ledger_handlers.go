package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"assetledger/core/host"
	"assetledger/core/types"
)

const (
	defaultEventsLimit = 100
	maxEventsLimit     = 1000
)

type deployRequest struct {
	Code   string               `json:"code"`
	Owner  types.AccountAddress `json:"owner"`
	Params json.RawMessage      `json:"params,omitempty"`
}

type deployResult struct {
	Address types.ContractAddress `json:"address"`
}

type callRequest struct {
	Invoker    types.AccountAddress  `json:"invoker"`
	Contract   types.ContractAddress `json:"contract"`
	Entrypoint string                `json:"entrypoint"`
	Params     json.RawMessage       `json:"params,omitempty"`
	Amount     types.Amount          `json:"amount,omitempty"`
}

type invokeResult struct {
	Return interface{} `json:"return"`
}

type eventsRequest struct {
	From  uint64 `json:"from"`
	Limit int    `json:"limit,omitempty"`
}

type eventsResult struct {
	Events []host.LoggedEvent `json:"events"`
	Next   uint64             `json:"next"`
}

type balanceRequest struct {
	Account  *types.AccountAddress  `json:"account,omitempty"`
	Contract *types.ContractAddress `json:"contract,omitempty"`
}

type balanceResult struct {
	Balance types.Amount `json:"balance"`
}

type instanceRequest struct {
	Contract types.ContractAddress `json:"contract"`
}

func decodeParams(raw json.RawMessage, dst interface{}) *RPCError {
	if len(raw) == 0 {
		return &RPCError{Code: codeInvalidParams, Message: "params required"}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "invalid params", Data: err.Error()}
	}
	return nil
}

func (s *Server) handleDeploy(_ context.Context, raw json.RawMessage) (interface{}, *RPCError) {
	var req deployRequest
	if rpcErr := decodeParams(raw, &req); rpcErr != nil {
		return nil, rpcErr
	}
	if req.Code == "" {
		return nil, invalidParams(fmt.Errorf("code required"))
	}
	if req.Owner.IsZero() {
		return nil, invalidParams(fmt.Errorf("owner required"))
	}
	param, err := s.chain.DecodeParam(req.Code, nil, "init", req.Params)
	if err != nil {
		return nil, contractError(err)
	}
	addr, err := s.chain.Deploy(req.Owner, req.Code, param)
	if err != nil {
		return nil, contractError(err)
	}
	return deployResult{Address: addr}, nil
}

func (s *Server) decodeCall(raw json.RawMessage) (*callRequest, interface{}, *RPCError) {
	var req callRequest
	if rpcErr := decodeParams(raw, &req); rpcErr != nil {
		return nil, nil, rpcErr
	}
	if req.Entrypoint == "" {
		return nil, nil, invalidParams(fmt.Errorf("entrypoint required"))
	}
	if req.Invoker.IsZero() {
		return nil, nil, invalidParams(fmt.Errorf("invoker required"))
	}
	param, err := s.chain.DecodeParam("", &req.Contract, req.Entrypoint, req.Params)
	if err != nil {
		return nil, nil, contractError(err)
	}
	return &req, param, nil
}

func (s *Server) handleUpdate(ctx context.Context, raw json.RawMessage) (interface{}, *RPCError) {
	req, param, rpcErr := s.decodeCall(raw)
	if rpcErr != nil {
		return nil, rpcErr
	}
	receipt, err := s.chain.UpdateContext(ctx, req.Invoker, req.Contract, req.Entrypoint, param, req.Amount)
	if err != nil {
		return nil, contractError(err)
	}
	return receipt, nil
}

func (s *Server) handleInvoke(ctx context.Context, raw json.RawMessage) (interface{}, *RPCError) {
	req, param, rpcErr := s.decodeCall(raw)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if req.Amount != 0 {
		return nil, invalidParams(fmt.Errorf("amount is not accepted by read-only calls"))
	}
	ret, err := s.chain.InvokeContext(ctx, req.Invoker, req.Contract, req.Entrypoint, param)
	if err != nil {
		return nil, contractError(err)
	}
	return invokeResult{Return: ret}, nil
}

func (s *Server) handleEvents(_ context.Context, raw json.RawMessage) (interface{}, *RPCError) {
	req := eventsRequest{}
	if len(raw) > 0 {
		if rpcErr := decodeParams(raw, &req); rpcErr != nil {
			return nil, rpcErr
		}
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultEventsLimit
	}
	if limit > maxEventsLimit {
		limit = maxEventsLimit
	}
	events, err := s.chain.Events(req.From, limit)
	if err != nil {
		return nil, contractError(err)
	}
	next := req.From
	if n := len(events); n > 0 {
		next = events[n-1].Position + 1
	}
	if events == nil {
		events = []host.LoggedEvent{}
	}
	return eventsResult{Events: events, Next: next}, nil
}

func (s *Server) handleBalance(_ context.Context, raw json.RawMessage) (interface{}, *RPCError) {
	var req balanceRequest
	if rpcErr := decodeParams(raw, &req); rpcErr != nil {
		return nil, rpcErr
	}
	var (
		balance types.Amount
		err     error
	)
	switch {
	case req.Account != nil && req.Contract != nil:
		return nil, invalidParams(fmt.Errorf("specify either account or contract"))
	case req.Account != nil:
		balance, err = s.chain.Balance(*req.Account)
	case req.Contract != nil:
		balance, err = s.chain.ContractBalance(*req.Contract)
	default:
		return nil, invalidParams(fmt.Errorf("account or contract required"))
	}
	if err != nil {
		return nil, contractError(err)
	}
	return balanceResult{Balance: balance}, nil
}

func (s *Server) handleInstance(_ context.Context, raw json.RawMessage) (interface{}, *RPCError) {
	var req instanceRequest
	if rpcErr := decodeParams(raw, &req); rpcErr != nil {
		return nil, rpcErr
	}
	inst, err := s.chain.Instance(req.Contract)
	if err != nil {
		return nil, contractError(err)
	}
	return inst, nil
}

func (s *Server) handleCodes(context.Context, json.RawMessage) (interface{}, *RPCError) {
	return s.chain.Codes(), nil
}
