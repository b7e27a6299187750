package cis2

import (
	"errors"
	"testing"

	coreerrors "assetledger/core/errors"
	"assetledger/core/types"
)

type recordedCall struct {
	to         types.ContractAddress
	entrypoint string
	param      any
	readOnly   bool
}

type fakeInvoker struct {
	responses map[string]any
	failures  map[string]error
	calls     []recordedCall
}

func newFakeInvoker() *fakeInvoker {
	return &fakeInvoker{responses: map[string]any{}, failures: map[string]error{}}
}

func (f *fakeInvoker) respond(to types.ContractAddress, entrypoint string) (any, error) {
	key := to.String() + "." + entrypoint
	if err, ok := f.failures[key]; ok {
		return nil, err
	}
	return f.responses[key], nil
}

func (f *fakeInvoker) InvokeContract(to types.ContractAddress, entrypoint string, param any, _ types.Amount) (any, error) {
	f.calls = append(f.calls, recordedCall{to: to, entrypoint: entrypoint, param: param})
	return f.respond(to, entrypoint)
}

func (f *fakeInvoker) InvokeContractReadOnly(to types.ContractAddress, entrypoint string, param any) (any, error) {
	f.calls = append(f.calls, recordedCall{to: to, entrypoint: entrypoint, param: param, readOnly: true})
	return f.respond(to, entrypoint)
}

var (
	token   = types.ContractAddress{Index: 3}
	proxied = types.ContractAddress{Index: 4}
	alice   = types.AccountOf(types.AccountFromSeed("alice"))
	bob     = types.AccountFromSeed("bob")
)

func TestTransferChecksSupportFirst(t *testing.T) {
	inv := newFakeInvoker()
	inv.responses[token.String()+".supports"] = SupportsResponse{{Kind: Support}}
	client := NewClient(inv)

	if err := client.Transfer(1, token, 5, alice, AccountReceiver(bob), nil); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if len(inv.calls) != 2 || inv.calls[0].entrypoint != EntrypointSupports || inv.calls[1].entrypoint != EntrypointTransfer {
		t.Fatalf("unexpected call sequence %+v", inv.calls)
	}
	params := inv.calls[1].param.(TransferParams)
	if params[0].Amount != 5 || params[0].To.Address != types.AccountOf(bob) {
		t.Fatalf("unexpected transfer params %+v", params)
	}
}

func TestTransferFollowsSupportBy(t *testing.T) {
	inv := newFakeInvoker()
	inv.responses[token.String()+".supports"] = SupportsResponse{{Kind: SupportBy, By: []types.ContractAddress{proxied}}}
	client := NewClient(inv)
	if err := client.Transfer(1, token, 5, alice, AccountReceiver(bob), nil); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if inv.calls[1].to != proxied {
		t.Fatalf("expected transfer on redirected contract, got %s", inv.calls[1].to)
	}
}

func TestTransferRejectsUnsupported(t *testing.T) {
	inv := newFakeInvoker()
	inv.responses[token.String()+".supports"] = SupportsResponse{{Kind: NoSupport}}
	err := NewClient(inv).Transfer(1, token, 5, alice, AccountReceiver(bob), nil)
	if !errors.Is(err, coreerrors.ErrCIS2NotSupported) {
		t.Fatalf("expected CIS2NotSupported, got %v", err)
	}
	if len(inv.calls) != 1 {
		t.Fatalf("transfer must not be attempted")
	}
}

func TestQueriesRejectMalformedResults(t *testing.T) {
	inv := newFakeInvoker()
	inv.responses[token.String()+".balanceOf"] = BalanceOfResponse{}
	inv.responses[token.String()+".isVerified"] = "yes"
	client := NewClient(inv)

	if _, err := client.BalanceOf(1, token, alice); !errors.Is(err, coreerrors.ErrParseResult) {
		t.Fatalf("expected ParseResult for empty response, got %v", err)
	}
	if _, err := client.IsVerified(1, token); !errors.Is(err, coreerrors.ErrParseResult) {
		t.Fatalf("expected ParseResult for mistyped response, got %v", err)
	}
	if _, err := client.MaturityOf(1, token); !errors.Is(err, coreerrors.ErrParseResult) {
		t.Fatalf("expected ParseResult for missing response, got %v", err)
	}
}

func TestQueriesSurfaceInvokeErrors(t *testing.T) {
	inv := newFakeInvoker()
	inv.failures[token.String()+".maturityOf"] = coreerrors.ErrInvokeContract
	_, err := NewClient(inv).MaturityOf(1, token)
	if !errors.Is(err, coreerrors.ErrInvokeContract) {
		t.Fatalf("expected InvokeContractError, got %v", err)
	}
	if !coreerrors.IsCollaborator(err) {
		t.Fatalf("expected collaborator classification")
	}
}

func TestQueriesDecodeResponses(t *testing.T) {
	inv := newFakeInvoker()
	inv.responses[token.String()+".balanceOf"] = BalanceOfResponse{42}
	inv.responses[token.String()+".operatorOf"] = OperatorOfResponse{true}
	inv.responses[token.String()+".maturityOf"] = MaturityOfResponse{1000}
	inv.responses[token.String()+".isVerifier"] = IsVerifierResponse{true}
	inv.responses[token.String()+".tokenMetadata"] = TokenMetadataResponse{{URL: "ipfs://x"}}
	client := NewClient(inv)

	if bal, err := client.BalanceOf(1, token, alice); err != nil || bal != 42 {
		t.Fatalf("balance: %d %v", bal, err)
	}
	if ok, err := client.IsOperatorOf(alice, types.AccountOf(bob), token); err != nil || !ok {
		t.Fatalf("operatorOf: %v %v", ok, err)
	}
	if ts, err := client.MaturityOf(1, token); err != nil || ts != 1000 {
		t.Fatalf("maturityOf: %d %v", ts, err)
	}
	if ok, err := client.IsVerifier(alice, token); err != nil || !ok {
		t.Fatalf("isVerifier: %v %v", ok, err)
	}
	if meta, err := client.TokenMetadata(1, token); err != nil || meta.URL != "ipfs://x" {
		t.Fatalf("tokenMetadata: %+v %v", meta, err)
	}
	for _, call := range inv.calls {
		if !call.readOnly {
			t.Fatalf("query %s issued as update", call.entrypoint)
		}
	}
}

func TestNotifyReceiverSkipsAccounts(t *testing.T) {
	inv := newFakeInvoker()
	client := NewClient(inv)
	if err := client.NotifyReceiver(AccountReceiver(bob), OnReceivingParams{}); err != nil {
		t.Fatalf("notify account: %v", err)
	}
	if len(inv.calls) != 0 {
		t.Fatalf("accounts must not be notified")
	}
	if err := client.NotifyReceiver(ContractReceiver(token, ""), OnReceivingParams{Amount: 1}); err != nil {
		t.Fatalf("notify contract: %v", err)
	}
	if inv.calls[0].entrypoint != EntrypointOnReceiving {
		t.Fatalf("unexpected hook %s", inv.calls[0].entrypoint)
	}
}

func TestSupportsStandards(t *testing.T) {
	resp := SupportsStandards(SupportsParams{"CIS-0", StandardIdentifier}, StandardIdentifier)
	if resp[0].Kind != NoSupport || resp[1].Kind != Support {
		t.Fatalf("unexpected support response %+v", resp)
	}
}

func TestAdditionalDataHex(t *testing.T) {
	var d AdditionalData
	if err := d.UnmarshalText([]byte("0x0a0b")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	text, _ := d.MarshalText()
	if string(text) != "0a0b" {
		t.Fatalf("unexpected hex %s", text)
	}
}
