package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"assetledger/contracts/projectnft"
	"assetledger/core/host"
	"assetledger/core/types"
	"assetledger/storage"
)

type recordedCall struct {
	method string
	status int
}

type recorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (r *recorder) Observe(method string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{method: method, status: status})
}

type fixture struct {
	t       *testing.T
	chain   *host.Chain
	metrics *recorder
	handler http.Handler
	owner   types.AccountAddress
	alice   types.AccountAddress
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	chain, err := host.NewChain(storage.NewMemDB())
	require.NoError(t, err)
	require.NoError(t, chain.Register(projectnft.Name, projectnft.New()))
	metrics := &recorder{}
	server := NewServer(chain, ServerConfig{AuthToken: token, Metrics: metrics})
	return &fixture{
		t:       t,
		chain:   chain,
		metrics: metrics,
		handler: server.Handler(),
		owner:   types.AccountFromSeed("owner"),
		alice:   types.AccountFromSeed("alice"),
	}
}

func (f *fixture) call(token, method string, params interface{}) (int, RPCResponse) {
	f.t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(f.t, err)
	body, err := json.Marshal(RPCRequest{JSONRPC: jsonRPCVersion, Method: method, Params: raw, ID: 1})
	require.NoError(f.t, err)
	return f.post(token, body)
}

func (f *fixture) post(token string, body []byte) (int, RPCResponse) {
	f.t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	var resp RPCResponse
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func (f *fixture) deploy(token string) types.ContractAddress {
	f.t.Helper()
	status, resp := f.call(token, "ledger_deploy", map[string]interface{}{
		"code":   projectnft.Name,
		"owner":  f.owner.String(),
		"params": map[string]string{"gateMode": "maturity"},
	})
	require.Equal(f.t, http.StatusOK, status)
	require.Nil(f.t, resp.Error)
	var out deployResult
	remarshal(f.t, resp.Result, &out)
	return out.Address
}

func remarshal(t *testing.T, in interface{}, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestDeployUpdateInvokeRoundTrip(t *testing.T) {
	f := newFixture(t, "")
	nft := f.deploy("")

	status, resp := f.call("", "ledger_update", map[string]interface{}{
		"invoker":    f.owner.String(),
		"contract":   nft.String(),
		"entrypoint": "mint",
		"params": map[string]interface{}{
			"owner":  f.alice.String(),
			"tokens": []map[string]interface{}{{"metadata": map[string]string{"url": "ipfs://a"}, "maturityTime": 1}},
		},
	})
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)
	var receipt host.Receipt
	remarshal(t, resp.Result, &receipt)
	require.Equal(t, nft, receipt.Contract)
	require.Len(t, receipt.Events, 3)
	require.Equal(t, "cis2.mint", receipt.Events[0].Type)

	status, resp = f.call("", "ledger_invoke", map[string]interface{}{
		"invoker":    f.alice.String(),
		"contract":   nft.String(),
		"entrypoint": "balanceOf",
		"params":     []map[string]interface{}{{"tokenId": 0, "address": f.alice.String()}},
	})
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)
	var ret invokeResult
	remarshal(t, resp.Result, &ret)
	require.Equal(t, []interface{}{float64(1)}, ret.Return)

	status, resp = f.call("", "ledger_events", map[string]interface{}{"from": 0, "limit": 2})
	require.Equal(t, http.StatusOK, status)
	var page eventsResult
	remarshal(t, resp.Result, &page)
	require.Len(t, page.Events, 2)
	require.Equal(t, uint64(2), page.Next)

	status, resp = f.call("", "ledger_instance", map[string]interface{}{"contract": nft.String()})
	require.Equal(t, http.StatusOK, status)
	var inst host.Instance
	remarshal(t, resp.Result, &inst)
	require.Equal(t, projectnft.Name, inst.Name)
	require.Equal(t, f.owner, inst.Owner)
}

func TestContractRejectionCarriesErrorCode(t *testing.T) {
	f := newFixture(t, "")
	nft := f.deploy("")

	status, resp := f.call("", "ledger_update", map[string]interface{}{
		"invoker":    f.alice.String(),
		"contract":   nft.String(),
		"entrypoint": "mint",
		"params":     map[string]interface{}{"owner": f.alice.String(), "tokens": []interface{}{}},
	})
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)
	var data ErrorData
	remarshal(t, resp.Error.Data, &data)
	require.Equal(t, "Unauthorized", data.Code)
	require.Equal(t, "authorization", strings.ToLower(data.Kind))
}

func TestUnknownEntrypointIsInvalidParams(t *testing.T) {
	f := newFixture(t, "")
	nft := f.deploy("")
	_, resp := f.call("", "ledger_update", map[string]interface{}{
		"invoker":    f.owner.String(),
		"contract":   nft.String(),
		"entrypoint": "nope",
	})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestReceiverWithoutHookIsCollaboratorError(t *testing.T) {
	f := newFixture(t, "")
	nft := f.deploy("")
	_, resp := f.call("", "ledger_update", map[string]interface{}{
		"invoker":    f.owner.String(),
		"contract":   nft.String(),
		"entrypoint": "mint",
		"params": map[string]interface{}{
			"owner":  f.alice.String(),
			"tokens": []map[string]interface{}{{"metadata": map[string]string{"url": "ipfs://a"}, "maturityTime": 1}},
		},
	})
	require.Nil(t, resp.Error)

	status, resp := f.call("", "ledger_update", map[string]interface{}{
		"invoker":    f.alice.String(),
		"contract":   nft.String(),
		"entrypoint": "transfer",
		"params": []map[string]interface{}{{
			"tokenId": 0,
			"amount":  1,
			"from":    f.alice.String(),
			"to":      map[string]string{"address": nft.String()},
		}},
	})
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeCollaborator, resp.Error.Code)
	var data ErrorData
	remarshal(t, resp.Error.Data, &data)
	require.Equal(t, "InvokeContractError", data.Code)
	require.Equal(t, "collaborator", data.Kind)
}

func TestStateChangingMethodsRequireBearerToken(t *testing.T) {
	f := newFixture(t, "secret")

	status, resp := f.call("", "ledger_deploy", map[string]interface{}{"code": projectnft.Name, "owner": f.owner.String()})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	status, resp = f.call("wrong", "ledger_deploy", map[string]interface{}{"code": projectnft.Name, "owner": f.owner.String()})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "invalid RPC credentials", resp.Error.Message)

	nft := f.deploy("secret")

	status, resp = f.call("", "ledger_instance", map[string]interface{}{"contract": nft.String()})
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)
}

func TestBalanceForAccountsAndContracts(t *testing.T) {
	f := newFixture(t, "")
	require.NoError(t, f.chain.Fund(f.alice, 250))
	nft := f.deploy("")

	_, resp := f.call("", "ledger_balance", map[string]interface{}{"account": f.alice.String()})
	require.Nil(t, resp.Error)
	var out balanceResult
	remarshal(t, resp.Result, &out)
	require.Equal(t, types.Amount(250), out.Balance)

	_, resp = f.call("", "ledger_balance", map[string]interface{}{"contract": nft.String()})
	require.Nil(t, resp.Error)
	remarshal(t, resp.Result, &out)
	require.Equal(t, types.Amount(0), out.Balance)

	_, resp = f.call("", "ledger_balance", map[string]interface{}{})
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestParamsMayBeWrappedInArray(t *testing.T) {
	f := newFixture(t, "")
	nft := f.deploy("")
	_, resp := f.call("", "ledger_instance", []map[string]interface{}{{"contract": nft.String()}})
	require.Nil(t, resp.Error)
}

func TestMalformedRequests(t *testing.T) {
	f := newFixture(t, "")

	status, resp := f.post("", []byte("{not json"))
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeParseError, resp.Error.Code)

	status, resp = f.post("", []byte(`{"jsonrpc":"2.0","id":1}`))
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidRequest, resp.Error.Code)

	status, resp = f.call("", "ledger_unknown", map[string]interface{}{})
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)

	big := bytes.Repeat([]byte("a"), maxRequestBytes+1)
	status, resp = f.post("", big)
	require.Equal(t, http.StatusRequestEntityTooLarge, status)
	require.Equal(t, codeInvalidRequest, resp.Error.Code)
}

func TestMetricsRecordOutcomes(t *testing.T) {
	f := newFixture(t, "")
	f.deploy("")
	f.call("", "ledger_unknown", map[string]interface{}{})

	f.metrics.mu.Lock()
	defer f.metrics.mu.Unlock()
	require.Equal(t, []recordedCall{
		{method: "ledger_deploy", status: 0},
		{method: "unknown", status: codeMethodNotFound},
	}, f.metrics.calls)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, "")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestUpdateSpanIsChildOfRequestSpan(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	chain, err := host.NewChain(storage.NewMemDB())
	require.NoError(t, err)
	require.NoError(t, chain.Register(projectnft.Name, projectnft.New()))
	chain.SetTracerProvider(tp)
	f := &fixture{
		t:       t,
		chain:   chain,
		metrics: &recorder{},
		owner:   types.AccountFromSeed("owner"),
		alice:   types.AccountFromSeed("alice"),
	}
	f.handler = NewServer(chain, ServerConfig{Metrics: f.metrics, TracerProvider: tp}).Handler()
	nft := f.deploy("")

	_, resp := f.call("", "ledger_update", map[string]interface{}{
		"invoker":    f.owner.String(),
		"contract":   nft.String(),
		"entrypoint": "addVerifier",
		"params":     map[string]string{"verifier": f.alice.String()},
	})
	require.Nil(t, resp.Error)

	var update, server sdktrace.ReadOnlySpan
	for _, span := range spans.Ended() {
		switch span.Name() {
		case "host.update":
			update = span
		case "ledgerd":
			server = span
		}
	}
	require.NotNil(t, update)
	require.NotNil(t, server)
	require.Equal(t, server.SpanContext().TraceID(), update.SpanContext().TraceID())
	require.Equal(t, server.SpanContext().SpanID(), update.Parent().SpanID())
}
