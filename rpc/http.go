package rpc

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"assetledger/core/host"
	"assetledger/observability"
	"assetledger/observability/logging"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError       = -32700
	codeInvalidRequest   = -32600
	codeMethodNotFound   = -32601
	codeInvalidParams    = -32602
	codeServerError      = -32000
	codeUnauthorized     = -32001
	codeContractRejected = -32003
	codeCollaborator     = -32004
)

// MethodMetrics records JSON-RPC outcomes.
type MethodMetrics interface {
	Observe(method string, status int, d time.Duration)
}

// ServerConfig tunes the JSON-RPC server.
type ServerConfig struct {
	// AuthToken guards state-changing methods when non-empty.
	AuthToken string
	Logger    *slog.Logger
	Metrics   MethodMetrics
	// TracerProvider overrides the global provider for HTTP server spans.
	TracerProvider trace.TracerProvider

	ReadHeaderTimeout time.Duration
}

type Server struct {
	chain     *host.Chain
	authToken string
	logger    *slog.Logger
	metrics   MethodMetrics
	cfg       ServerConfig

	serverMu   sync.Mutex
	httpServer *http.Server
}

func NewServer(chain *host.Chain, cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var metrics MethodMetrics = observability.ModuleMetrics()
	if cfg.Metrics != nil {
		metrics = cfg.Metrics
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}
	return &Server{
		chain:     chain,
		authToken: strings.TrimSpace(cfg.AuthToken),
		logger:    logger,
		metrics:   metrics,
		cfg:       cfg,
	}
}

// Handler returns the HTTP routes served by the node.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/rpc", s.handle)
	r.Post("/", s.handle)
	var opts []otelhttp.Option
	if s.cfg.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(s.cfg.TracerProvider))
	}
	return otelhttp.NewHandler(r, "ledgerd", opts...)
}

// Serve accepts connections on listener until Shutdown is called.
func (s *Server) Serve(listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}
	s.serverMu.Lock()
	s.httpServer = srv
	s.serverMu.Unlock()
	s.logger.Info("json-rpc server listening", "address", listener.Addr().String())
	err := srv.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.serverMu.Lock()
	srv := s.httpServer
	s.serverMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

func writeError(w http.ResponseWriter, status int, id interface{}, rpcErr *RPCError) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: rpcErr}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// params accepts either a params object or a single-element array holding
// one.
func (r *RPCRequest) params() json.RawMessage {
	trimmed := bytes.TrimSpace(r.Params)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return trimmed
	}
	var list []json.RawMessage
	if err := json.Unmarshal(trimmed, &list); err != nil || len(list) == 0 {
		return nil
	}
	return list[0]
}

type handlerFunc func(ctx context.Context, raw json.RawMessage) (interface{}, *RPCError)

type method struct {
	handler      handlerFunc
	requiresAuth bool
}

func (s *Server) methods() map[string]method {
	return map[string]method{
		"ledger_deploy":   {handler: s.handleDeploy, requiresAuth: true},
		"ledger_update":   {handler: s.handleUpdate, requiresAuth: true},
		"ledger_invoke":   {handler: s.handleInvoke},
		"ledger_events":   {handler: s.handleEvents},
		"ledger_balance":  {handler: s.handleBalance},
		"ledger_instance": {handler: s.handleInstance},
		"ledger_codes":    {handler: s.handleCodes},
	}
}

// handle decodes one JSON-RPC request and routes it to its method.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, &RPCError{Code: codeInvalidRequest, Message: message, Data: err.Error()})
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, &RPCError{Code: codeInvalidRequest, Message: "request body required"})
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, &RPCError{Code: codeParseError, Message: "invalid JSON payload", Data: err.Error()})
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, &RPCError{Code: codeInvalidRequest, Message: "unsupported jsonrpc version", Data: req.JSONRPC})
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, &RPCError{Code: codeInvalidRequest, Message: "method required"})
		return
	}

	m, ok := s.methods()[req.Method]
	if !ok {
		s.metrics.Observe("unknown", codeMethodNotFound, time.Since(start))
		writeError(w, http.StatusNotFound, req.ID, &RPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("unknown method %s", req.Method)})
		return
	}
	if m.requiresAuth {
		if authErr := s.requireAuth(r); authErr != nil {
			s.logger.Warn("rpc request rejected",
				"method", req.Method,
				"reason", authErr.Message,
				slog.String("authorization", logging.MaskCredential(r.Header.Get("Authorization"))))
			s.metrics.Observe(req.Method, authErr.Code, time.Since(start))
			writeError(w, http.StatusUnauthorized, req.ID, authErr)
			return
		}
	}

	result, rpcErr := m.handler(r.Context(), req.params())
	if rpcErr != nil {
		s.metrics.Observe(req.Method, rpcErr.Code, time.Since(start))
		status := http.StatusOK
		if rpcErr.Code == codeServerError {
			status = http.StatusInternalServerError
		}
		writeError(w, status, req.ID, rpcErr)
		return
	}
	s.metrics.Observe(req.Method, 0, time.Since(start))
	writeResult(w, req.ID, result)
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}
