package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	coreerrors "assetledger/core/errors"
	"assetledger/core/events"
	"assetledger/core/types"
	"assetledger/storage"
)

const (
	DefaultMaxCallDepth     = 16
	DefaultMaxEventsPerCall = 64
)

var (
	errNilDatabase   = errors.New("host: database not configured")
	errDuplicateCode = errors.New("host: contract code already registered")
)

// Limits bounds the resources a single transaction may consume.
type Limits struct {
	MaxCallDepth     int
	MaxEventsPerCall int
}

func (l Limits) normalize() Limits {
	if l.MaxCallDepth <= 0 {
		l.MaxCallDepth = DefaultMaxCallDepth
	}
	if l.MaxEventsPerCall <= 0 {
		l.MaxEventsPerCall = DefaultMaxEventsPerCall
	}
	return l
}

// Receipt summarises a committed call.
type Receipt struct {
	Seq        uint64                `json:"seq"`
	Contract   types.ContractAddress `json:"contract"`
	Entrypoint string                `json:"entrypoint"`
	Events     []LoggedEvent         `json:"events"`
	Return     any                   `json:"return,omitempty"`
}

type hostEvent struct {
	evt *types.Event
}

func (h hostEvent) EventType() string { return h.evt.EventType() }

func (h hostEvent) Event() *types.Event { return h.evt }

// Chain executes contract calls against a database. Entry is serialized: a
// call runs to completion, and either all of its writes are committed in one
// batch or none are.
type Chain struct {
	mu      sync.Mutex
	db      storage.Database
	codes   map[string]Contract
	limits  Limits
	nowFn   func() time.Time
	logger  *slog.Logger
	metrics Metrics
	emitter events.Emitter
	tracer  trace.Tracer
}

const tracerName = "assetledger/host"

// NewChain creates a host over the provided database.
func NewChain(db storage.Database) (*Chain, error) {
	if db == nil {
		return nil, errNilDatabase
	}
	return &Chain{
		db:      db,
		codes:   make(map[string]Contract),
		limits:  Limits{}.normalize(),
		nowFn:   time.Now,
		logger:  slog.Default(),
		metrics: noopMetrics{},
		emitter: events.NoopEmitter{},
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// SetTracerProvider replaces the global tracer provider for this host.
func (c *Chain) SetTracerProvider(tp trace.TracerProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tp == nil {
		c.tracer = otel.Tracer(tracerName)
		return
	}
	c.tracer = tp.Tracer(tracerName)
}

// SetNowFunc overrides the slot time source. Primarily intended for tests.
func (c *Chain) SetNowFunc(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now == nil {
		c.nowFn = time.Now
		return
	}
	c.nowFn = now
}

func (c *Chain) SetLogger(logger *slog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if logger == nil {
		logger = slog.Default()
	}
	c.logger = logger
}

func (c *Chain) SetLimits(limits Limits) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limits = limits.normalize()
}

func (c *Chain) SetMetrics(metrics Metrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if metrics == nil {
		metrics = noopMetrics{}
	}
	c.metrics = metrics
}

// SetEmitter configures where committed events are published. Passing nil
// resets the emitter to a no-op implementation.
func (c *Chain) SetEmitter(emitter events.Emitter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	c.emitter = emitter
}

func (c *Chain) now() time.Time {
	if c.nowFn == nil {
		return time.Now()
	}
	return c.nowFn()
}

// Register makes contract code deployable under the given name.
func (c *Chain) Register(name string, code Contract) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name == "" || code == nil {
		return fmt.Errorf("host: register requires a name and code")
	}
	if _, exists := c.codes[name]; exists {
		return fmt.Errorf("%w: %s", errDuplicateCode, name)
	}
	c.codes[name] = code
	return nil
}

// Codes lists the registered contract names.
func (c *Chain) Codes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.codes))
	for name := range c.codes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Chain) code(name string) (Contract, bool) {
	code, ok := c.codes[name]
	return code, ok
}

// Deploy creates a new instance of the named contract owned by owner.
func (c *Chain) Deploy(owner types.AccountAddress, name string, param any) (types.ContractAddress, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	code, ok := c.code(name)
	if !ok {
		return types.ContractAddress{}, coreerrors.Wrap(coreerrors.ErrUnknownContract, "code %q", name)
	}
	tx := c.begin(owner)
	inst, err := tx.ledger().allocate(name, owner)
	if err != nil {
		return types.ContractAddress{}, err
	}
	ctx := &callContext{tx: tx, self: inst.Address, owner: owner, sender: types.AccountOf(owner)}
	if err := code.Init(ctx, param); err != nil {
		tx.overlay.Discard()
		c.logger.Info("deploy aborted", "contract", name, "owner", owner.String(), "error", err)
		return types.ContractAddress{}, err
	}
	if _, _, err := c.commit(tx); err != nil {
		return types.ContractAddress{}, err
	}
	c.logger.Info("contract deployed", "contract", name, "address", inst.Address.String(), "owner", owner.String())
	return inst.Address, nil
}

// Update executes a state-changing call on behalf of invoker, attaching amount
// of native currency.
func (c *Chain) Update(invoker types.AccountAddress, to types.ContractAddress, entrypoint string, param any, amount types.Amount) (*Receipt, error) {
	return c.UpdateContext(context.Background(), invoker, to, entrypoint, param, amount)
}

// UpdateContext is Update with a parent context for tracing.
func (c *Chain) UpdateContext(ctx context.Context, invoker types.AccountAddress, to types.ContractAddress, entrypoint string, param any, amount types.Amount) (*Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := time.Now()
	name := c.instanceName(to)
	_, span := c.tracer.Start(ctx, "host.update", trace.WithAttributes(
		attribute.String("contract", to.String()),
		attribute.String("code", name),
		attribute.String("entrypoint", entrypoint),
		attribute.Int64("amount", int64(amount)),
	))
	defer span.End()
	tx := c.begin(invoker)
	ret, err := tx.call(types.AccountOf(invoker), to, entrypoint, param, amount, false)
	if err != nil {
		tx.overlay.Discard()
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.code", coreerrors.CodeOf(err)))
		span.SetStatus(codes.Error, coreerrors.KindOf(err).String())
		c.metrics.ObserveCall(name, entrypoint, "aborted", time.Since(start))
		c.metrics.ObserveAbort(name, entrypoint, coreerrors.KindOf(err).String())
		c.logger.Info("call aborted",
			"contract", to.String(),
			"entrypoint", entrypoint,
			"invoker", invoker.String(),
			"code", coreerrors.CodeOf(err),
			"error", err)
		return nil, err
	}
	seq, committed, err := c.commit(tx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int64("seq", int64(seq)), attribute.Int("events", len(committed)))
	span.SetStatus(codes.Ok, "committed")
	c.metrics.ObserveCall(name, entrypoint, "committed", time.Since(start))
	for _, evt := range committed {
		c.metrics.ObserveEvent(name, evt.Type)
	}
	receipt := &Receipt{Seq: seq, Contract: to, Entrypoint: entrypoint, Events: committed, Return: ret}
	c.logger.Debug("call committed",
		"contract", to.String(),
		"entrypoint", entrypoint,
		"invoker", invoker.String(),
		"seq", receipt.Seq,
		"events", len(committed))
	return receipt, nil
}

// Invoke runs a read-only query. Nothing it does is ever committed.
func (c *Chain) Invoke(invoker types.AccountAddress, to types.ContractAddress, entrypoint string, param any) (any, error) {
	return c.InvokeContext(context.Background(), invoker, to, entrypoint, param)
}

// InvokeContext is Invoke with a parent context for tracing.
func (c *Chain) InvokeContext(ctx context.Context, invoker types.AccountAddress, to types.ContractAddress, entrypoint string, param any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, span := c.tracer.Start(ctx, "host.invoke", trace.WithAttributes(
		attribute.String("contract", to.String()),
		attribute.String("entrypoint", entrypoint),
	))
	defer span.End()
	tx := c.begin(invoker)
	defer tx.overlay.Discard()
	ret, err := tx.call(types.AccountOf(invoker), to, entrypoint, param, 0, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, coreerrors.KindOf(err).String())
		return nil, err
	}
	return ret, nil
}

func (c *Chain) commit(tx *transaction) (uint64, []LoggedEvent, error) {
	committed := tx.events
	seq, err := tx.ledger().appendEvents(committed)
	if err != nil {
		tx.overlay.Discard()
		return 0, nil, err
	}
	if err := tx.overlay.Commit(); err != nil {
		return 0, nil, fmt.Errorf("host: commit: %w", err)
	}
	for i := range committed {
		evt := &types.Event{Type: committed[i].Type, Attributes: committed[i].Attributes}
		c.emitter.Emit(hostEvent{evt: evt})
	}
	return seq, committed, nil
}

func (c *Chain) instanceName(addr types.ContractAddress) string {
	inst, err := newLedgerState(c.readView()).instance(addr)
	if err != nil {
		return "unknown"
	}
	return inst.Name
}

func (c *Chain) readView() *readView {
	return &readView{db: c.db}
}

// Fund credits native currency to an account outside of any contract call.
func (c *Chain) Fund(account types.AccountAddress, amount types.Amount) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tx := c.begin(account)
	if err := tx.ledger().credit(types.AccountOf(account), amount); err != nil {
		return err
	}
	return tx.overlay.Commit()
}

// Balance returns the native balance of an account.
func (c *Chain) Balance(account types.AccountAddress) (types.Amount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return newLedgerState(c.readView()).balance(types.AccountOf(account))
}

// ContractBalance returns the native balance held by a contract instance.
func (c *Chain) ContractBalance(addr types.ContractAddress) (types.Amount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return newLedgerState(c.readView()).balance(types.ContractOf(addr))
}

// Instance looks up a deployed instance.
func (c *Chain) Instance(addr types.ContractAddress) (*Instance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return newLedgerState(c.readView()).instance(addr)
}

// Events pages through the committed event log starting at position from.
func (c *Chain) Events(from uint64, limit int) ([]LoggedEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return newLedgerState(c.readView()).events(from, limit)
}

// DecodeParam decodes JSON parameters for an entrypoint of a deployed
// instance, or for the init of a registered code when addr is nil.
func (c *Chain) DecodeParam(name string, addr *types.ContractAddress, entrypoint string, raw json.RawMessage) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if addr != nil {
		inst, err := newLedgerState(c.readView()).instance(*addr)
		if err != nil {
			return nil, err
		}
		name = inst.Name
	}
	code, ok := c.code(name)
	if !ok {
		return nil, coreerrors.Wrap(coreerrors.ErrUnknownContract, "code %q", name)
	}
	return code.DecodeParam(entrypoint, raw)
}
