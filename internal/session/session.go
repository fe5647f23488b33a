// Package session owns one composer session: the canvas, the mock wallet,
// the price table, the simulator and the workflow store. Front ends drive it
// through its command methods only.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/ggonzalez94/defi-composer/internal/canvas"
	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
	"github.com/ggonzalez94/defi-composer/internal/execution"
	"github.com/ggonzalez94/defi-composer/internal/flow"
	"github.com/ggonzalez94/defi-composer/internal/policy"
	"github.com/ggonzalez94/defi-composer/internal/prices"
	"github.com/ggonzalez94/defi-composer/internal/registry"
	"github.com/ggonzalez94/defi-composer/internal/spell"
	"github.com/ggonzalez94/defi-composer/internal/wallet"
	"github.com/ggonzalez94/defi-composer/internal/workflow"
)

type Options struct {
	Store     *canvas.Store
	Prices    *prices.Table
	Wallet    *wallet.Wallet
	Simulator *execution.Simulator
	// KV backs Save and Load. Nil disables persistence.
	KV        workflow.KV
	Limits    policy.Limits
	ExportDir string
	Logger    *slog.Logger
	Now       func() time.Time
}

type Session struct {
	id        string
	store     *canvas.Store
	prices    *prices.Table
	wallet    *wallet.Wallet
	sim       *execution.Simulator
	kv        workflow.KV
	limits    policy.Limits
	exportDir string
	log       *slog.Logger
	now       func() time.Time
}

// Compiled is a flow together with its spell envelope.
type Compiled struct {
	Flow     flow.TransactionFlow `json:"flow"`
	Envelope spell.Envelope       `json:"envelope"`
	Warnings []string             `json:"-"`
}

func New(opts Options) (*Session, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Store == nil {
		opts.Store = canvas.NewStore()
	}
	if opts.Prices == nil {
		opts.Prices = prices.NewTable(registry.InitialPrices(), 20)
	}
	if opts.Wallet == nil {
		w, err := wallet.New(wallet.Options{Logger: opts.Logger})
		if err != nil {
			return nil, err
		}
		opts.Wallet = w
	}
	if opts.Simulator == nil {
		opts.Simulator = execution.NewSimulator(execution.Options{Logger: opts.Logger})
	}
	id := NewSessionID(opts.Now())
	return &Session{
		id:        id,
		store:     opts.Store,
		prices:    opts.Prices,
		wallet:    opts.Wallet,
		sim:       opts.Simulator,
		kv:        opts.KV,
		limits:    opts.Limits,
		exportDir: opts.ExportDir,
		log:       opts.Logger.With("session_id", id),
		now:       opts.Now,
	}, nil
}

// NewSessionID renders session_<epoch-ms>_<9 base36 chars>.
func NewSessionID(now time.Time) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	var b strings.Builder
	for i := 0; i < 9; i++ {
		b.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), b.String())
}

func (s *Session) ID() string { return s.id }
func (s *Session) Prices() *prices.Table { return s.prices }
func (s *Session) Wallet() *wallet.Wallet { return s.wallet }
func (s *Session) Simulator() *execution.Simulator { return s.sim }

func (s *Session) Tiles() []canvas.Tile { return s.store.All() }

// Add places a tile. Token amounts are kept as entered.
func (s *Session) Add(kind canvas.Kind, name, amount string) (canvas.Tile, error) {
	if _, err := canvas.ParseKind(string(kind)); err != nil {
		return canvas.Tile{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return canvas.Tile{}, clierr.New(clierr.CodeUsage, "block name is required")
	}
	tile := s.store.Add(kind, name, amount)
	s.track("block_added", "type", tile.Kind, "name", tile.Name, "block_id", tile.ID)
	return tile, nil
}

// Drop parses a drag payload and places the tile it describes. A malformed
// payload leaves the canvas untouched.
func (s *Session) Drop(payload []byte) (canvas.Tile, error) {
	in, err := workflow.ParsePayload(payload)
	if err != nil {
		s.log.Warn("drop rejected", "error", err)
		return canvas.Tile{}, err
	}
	tile := s.store.Place(in)
	s.track("block_added", "type", tile.Kind, "name", tile.Name, "block_id", tile.ID)
	return tile, nil
}

func (s *Session) Remove(id string) bool {
	tile, ok := s.store.Get(id)
	if !s.store.Remove(id) {
		return false
	}
	if ok {
		s.track("block_removed", "type", tile.Kind, "name", tile.Name, "block_id", id)
	}
	return true
}

func (s *Session) SetAmount(id, amount string) bool {
	return s.store.SetAmount(id, amount)
}

func (s *Session) Clear() {
	s.store.Clear()
	s.track("canvas_cleared")
}

func (s *Session) Validate() canvas.Breakdown {
	return canvas.Analyze(s.store.All())
}

func (s *Session) Status() string {
	return canvas.StatusText(s.Validate(), s.wallet.Connected())
}

// DisplayGas is the coarse estimate shown while composing, in gas and ETH.
func (s *Session) DisplayGas() (int64, float64) {
	gas := flow.DisplayGasEstimate(s.store.Len())
	return gas, prices.GasCostETH(gas, s.prices.Snapshot().GasPriceGwei)
}

func (s *Session) Preview() (flow.Preview, error) {
	tiles := s.store.All()
	if !canvas.IsValid(tiles) {
		return flow.Preview{}, invalidFlowError(canvas.Analyze(tiles))
	}
	return flow.NewPreview(tiles, s.prices.Snapshot(), s.buildOptions()), nil
}

// Compile builds and compiles the current canvas. Calldata encoding failures
// are reported as warnings; the spell is still returned.
func (s *Session) Compile() (Compiled, error) {
	tiles := s.store.All()
	if !canvas.IsValid(tiles) {
		return Compiled{}, invalidFlowError(canvas.Analyze(tiles))
	}
	return s.compile(tiles, s.prices.Snapshot())
}

func (s *Session) compile(tiles []canvas.Tile, snap prices.Snapshot) (Compiled, error) {
	f := flow.Build(tiles, snap, s.buildOptions())
	steps, err := spell.Compile(f)
	if err != nil {
		return Compiled{}, err
	}
	out := Compiled{Flow: f, Envelope: spell.NewEnvelope(f, steps, snap.GasPriceGwei)}
	calldata, err := spell.EncodeCast(steps, s.wallet.Address())
	if err != nil {
		out.Warnings = append(out.Warnings, "calldata not encoded: "+err.Error())
	} else {
		out.Envelope.Calldata = calldata
	}
	return out, nil
}

// Execute validates, compiles and simulates the current canvas. Tiles stay
// on the canvas whatever the outcome.
func (s *Session) Execute(ctx context.Context) (execution.Result, Compiled, error) {
	tiles := s.store.All()
	if !canvas.IsValid(tiles) {
		return execution.Result{}, Compiled{}, invalidFlowError(canvas.Analyze(tiles))
	}
	if !s.wallet.Connected() {
		return execution.Result{}, Compiled{}, clierr.New(clierr.CodeWalletNotConnected, "connect wallet before executing")
	}
	compiled, err := s.compile(tiles, s.prices.Snapshot())
	if err != nil {
		return execution.Result{}, Compiled{}, err
	}
	if err := policy.CheckExecutionLimits(s.limits, len(tiles), compiled.Flow.EstimatedValue); err != nil {
		return execution.Result{}, compiled, err
	}

	res, err := s.sim.Execute(ctx, execution.Request{Tiles: tiles, Flow: compiled.Flow, Spell: compiled.Envelope.Spells})
	if err != nil {
		if clierr.IsCode(err, clierr.CodeExecutionFault) {
			s.track("transaction_failed", "error", res.Error, "execution_id", res.ExecutionID)
		}
		return res, compiled, err
	}
	s.track("transaction_executed",
		"execution_id", res.ExecutionID,
		"tx_hash", res.TxHash,
		"estimated_gas", compiled.Flow.EstimatedGas,
		"estimated_value", compiled.Flow.EstimatedValue,
	)
	return res, compiled, nil
}

func (s *Session) ConnectWallet(ctx context.Context) (wallet.Info, error) {
	return s.wallet.Connect(ctx)
}

func (s *Session) DisconnectWallet() wallet.Info {
	return s.wallet.Disconnect()
}

func (s *Session) Save() (workflow.Blob, error) {
	if s.kv == nil {
		return workflow.Blob{}, clierr.New(clierr.CodeInternal, "workflow store is not configured")
	}
	blob, err := workflow.Save(s.kv, s.store.All(), s.now())
	if err != nil {
		return workflow.Blob{}, err
	}
	s.track("workflow_saved", "saved_blocks", blob.Metadata.TotalBlocks)
	return blob, nil
}

// Load replaces the canvas with the saved workflow. A missing or corrupt
// blob leaves the canvas as it was.
func (s *Session) Load() ([]canvas.Tile, error) {
	if s.kv == nil {
		return nil, clierr.New(clierr.CodeInternal, "workflow store is not configured")
	}
	blob, err := workflow.Load(s.kv)
	if err != nil {
		return nil, err
	}
	tiles := workflow.Replay(s.store, blob)
	s.track("workflow_loaded", "loaded_blocks", len(tiles))
	return tiles, nil
}

func (s *Session) Export() (string, flow.TransactionFlow, error) {
	now := s.now()
	opts := s.buildOptions()
	opts.Now = now
	f := flow.Build(s.store.All(), s.prices.Snapshot(), opts)
	path, err := workflow.Export(s.exportDir, f, now)
	if err != nil {
		return "", flow.TransactionFlow{}, err
	}
	s.track("workflow_exported", "path", path)
	return path, f, nil
}

// Import reads an exported flow file and rebuilds the canvas from it.
func (s *Session) Import(path string) ([]canvas.Tile, error) {
	f, err := workflow.Import(path)
	if err != nil {
		return nil, err
	}
	tiles := workflow.ReplayFlow(s.store, f)
	s.track("workflow_imported", "path", path)
	return tiles, nil
}

func (s *Session) buildOptions() flow.BuildOptions {
	return flow.BuildOptions{Now: s.now(), WalletAddress: s.wallet.Address()}
}

// track logs an analytics event with the session context attached.
func (s *Session) track(action string, attrs ...any) {
	base := []any{
		"action", action,
		"wallet_connected", s.wallet.Connected(),
		"block_count", s.store.Len(),
	}
	s.log.Info("analytics", append(base, attrs...)...)
}

func invalidFlowError(b canvas.Breakdown) error {
	if b.Total == 0 {
		return clierr.New(clierr.CodeInvalidFlow, "Add blocks to build transaction")
	}
	return clierr.New(clierr.CodeInvalidFlow, canvas.MissingKindsHint)
}
