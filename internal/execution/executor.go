package execution

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ggonzalez94/defi-composer/internal/delay"
	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
)

// FaultFunc is consulted after each stage's delay. A non-nil error moves the
// run straight to Failed with the error's message.
type FaultFunc func(stage State) error

type Options struct {
	Delayer  delay.Delayer
	Logger   *slog.Logger
	Fault    FaultFunc
	Observer func(Transition)
	Now      func() time.Time
}

// Simulator runs the staged pseudo-execution. At most one run is in flight;
// a second Execute while running is refused, never queued.
type Simulator struct {
	mu      sync.Mutex
	state   State
	running bool

	delayer  delay.Delayer
	log      *slog.Logger
	fault    FaultFunc
	observer func(Transition)
	now      func() time.Time
}

// FaultAt returns a FaultFunc that fails when the pipeline reaches stage.
func FaultAt(stage State, message string) FaultFunc {
	return func(s State) error {
		if s == stage {
			return errors.New(message)
		}
		return nil
	}
}

func NewSimulator(opts Options) *Simulator {
	if opts.Delayer == nil {
		opts.Delayer = delay.New(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Simulator{
		state:    StateIdle,
		delayer:  opts.Delayer,
		log:      opts.Logger.With("component", "simulator"),
		fault:    opts.Fault,
		observer: opts.Observer,
		now:      opts.Now,
	}
}

func (s *Simulator) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Execute runs every stage to completion. Cancelling ctx does not abort a
// run. On failure the returned Result is still populated and the error
// carries CodeExecutionFault.
func (s *Simulator) Execute(ctx context.Context, req Request) (Result, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return Result{}, clierr.New(clierr.CodeBusy, "an execution is already in progress")
	}
	s.running = true
	// Each run starts from idle. The reset is not reported to observers.
	s.state = StateIdle
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx = context.WithoutCancel(ctx)
	result := Result{
		ExecutionID: NewExecutionID(),
		State:       StateIdle,
		Stages:      make([]StageRecord, 0, len(Stages)),
		SpellSteps:  len(req.Spell),
		ValueUSD:    req.Flow.EstimatedValue,
		StartedAt:   s.now().UTC().Format(time.RFC3339),
	}
	log := s.log.With("execution_id", result.ExecutionID)
	log.Info("execution started", "blocks", len(req.Tiles), "spell_steps", len(req.Spell))

	for _, stage := range Stages {
		s.transition(&result, stage.State)
		record := StageRecord{
			State:       stage.State,
			Status:      StageStatusPending,
			Description: stage.Description,
			DelayMS:     stage.Delay.Milliseconds(),
		}
		if err := s.delayer.Delay(ctx, stage.Delay); err != nil {
			return s.fail(log, &result, record, err)
		}
		if s.fault != nil {
			if err := s.fault(stage.State); err != nil {
				return s.fail(log, &result, record, err)
			}
		}
		if err := s.runStage(log, &result, req, stage.State); err != nil {
			return s.fail(log, &result, record, err)
		}
		record.Status = StageStatusCompleted
		result.Stages = append(result.Stages, record)
	}

	result.Tiles = make([]TileReport, 0, len(req.Tiles))
	for _, tile := range req.Tiles {
		result.Tiles = append(result.Tiles, TileReport{TileID: tile.ID, Kind: tile.Kind, Name: tile.Name, Status: TileStatusSuccess})
	}
	result.FinishedAt = s.now().UTC().Format(time.RFC3339)
	log.Info("transaction_executed", "tx_hash", result.TxHash, "value_usd", result.ValueUSD)
	return result, nil
}

func (s *Simulator) runStage(log *slog.Logger, result *Result, req Request, state State) error {
	switch state {
	case StateBuildingSpell:
		log.Info("spell built", "steps", len(req.Spell))
	case StateEstimatingGas:
		log.Info("gas estimated", "gas", req.Flow.EstimatedGas)
	case StateConfirmed:
		hash, err := NewTxHash()
		if err != nil {
			return err
		}
		result.TxHash = hash
		log.Info("transaction confirmed", "tx_hash", hash)
	default:
		log.Debug("stage completed", "state", state)
	}
	return nil
}

func (s *Simulator) fail(log *slog.Logger, result *Result, record StageRecord, cause error) (Result, error) {
	record.Status = StageStatusFailed
	record.Error = cause.Error()
	result.Stages = append(result.Stages, record)
	result.Error = cause.Error()
	result.FinishedAt = s.now().UTC().Format(time.RFC3339)
	s.transition(result, StateFailed)
	log.Warn("transaction_failed", "stage", record.State, "error", result.Error)
	return *result, clierr.Wrap(clierr.CodeExecutionFault, "transaction failed", cause)
}

func (s *Simulator) transition(result *Result, to State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()
	result.State = to
	if s.observer != nil && from != to {
		s.observer(Transition{ExecutionID: result.ExecutionID, From: from, To: to, At: s.now()})
	}
}
