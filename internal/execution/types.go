package execution

import (
	"time"

	"github.com/ggonzalez94/defi-composer/internal/canvas"
	"github.com/ggonzalez94/defi-composer/internal/flow"
	"github.com/ggonzalez94/defi-composer/internal/spell"
)

// State is a simulator state. States are entered strictly in pipeline order;
// Failed may be entered from any non-terminal state.
type State string

const (
	StateIdle                 State = "idle"
	StateConnecting           State = "connecting"
	StateBuildingSpell        State = "building_spell"
	StateValidatingParams     State = "validating_params"
	StateEstimatingGas        State = "estimating_gas"
	StateCheckingLiquidity    State = "checking_liquidity"
	StateSubmitting           State = "submitting"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateConfirmed            State = "confirmed"
	StateFailed               State = "failed"
)

type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
)

const TileStatusSuccess = "success"

// Stage is one timed pseudo-stage of the pipeline.
type Stage struct {
	State       State
	Delay       time.Duration
	Description string
}

// Stages is the fixed pipeline. The delay is waited out before the stage's
// work is recorded.
var Stages = []Stage{
	{StateConnecting, 800 * time.Millisecond, "Connected to DSA account"},
	{StateBuildingSpell, 1200 * time.Millisecond, "Building DSA spell"},
	{StateValidatingParams, 1000 * time.Millisecond, "Validating transaction parameters"},
	{StateEstimatingGas, 800 * time.Millisecond, "Estimating gas costs"},
	{StateCheckingLiquidity, 1200 * time.Millisecond, "Checking protocol liquidity"},
	{StateSubmitting, 1500 * time.Millisecond, "Submitting transaction"},
	{StateAwaitingConfirmation, 2000 * time.Millisecond, "Waiting for confirmation"},
	{StateConfirmed, 1500 * time.Millisecond, "Transaction confirmed"},
}

// IsTerminal reports whether s ends a run.
func (s State) IsTerminal() bool {
	return s == StateConfirmed || s == StateFailed
}

// Request is everything a run consumes. Tiles are the canvas snapshot the
// flow was built from.
type Request struct {
	Tiles []canvas.Tile
	Flow  flow.TransactionFlow
	Spell []spell.Step
}

type StageRecord struct {
	State       State       `json:"state"`
	Status      StageStatus `json:"status"`
	Description string      `json:"description"`
	DelayMS     int64       `json:"delay_ms"`
	Error       string      `json:"error,omitempty"`
}

type TileReport struct {
	TileID string      `json:"tile_id"`
	Kind   canvas.Kind `json:"type"`
	Name   string      `json:"name"`
	Status string      `json:"status"`
}

// Result is the terminal record of one run.
type Result struct {
	ExecutionID string        `json:"execution_id"`
	State       State         `json:"state"`
	TxHash      string        `json:"tx_hash,omitempty"`
	Stages      []StageRecord `json:"stages"`
	Tiles       []TileReport  `json:"tiles,omitempty"`
	SpellSteps  int           `json:"spell_steps"`
	ValueUSD    float64       `json:"value_usd"`
	Error       string        `json:"error,omitempty"`
	StartedAt   string        `json:"started_at"`
	FinishedAt  string        `json:"finished_at"`
}

// Transition is reported to observers on every state change.
type Transition struct {
	ExecutionID string
	From        State
	To          State
	At          time.Time
}
