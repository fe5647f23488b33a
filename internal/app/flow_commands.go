package app

import (
	"fmt"
	"strings"

	"github.com/ggonzalez94/defi-composer/internal/canvas"
	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
	"github.com/ggonzalez94/defi-composer/internal/execution"
	"github.com/ggonzalez94/defi-composer/internal/flow"
	"github.com/ggonzalez94/defi-composer/internal/model"
	"github.com/ggonzalez94/defi-composer/internal/session"
	"github.com/ggonzalez94/defi-composer/internal/spell"
	"github.com/ggonzalez94/defi-composer/internal/wallet"
	"github.com/spf13/cobra"
)

const blockFlagUsage = "Block to place, as type:name[=amount] (repeatable, in order)"

type blockSpec struct {
	Kind   canvas.Kind
	Name   string
	Amount string
}

// parseBlockSpec reads "token:ETH=1.5" style block flags. The amount part is
// only meaningful for token blocks and is kept verbatim.
func parseBlockSpec(raw string) (blockSpec, error) {
	kindPart, rest, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return blockSpec{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid --block %q (want type:name[=amount])", raw))
	}
	kind, err := canvas.ParseKind(kindPart)
	if err != nil {
		return blockSpec{}, err
	}
	name, amount, _ := strings.Cut(rest, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return blockSpec{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid --block %q: name is required", raw))
	}
	if amount != "" && kind != canvas.KindToken {
		return blockSpec{}, clierr.New(clierr.CodeUsage, fmt.Sprintf("invalid --block %q: only token blocks take an amount", raw))
	}
	return blockSpec{Kind: kind, Name: name, Amount: amount}, nil
}

// canvasSource is the set of flags every canvas-consuming command shares.
type canvasSource struct {
	blocks []string
	saved  bool
}

func (c *canvasSource) bind(cmd *cobra.Command, withSaved bool) {
	cmd.Flags().StringArrayVar(&c.blocks, "block", nil, blockFlagUsage)
	if withSaved {
		cmd.Flags().BoolVar(&c.saved, "saved", false, "Start from the saved workflow instead of --block flags")
	}
}

// populate fills the session canvas from --block flags or the saved workflow.
func (c *canvasSource) populate(sess *session.Session) error {
	if c.saved && len(c.blocks) > 0 {
		return clierr.New(clierr.CodeUsage, "use either --saved or --block, not both")
	}
	if c.saved {
		_, err := sess.Load()
		return err
	}
	specs := make([]blockSpec, 0, len(c.blocks))
	for _, raw := range c.blocks {
		spec, err := parseBlockSpec(raw)
		if err != nil {
			return err
		}
		specs = append(specs, spec)
	}
	for _, spec := range specs {
		if _, err := sess.Add(spec.Kind, spec.Name, spec.Amount); err != nil {
			return err
		}
	}
	return nil
}

func (s *runtimeState) sessionFrom(src *canvasSource) (*session.Session, error) {
	sess, err := s.newSession(src.saved)
	if err != nil {
		return nil, err
	}
	if err := src.populate(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

type compileReport struct {
	Flow     flow.TransactionFlow `json:"flow"`
	Envelope spell.Envelope       `json:"envelope"`
	Wallet   wallet.Info          `json:"wallet"`
}

type executionReport struct {
	Execution execution.Result     `json:"execution"`
	Flow      flow.TransactionFlow `json:"flow"`
	Envelope  spell.Envelope       `json:"envelope"`
	Wallet    wallet.Info          `json:"wallet"`
}

func (s *runtimeState) newFlowCommand() *cobra.Command {
	root := &cobra.Command{Use: "flow", Short: "Validate, preview, compile and simulate a block flow"}

	var validateSrc canvasSource
	validateCmd := &cobra.Command{
		Use:     "validate",
		Short:   "Report block counts and whether the flow is executable",
		Example: "  composer flow validate --block protocol:Aave --block token:ETH=1 --block action:Deposit",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.sessionFrom(&validateSrc)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), validationReport(sess), nil)
		},
	}
	validateSrc.bind(validateCmd, true)

	var previewSrc canvasSource
	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Build the transaction flow with gas and value estimates",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.sessionFrom(&previewSrc)
			if err != nil {
				return err
			}
			preview, err := sess.Preview()
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), preview, nil)
		},
	}
	previewSrc.bind(previewCmd, true)

	var compileSrc canvasSource
	var compileConnect bool
	compileCmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile the flow into DSA spell steps and cast calldata",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.sessionFrom(&compileSrc)
			if err != nil {
				return err
			}
			if compileConnect {
				if _, err := sess.ConnectWallet(cmd.Context()); err != nil {
					return err
				}
			}
			compiled, err := sess.Compile()
			if err != nil {
				return err
			}
			report := compileReport{Flow: compiled.Flow, Envelope: compiled.Envelope, Wallet: sess.Wallet().Info()}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), report, compiled.Warnings)
		},
	}
	compileSrc.bind(compileCmd, true)
	compileCmd.Flags().BoolVar(&compileConnect, "connect", false, "Connect the mock wallet first so calldata carries its address")

	var executeSrc canvasSource
	var noConnect bool
	executeCmd := &cobra.Command{
		Use:   "execute",
		Short: "Simulate executing the flow through the staged pipeline",
		Long:  "Simulate executing the flow. The mock wallet is connected first unless --no-connect is set. Stage latency follows --speed/--instant.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.sessionFrom(&executeSrc)
			if err != nil {
				return err
			}
			if !noConnect {
				if _, err := sess.ConnectWallet(cmd.Context()); err != nil {
					return err
				}
			}
			res, compiled, err := sess.Execute(cmd.Context())
			if err != nil {
				if res.ExecutionID != "" {
					s.lastWarnings = append(s.lastWarnings, failureNote(res))
				}
				return err
			}
			report := executionReport{
				Execution: res,
				Flow:      compiled.Flow,
				Envelope:  compiled.Envelope,
				Wallet:    sess.Wallet().Info(),
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), report, compiled.Warnings)
		},
	}
	executeSrc.bind(executeCmd, true)
	executeCmd.Flags().BoolVar(&noConnect, "no-connect", false, "Do not connect the mock wallet before executing")

	root.AddCommand(validateCmd)
	root.AddCommand(previewCmd)
	root.AddCommand(compileCmd)
	root.AddCommand(executeCmd)
	return root
}

func validationReport(sess *session.Session) model.ValidationReport {
	b := sess.Validate()
	gas, gasETH := sess.DisplayGas()
	return model.ValidationReport{
		Protocols:     b.Protocols,
		Tokens:        b.Tokens,
		Actions:       b.Actions,
		Total:         b.Total,
		Valid:         b.Valid,
		Report:        b.Report(),
		Status:        sess.Status(),
		DisplayGas:    gas,
		DisplayGasETH: gasETH,
	}
}

func failureNote(res execution.Result) string {
	stage := execution.StateIdle
	if n := len(res.Stages); n > 0 {
		stage = res.Stages[n-1].State
	}
	return fmt.Sprintf("execution %s failed during %s", res.ExecutionID, stage)
}
