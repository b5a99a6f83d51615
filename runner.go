package stepflow

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/schema"
)

// ErrFlowStuck is returned by Runner.Run when no action can fulfill the
// current step and no further input can unblock it.
var ErrFlowStuck = errors.New("no action can fulfill the current step")

// Runner drives a Session interactively using the provided IO. Each time the
// session pauses on a step, the runner prompts for the step's missing output
// vars, validates them through their Var and feeds the result back into
// Advance. Injecting Input/Output keeps the loop testable and
// frontend-agnostic.
type Runner struct {
	Input  io.Reader
	Output io.Writer

	// Headless suppresses prompts and the final summary so scripted input
	// can be piped through without decorative output in the way.
	Headless bool
}

// NewRunner creates a Runner over the given IO.
func NewRunner(in io.Reader, out io.Writer) *Runner {
	return &Runner{Input: in, Output: out}
}

// Run advances the session until it completes, returning ErrFlowStuck if it
// pauses with no way forward and an error if input runs out mid-flow.
func (r *Runner) Run(sess *Session) error {
	if r.Input == nil || r.Output == nil {
		return errors.New("runner input and output must be set")
	}
	scanner := bufio.NewScanner(r.Input)

	var output *StepOutput
	var idleOn domain.StepID
	var wasIdle bool
	for {
		result, err := sess.Advance(output)
		if err != nil {
			return err
		}
		output = nil

		if result.IsComplete() {
			r.printSummary(sess)
			return nil
		}

		if _, val, started := result.IsStartWith(); started && !r.Headless {
			fmt.Fprintln(r.Output, val.String())
		}

		stepID, ok := sess.CurrentStep()
		if !ok {
			return errNoCurrentStep
		}
		step, ok := sess.Steps().Get(stepID)
		if !ok {
			return fmt.Errorf("session paused on unknown step %s", stepID)
		}

		missing := make([]schema.VarID, 0, len(step.OutputVars()))
		for _, varID := range step.OutputVars() {
			if !sess.StateData().Contains(varID) {
				missing = append(missing, varID)
			}
		}
		if len(missing) == 0 {
			// nothing left to collect here. Pausing twice in a row on
			// the same fully-supplied step means no input will ever
			// unblock the flow.
			if wasIdle && idleOn == stepID {
				return ErrFlowStuck
			}
			wasIdle, idleOn = true, stepID
			continue
		}
		wasIdle = false

		data := schema.NewStateData()
		for _, varID := range missing {
			v, ok := sess.Vars().Get(varID)
			if !ok {
				return fmt.Errorf("step %s outputs unknown var %s", stepID, varID)
			}
			if err := r.collect(scanner, sess, v, data); err != nil {
				return err
			}
		}
		output = &StepOutput{Step: stepID, Data: data}
	}
}

// collect prompts for one var until a valid value is read.
func (r *Runner) collect(scanner *bufio.Scanner, sess *Session, v schema.Var, data *schema.StateData) error {
	name := r.varName(sess, v.ID())
	for {
		if !r.Headless {
			fmt.Fprintf(r.Output, "%s: ", name)
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return fmt.Errorf("input ended while reading %s: %w", name, io.ErrUnexpectedEOF)
		}
		line := strings.TrimSpace(scanner.Text())

		value, err := v.ValueFromString(line)
		if err == nil {
			err = data.Insert(v, value)
		}
		if err != nil {
			fmt.Fprintf(r.Output, "invalid %s: %s\n", name, err)
			continue
		}
		return nil
	}
}

func (r *Runner) varName(sess *Session, id schema.VarID) string {
	if name, ok := sess.Vars().NameFromID(id); ok {
		return name
	}
	return id.String()
}

func (r *Runner) printSummary(sess *Session) {
	if r.Headless {
		return
	}
	fmt.Fprintln(r.Output, "flow complete")

	lines := make([]string, 0, sess.StateData().Len())
	sess.StateData().Each(func(id schema.VarID, vv schema.ValidVal) {
		lines = append(lines, fmt.Sprintf("  %s = %s", r.varName(sess, id), vv.Value().String()))
	})
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintln(r.Output, line)
	}
}
