package stepflow

import (
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/registry"
)

type dfsDirection uint8

const (
	dirDown dfsDirection = iota
	dirSiblingOrUp
	dirDone
)

type dfsMove uint8

const (
	movedDown dfsMove = iota
	movedSibling
	blockedMove
	bottomReached
	poppedUp
	stackEmpty
)

type gateFunc func(domain.StepID) error

// depthFirstSearch is the traversal cursor over the step tree. The stack
// holds the path from the root to the current step; the direction decides
// whether the next move descends to a first child or slides to a sibling
// after exiting.
//
// A blocked gate leaves both the stack and the direction untouched, so the
// same move is retried on the next advance once state has changed.
type depthFirstSearch struct {
	stack     []domain.StepID
	direction dfsDirection
}

func newDepthFirstSearch(root domain.StepID) *depthFirstSearch {
	return &depthFirstSearch{
		stack:     []domain.StepID{root},
		direction: dirDown,
	}
}

func (d *depthFirstSearch) current() (domain.StepID, bool) {
	if len(d.stack) == 0 {
		return 0, false
	}
	return d.stack[len(d.stack)-1], true
}

func (d *depthFirstSearch) firstChildOf(id domain.StepID, steps *registry.Store[*domain.Step, domain.StepID]) (domain.StepID, bool) {
	step, ok := steps.Get(id)
	if !ok {
		return 0, false
	}
	return step.FirstSubstep()
}

func (d *depthFirstSearch) nextSiblingOfCurrent(steps *registry.Store[*domain.Step, domain.StepID]) (domain.StepID, bool) {
	if len(d.stack) < 2 {
		return 0, false
	}
	parent, ok := steps.Get(d.stack[len(d.stack)-2])
	if !ok {
		return 0, false
	}
	return parent.NextSubstep(d.stack[len(d.stack)-1])
}

func (d *depthFirstSearch) goDown(canEnter gateFunc, steps *registry.Store[*domain.Step, domain.StepID]) (dfsMove, error) {
	cur, ok := d.current()
	if !ok {
		return stackEmpty, nil
	}

	child, ok := d.firstChildOf(cur, steps)
	if !ok {
		return bottomReached, nil
	}
	if err := canEnter(child); err != nil {
		return blockedMove, err
	}
	d.stack = append(d.stack, child)
	return movedDown, nil
}

func (d *depthFirstSearch) goSiblingOrUp(canEnter, canExit gateFunc, steps *registry.Store[*domain.Step, domain.StepID]) (dfsMove, error) {
	cur, ok := d.current()
	if !ok {
		return stackEmpty, nil
	}

	if err := canExit(cur); err != nil {
		return blockedMove, err
	}

	sibling, ok := d.nextSiblingOfCurrent(steps)
	if !ok {
		d.stack = d.stack[:len(d.stack)-1]
		return poppedUp, nil
	}
	if err := canEnter(sibling); err != nil {
		return blockedMove, err
	}
	d.stack[len(d.stack)-1] = sibling
	return movedSibling, nil
}

// advance moves the cursor to the next enterable leaf. It returns the new
// current step, false when the whole tree has been traversed, or the gate
// error when a step refuses entry or exit.
func (d *depthFirstSearch) advance(canEnter, canExit gateFunc, steps *registry.Store[*domain.Step, domain.StepID]) (domain.StepID, bool, error) {
	dir := d.direction
	var blocked error

walk:
	for {
		var move dfsMove
		var moveErr error
		switch dir {
		case dirDown:
			move, moveErr = d.goDown(canEnter, steps)
		case dirSiblingOrUp:
			move, moveErr = d.goSiblingOrUp(canEnter, canExit, steps)
		case dirDone:
			move = stackEmpty
		}

		switch move {
		case movedDown, movedSibling:
			// keep descending to the deepest enterable step
			dir = dirDown
		case bottomReached:
			dir = dirSiblingOrUp
			break walk
		case poppedUp:
			dir = dirSiblingOrUp
		case blockedMove:
			blocked = moveErr
			break walk
		case stackEmpty:
			dir = dirDone
			break walk
		}
	}

	d.direction = dir
	if blocked != nil {
		return 0, false, blocked
	}
	if dir == dirDone {
		return 0, false, nil
	}
	cur, ok := d.current()
	if !ok {
		return 0, false, errNoCurrentStep
	}
	return cur, true, nil
}
