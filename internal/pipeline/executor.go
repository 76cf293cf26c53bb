package pipeline

import (
	"context"
	"fmt"
	"maps"

	"github.com/rs/zerolog"
	"go.starlark.net/starlark"

	"github.com/marcelocantos/piep/internal/shell"
	"github.com/marcelocantos/piep/internal/value"
)

// Run applies the stages, left to right, to input and returns the
// resulting sequence. The process registry attached to thread (see
// value.WithRegistry) is checkpointed after every stage, after every
// GLOBAL expression and after every plain expression of a LINE stage.
//
// LINE stages are attached lazily: their expressions run as elements are
// pulled from the result, so the caller must drain it and checkpoint the
// registry once more at the end. User errors are returned unmodified.
func (p *Program) Run(ctx context.Context, thread *starlark.Thread, input *value.Sequence) (*value.Sequence, error) {
	log := zerolog.Ctx(ctx)
	reg := value.RegistryOf(thread)
	globals := maps.Clone(p.env)

	cur := input
	for n, st := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Debug().Int("stage", n).Stringer("mode", st.Mode).Int("exprs", len(st.exprs)).Msg("applying stage")

		var err error
		if st.Mode == ModeGlobal {
			cur, err = st.applyGlobal(thread, globals, cur, reg)
		} else {
			cur, err = st.applyLine(thread, globals, cur, reg)
		}
		if err != nil {
			return nil, err
		}
		if err := checkpoint(reg); err != nil {
			return nil, err
		}
		if err := cur.Err(); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// applyGlobal evaluates each expression against the whole sequence. A
// plain expression replaces the sequence; an assignment binds run globals,
// and replaces the sequence only if it assigns pp. The registry is
// checkpointed after every expression.
func (st *compiledStage) applyGlobal(thread *starlark.Thread, globals starlark.StringDict, cur *value.Sequence, reg *shell.Registry) (*value.Sequence, error) {
	sink := sinkOf(reg)
	for _, e := range st.exprs {
		globals[NameSeq] = cur
		res, err := e.prog.Init(thread, globals)
		if err != nil {
			return nil, err
		}
		next := starlark.Value(cur)
		if e.Assign {
			for renamed, name := range e.targets {
				globals[name] = res[renamed]
				if name == NameSeq {
					next = res[renamed]
				}
			}
		} else {
			next = res[resultName]
		}
		if cur, err = value.Coerce(next, sink); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Source, err)
		}
		if err := checkpoint(reg); err != nil {
			return nil, err
		}
	}
	globals[NameSeq] = cur
	return cur, nil
}

// applyLine attaches the stage to cur as a per-element transform. The
// expressions share a scope, which starts every element from a snapshot of
// the run globals taken now.
func (st *compiledStage) applyLine(thread *starlark.Thread, globals starlark.StringDict, cur *value.Sequence, reg *shell.Registry) (*value.Sequence, error) {
	scope := maps.Clone(globals)
	shadowed := make(starlark.StringDict, len(st.locals))
	for _, name := range st.locals {
		if v, ok := globals[name]; ok {
			shadowed[name] = v
		}
	}

	mapped, err := cur.Seq().Map(func(item starlark.Value, index int) (starlark.Value, bool, error) {
		for _, name := range st.locals {
			if v, ok := shadowed[name]; ok {
				scope[name] = v
			} else {
				delete(scope, name)
			}
		}
		scope[NameItem] = item
		scope[NameIndex] = starlark.MakeInt(index)

		for _, e := range st.exprs {
			res, err := e.prog.Init(thread, scope)
			if err != nil {
				return nil, false, err
			}
			if e.Assign {
				for renamed, name := range e.targets {
					scope[name] = res[renamed]
				}
				continue
			}
			if err := checkpoint(reg); err != nil {
				return nil, false, err
			}
			out, keep, err := value.Reify(thread, res[resultName], scope[NameItem])
			if err != nil || !keep {
				return nil, false, err
			}
			scope[NameItem] = out
		}
		out, keep := value.Keep(scope[NameItem], item)
		return out, keep, nil
	})
	if err != nil {
		return nil, err
	}
	return value.NewSequence(mapped, sinkOf(reg)), nil
}

func checkpoint(reg *shell.Registry) error {
	if reg == nil {
		return nil
	}
	return reg.Checkpoint()
}

// sinkOf keeps a nil registry from becoming a non-nil Sink.
func sinkOf(reg *shell.Registry) value.Sink {
	if reg == nil {
		return nil
	}
	return reg
}
