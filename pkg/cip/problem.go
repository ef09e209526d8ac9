// Package cip builds and transforms problem instances: the mapping from a
// reader-produced Problem into active variable.Variable records, the
// original-to-transformed bookkeeping spec §4.2 requires, and the file
// format's version header.
package cip

import (
	"github.com/blang/semver/v4"

	"github.com/operator-framework/cipcore/pkg/plugin/reader"
	"github.com/operator-framework/cipcore/pkg/variable"
)

// FormatVersion is the current problem-file format version. Nothing in this
// module writes or checks it: the plain-text reader has no version header.
var FormatVersion = semver.MustParse("1.0.0")

// Problem is a constructed, transform-ready instance: its original
// variables and, once Transform is called, their transformed counterparts
// (spec §4.2's original/transformed split).
type Problem struct {
	Original    []*variable.Variable
	Transformed []*variable.Variable
}

// Build constructs a Problem's original variables from a parsed reader.Problem.
func Build(p reader.Problem) *Problem {
	vars := make([]*variable.Variable, 0, len(p.Variables))
	for i, spec := range p.Variables {
		kind := variable.Continuous
		if spec.IsInteger {
			kind = variable.Integer
		}
		vars = append(vars, &variable.Variable{
			Index:   variable.Index(i),
			Name:    spec.Name,
			Kind:    kind,
			ObjCoef: spec.ObjCoef,
			Status:  variable.StatusActive,
			Global:  variable.Bounds{Lower: spec.Lower, Upper: spec.Upper},
			Local:   variable.Bounds{Lower: spec.Lower, Upper: spec.Upper},
		})
	}
	return &Problem{Original: vars}
}

// Transform builds the transformed representative of every original
// variable, populating Transformed in the same order as Original. Calling
// Transform twice is a no-op on variables already transformed (Transform
// on the underlying variable.Variable is itself idempotent).
func (p *Problem) Transform() {
	p.Transformed = make([]*variable.Variable, len(p.Original))
	for i, v := range p.Original {
		p.Transformed[i] = v.Transform()
	}
}

// ByName returns the transformed variable with the given name, or nil.
func (p *Problem) ByName(name string) *variable.Variable {
	for _, v := range p.Transformed {
		if v.Name == name {
			return v
		}
	}
	return nil
}
