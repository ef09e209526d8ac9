// Package reader defines the file reader plugin contract: a pluggable
// mapping from a file extension to a parser that builds a problem
// instance, plus a trivial built-in ".txt" reader exercising the contract
// end to end without depending on any particular external file format.
package reader

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/operator-framework/cipcore/internal/engineerr"
)

// Problem is the minimal parsed-instance shape a reader produces: one
// variable per name with an objective coefficient and bounds, handed to
// pkg/cip to build the transformed problem.
type Problem struct {
	Variables []VariableSpec
}

// VariableSpec is one variable line read from a problem file.
type VariableSpec struct {
	Name         string
	ObjCoef      float64
	Lower, Upper float64
	IsInteger    bool
}

// Reader parses one file format into a Problem.
type Reader struct {
	Name      string
	Extension string // e.g. ".txt", without a leading dot requirement enforced
	Read      func(r io.Reader) (Problem, error)
}

// Registry maps file extensions to readers.
type Registry struct {
	byExt map[string]*Reader
}

// NewRegistry returns an empty reader registry.
func NewRegistry() *Registry { return &Registry{byExt: make(map[string]*Reader)} }

// Register associates r with its extension, replacing any existing reader
// for that extension.
func (reg *Registry) Register(r *Reader) { reg.byExt[r.Extension] = r }

// Lookup returns the reader registered for ext, or nil.
func (reg *Registry) Lookup(ext string) *Reader { return reg.byExt[ext] }

// Plain is the built-in ".txt" reader: one variable per non-blank,
// non-comment line, "name objcoef lower upper [int]", whitespace
// separated. It exists to give the registry a working default without
// committing the module to any particular industry file format.
var Plain = &Reader{
	Name:      "plain",
	Extension: ".txt",
	Read: func(r io.Reader) (Problem, error) {
		var p Problem
		scanner := bufio.NewScanner(r)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) < 4 {
				return Problem{}, engineerr.Wrap(engineerr.ParseError, "reader.Plain", "line "+strconv.Itoa(lineNo)+": expected at least 4 fields")
			}
			obj, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return Problem{}, engineerr.Wrap(engineerr.ParseError, "reader.Plain", "line "+strconv.Itoa(lineNo)+": bad objective coefficient")
			}
			lo, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return Problem{}, engineerr.Wrap(engineerr.ParseError, "reader.Plain", "line "+strconv.Itoa(lineNo)+": bad lower bound")
			}
			hi, err := strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return Problem{}, engineerr.Wrap(engineerr.ParseError, "reader.Plain", "line "+strconv.Itoa(lineNo)+": bad upper bound")
			}
			isInt := len(fields) >= 5 && fields[4] == "int"
			p.Variables = append(p.Variables, VariableSpec{Name: fields[0], ObjCoef: obj, Lower: lo, Upper: hi, IsInteger: isInt})
		}
		if err := scanner.Err(); err != nil {
			return Problem{}, engineerr.Wrap(err, "reader.Plain", "scan")
		}
		return p, nil
	},
}
