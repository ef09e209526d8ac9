package params

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/operator-framework/cipcore/internal/engineerr"
)

// FormatVersion is written as a header comment by WriteFile and checked
// (warn-only) by ReadFile, so a parameter file produced by an incompatible
// future core version is identifiable without being rejected outright —
// the specification does not mandate a bit-exact file format, only a
// readable line grammar.
var FormatVersion = semver.MustParse("1.0.0")

// ReadFile parses the line-oriented "name = value" format of the external
// interfaces section: UTF-8 text, "#" line comments, double-quoted strings,
// case-insensitive TRUE|FALSE booleans. Unknown parameter names produce a
// warning on logger and are skipped, not an error. A malformed value aborts
// the read with a line-numbered parse-error. A WriteFile version header
// whose major version differs from FormatVersion, or does not parse,
// produces a warning and the read continues.
func (s *Store) ReadFile(path string, logger *logrus.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return engineerr.Wrap(engineerr.NoFile, "params.ReadFile", path)
		}
		return engineerr.Wrap(engineerr.ReadError, "params.ReadFile", err.Error())
	}
	defer f.Close()

	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if header := strings.TrimSpace(scanner.Text()); strings.HasPrefix(header, "# cipcore parameter file, format ") {
			v := strings.TrimPrefix(header, "# cipcore parameter file, format ")
			if fv, err := semver.Parse(v); err != nil || fv.Major != FormatVersion.Major {
				logger.Warnf("%s:%d: parameter file format %q is not compatible with %s", path, lineNo, v, FormatVersion)
			}
			continue
		}
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, rawValue, err := splitAssignment(line)
		if err != nil {
			return engineerr.Wrap(engineerr.ParseError, "params.ReadFile", fmt.Sprintf("%s:%d: %s", path, lineNo, err))
		}
		if err := s.setFromText(name, rawValue); err != nil {
			if engineerr.Is(err, engineerr.ParameterUnknown) {
				logger.Warnf("%s:%d: unknown parameter %q, skipping", path, lineNo, name)
				continue
			}
			return engineerr.Wrap(engineerr.ParseError, "params.ReadFile", fmt.Sprintf("%s:%d: %s", path, lineNo, err))
		}
	}
	if err := scanner.Err(); err != nil {
		return engineerr.Wrap(engineerr.ReadError, "params.ReadFile", err.Error())
	}
	return nil
}

// WriteFile writes every registered parameter's current value in
// "name = value" form, sorted by name, preceded by a version header
// comment.
func (s *Store) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return engineerr.Wrap(engineerr.FileCreateError, "params.WriteFile", err.Error())
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# cipcore parameter file, format %s\n", FormatVersion)
	for _, name := range s.SortedNames() {
		p, _ := s.Describe(name)
		s.mu.RLock()
		text := formatValue(p)
		s.mu.RUnlock()
		if p.Description != "" {
			fmt.Fprintf(w, "# %s\n", p.Description)
		}
		fmt.Fprintf(w, "%s = %s\n", name, text)
	}
	if err := w.Flush(); err != nil {
		return engineerr.Wrap(engineerr.WriteError, "params.WriteFile", err.Error())
	}
	return nil
}

func stripComment(line string) string {
	inQuotes := false
	for i, r := range line {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case '#':
			if !inQuotes {
				return line[:i]
			}
		}
	}
	return line
}

func splitAssignment(line string) (name, value string, err error) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", errors.Errorf("missing '=' in %q", line)
	}
	name = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if name == "" {
		return "", "", errors.Errorf("empty parameter name in %q", line)
	}
	return name, value, nil
}

func (s *Store) setFromText(name, text string) error {
	p, err := s.Describe(name)
	if err != nil {
		return err
	}
	switch p.Kind {
	case Bool:
		v, err := parseBool(text)
		if err != nil {
			return errWrongValue(name, err.Error())
		}
		return s.SetBool(name, v)
	case Int:
		v, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return errWrongValue(name, "not an integer")
		}
		return s.SetInt(name, int32(v))
	case LongInt:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return errWrongValue(name, "not a long integer")
		}
		return s.SetLongInt(name, v)
	case Real:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return errWrongValue(name, "not a real number")
		}
		return s.SetReal(name, v)
	case Char:
		r, err := parseChar(text)
		if err != nil {
			return errWrongValue(name, err.Error())
		}
		return s.SetChar(name, r)
	case String:
		v, err := parseString(text)
		if err != nil {
			return errWrongValue(name, err.Error())
		}
		return s.SetString(name, v)
	default:
		return errors.Errorf("params: unhandled kind %v", p.Kind)
	}
}

func parseBool(text string) (bool, error) {
	switch strings.ToUpper(text) {
	case "TRUE":
		return true, nil
	case "FALSE":
		return false, nil
	default:
		return false, errors.Errorf("expected TRUE or FALSE, got %q", text)
	}
}

func parseChar(text string) (rune, error) {
	runes := []rune(text)
	if len(runes) != 1 || runes[0] < 0x20 || runes[0] == 0x7f {
		return 0, errors.Errorf("expected a single printable non-control glyph, got %q", text)
	}
	return runes[0], nil
}

func parseString(text string) (string, error) {
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return "", errors.Errorf("string value must be double-quoted, got %q", text)
	}
	return text[1 : len(text)-1], nil
}

func formatValue(p *Parameter) string {
	switch p.Kind {
	case Bool:
		if p.boolVal {
			return "TRUE"
		}
		return "FALSE"
	case Int:
		return strconv.FormatInt(int64(p.intVal), 10)
	case LongInt:
		return strconv.FormatInt(p.longVal, 10)
	case Real:
		return strconv.FormatFloat(p.realVal, 'g', -1, 64)
	case Char:
		return string(p.charVal)
	case String:
		return `"` + p.strVal + `"`
	default:
		return ""
	}
}
