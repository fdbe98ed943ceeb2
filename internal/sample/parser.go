// Package sample implements the line grammar and typed metric model: turning
// one text line into a typed Sample, and grouping kind-specific fold rules
// around it.
package sample

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// line matches "<key>:<value>|<kind>[|@<flag>]", anchored, no trailing
// whitespace. Numeric tokens are validated further by parseNumber since the
// character class alone admits malformed tokens like "-", ".", or "1.2.3".
var line = regexp.MustCompile(`^([A-Za-z0-9._\-]+):(-?[0-9.]+)\|([a-z]+)(?:\|@([0-9.]+))?$`)

// ParseError reports a line that did not match the grammar or named an
// unknown kind token. It never aborts a batch; callers log and skip.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("statsite: cannot parse line %q: %s", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse turns one line into a Sample, or reports a ParseError. A blank line
// does not match the grammar and is reported as a ParseError, so callers
// that treat blank lines as skippable filter them out first (Batch does this).
func Parse(l string) (Sample, error) {
	m := line.FindStringSubmatch(l)
	if m == nil {
		return Sample{}, &ParseError{Line: l, Err: fmt.Errorf("does not match metric grammar")}
	}

	key, valueTok, kindTok, flagTok := m[1], m[2], m[3], m[4]

	kind, ok := LookupKind(kindTok)
	if !ok {
		return Sample{}, &ParseError{Line: l, Err: fmt.Errorf("unknown kind %q", kindTok)}
	}

	value, err := parseNumber(valueTok)
	if err != nil {
		return Sample{}, &ParseError{Line: l, Err: fmt.Errorf("bad value %q: %w", valueTok, err)}
	}

	s := Sample{Key: key, Value: value, Kind: kind}
	if flagTok != "" {
		flag, err := parseNumber(flagTok)
		if err != nil {
			return Sample{}, &ParseError{Line: l, Err: fmt.Errorf("bad flag %q: %w", flagTok, err)}
		}
		s.Flag = flag
		s.HasFlag = true
	}
	return s, nil
}

// parseNumber rejects the malformed forms the grammar's character class
// still admits: "-" alone, "." alone, and multi-dot tokens.
func parseNumber(tok string) (Number, error) {
	if strings.Contains(tok, ".") {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return Number{}, err
		}
		return FloatNumber(f), nil
	}
	i, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return Number{}, err
	}
	return IntNumber(i), nil
}

// Batch splits blob on '\n' (a bare '\r' is not a delimiter), parses every
// non-blank line, and reports each malformed line through onError rather than
// aborting the rest of the batch. onError may be nil.
func Batch(blob []byte, onError func(*ParseError)) []Sample {
	lines := strings.Split(string(blob), "\n")
	out := make([]Sample, 0, len(lines))
	for _, l := range lines {
		if l == "" {
			continue
		}
		s, err := Parse(l)
		if err != nil {
			if onError != nil {
				var pe *ParseError
				if errors.As(err, &pe) {
					onError(pe)
				}
			}
			continue
		}
		out = append(out, s)
	}
	return out
}
