package sample

import "strconv"

// Number preserves the int-vs-float distinction of a wire token through to
// output formatting: a token with no decimal point stays an integer, a token
// with one becomes a float, matching the platform's default numeric-to-decimal
// conversion for each form.
type Number struct {
	i     int64
	f     float64
	isInt bool
}

func IntNumber(i int64) Number { return Number{i: i, isInt: true} }

func FloatNumber(f float64) Number { return Number{f: f} }

func (n Number) IsInt() bool { return n.isInt }

func (n Number) Int64() int64 {
	if n.isInt {
		return n.i
	}
	return int64(n.f)
}

// Float64 is the value's numeric form regardless of how it was represented.
func (n Number) Float64() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

func (n Number) String() string {
	if n.isInt {
		return strconv.FormatInt(n.i, 10)
	}
	return strconv.FormatFloat(n.f, 'f', -1, 64)
}

// Sample is the in-memory form of one parsed line.
type Sample struct {
	Key     string
	Value   Number
	Kind    Kind
	Flag    Number
	HasFlag bool
}

// Rate returns the Counter sample rate carried in Flag, defaulting to 1 when
// absent. Meaningless for kinds other than Counter.
func (s Sample) Rate() float64 {
	if !s.HasFlag {
		return 1
	}
	r := s.Flag.Float64()
	if r <= 0 {
		return 1
	}
	return r
}

// Timestamp returns the KeyValue sample's effective timestamp: the explicit
// flag if present, else the fold's capture of "now". Meaningless for kinds
// other than KeyValue.
func (s Sample) Timestamp(now int64) int64 {
	if s.HasFlag {
		return s.Flag.Int64()
	}
	return now
}
