package types

import (
	"encoding/json"
	"math"
	"strconv"
)

// Count is a cumulative integer that may be absent. The zero value is absent.
// Absent is kept distinct from zero through every join and rollup.
type Count struct {
	Value int64
	Valid bool
}

// Some returns a present count
func Some(v int64) Count {
	return Count{Value: v, Valid: true}
}

// None returns an absent count
func None() Count {
	return Count{}
}

// Plus sums two counts, skipping absent operands. Absent + absent is absent.
func (c Count) Plus(o Count) Count {
	switch {
	case c.Valid && o.Valid:
		return Some(c.Value + o.Value)
	case c.Valid:
		return c
	default:
		return o
	}
}

// Minus subtracts o from c. Either operand absent gives absent.
func (c Count) Minus(o Count) Count {
	if !c.Valid || !o.Valid {
		return None()
	}
	return Some(c.Value - o.Value)
}

// Max returns the larger of two counts, skipping absent operands.
func (c Count) Max(o Count) Count {
	switch {
	case c.Valid && o.Valid:
		if o.Value > c.Value {
			return o
		}
		return c
	case c.Valid:
		return c
	default:
		return o
	}
}

// Positive reports whether the count is present and greater than zero.
func (c Count) Positive() bool {
	return c.Valid && c.Value > 0
}

// Float returns the value as float64, NaN when absent.
func (c Count) Float() float64 {
	if !c.Valid {
		return math.NaN()
	}
	return float64(c.Value)
}

// String renders the value, or "NA" when absent.
func (c Count) String() string {
	if !c.Valid {
		return "NA"
	}
	return strconv.FormatInt(c.Value, 10)
}

// MarshalJSON encodes absent as null
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(c.Value, 10)), nil
}

// UnmarshalJSON decodes null as absent
func (c *Count) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = None()
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Some(v)
	return nil
}

// ParseCount parses a CSV cell. An empty cell is absent. Values written
// with a trailing ".0" are accepted since some exports store counts as floats.
func ParseCount(s string) (Count, error) {
	if s == "" {
		return None(), nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Some(v), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return None(), strconv.ErrSyntax
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return None(), strconv.ErrRange
	}
	return Some(int64(f)), nil
}
