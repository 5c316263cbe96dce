package roi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

const infinityLiteral = "Infinity"

// Horizon is an inference count: a non-negative integer or unbounded
type Horizon struct {
	count    int64
	infinite bool
}

// Finite returns a horizon of n inferences. Negative counts are clamped to 0
func Finite(n int64) Horizon {
	if n < 0 {
		n = 0
	}
	return Horizon{count: n}
}

// Infinite returns the unbounded horizon used for asymptotic ROI
func Infinite() Horizon { return Horizon{infinite: true} }

func (h Horizon) IsInfinite() bool { return h.infinite }

// Count returns the finite inference count, or 0 for the infinite horizon
func (h Horizon) Count() int64 {
	if h.infinite {
		return 0
	}
	return h.count
}

func (h Horizon) String() string {
	if h.infinite {
		return infinityLiteral
	}
	return strconv.FormatInt(h.count, 10)
}

func (h Horizon) MarshalJSON() ([]byte, error) {
	if h.infinite {
		return json.Marshal(infinityLiteral)
	}
	return json.Marshal(h.count)
}

func (h *Horizon) UnmarshalJSON(data []byte) error {
	inf, n, err := parseCount(data)
	if err != nil {
		return fmt.Errorf("horizon: %w", err)
	}
	if inf {
		*h = Infinite()
		return nil
	}
	if n < 0 {
		return fmt.Errorf("horizon: %w", ErrInvalidInferenceCount)
	}
	*h = Finite(n)
	return nil
}

// BreakEven is the inference count after which the tactic has paid for its
// implementation cost. Never marks a tactic that does not reduce cost
type BreakEven struct {
	Inferences int64
	Never      bool
}

func (b BreakEven) String() string {
	if b.Never {
		return infinityLiteral
	}
	return strconv.FormatInt(b.Inferences, 10)
}

// Float returns the break-even point as a float, +Inf when it never occurs
func (b BreakEven) Float() float64 {
	if b.Never {
		return math.Inf(1)
	}
	return float64(b.Inferences)
}

func (b BreakEven) MarshalJSON() ([]byte, error) {
	if b.Never {
		return json.Marshal(infinityLiteral)
	}
	return json.Marshal(b.Inferences)
}

func (b *BreakEven) UnmarshalJSON(data []byte) error {
	inf, n, err := parseCount(data)
	if err != nil {
		return fmt.Errorf("break-even: %w", err)
	}
	*b = BreakEven{Inferences: n, Never: inf}
	return nil
}

func parseCount(data []byte) (infinite bool, n int64, err error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return false, 0, err
		}
		if s == infinityLiteral || s == "inf" || s == "+Infinity" {
			return true, 0, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		return false, n, err
	}
	err = json.Unmarshal(data, &n)
	return false, n, err
}
