package combogen

import (
	"fmt"
	"strconv"
	"strings"

	comboerrors "github.com/tamirms/combogen/errors"
)

// MaxLength is the longest tuple a single-dictionary generator produces.
// Longer lengths in a range are skipped, not rejected.
const MaxLength = 256

// LengthRange is an inclusive, ascending range of tuple lengths.
type LengthRange struct {
	Min, Max int
}

// SingleLength returns the range [n, n].
func SingleLength(n int) LengthRange {
	return LengthRange{Min: n, Max: n}
}

// ParseLengthRange parses "12" or "8-12".
func ParseLengthRange(s string) (LengthRange, error) {
	lo, hi, isRange := strings.Cut(strings.TrimSpace(s), "-")
	minLen, err := strconv.Atoi(lo)
	if err != nil {
		return LengthRange{}, fmt.Errorf("%w: %w: %q", comboerrors.ErrConfiguration, comboerrors.ErrInvalidLength, s)
	}
	maxLen := minLen
	if isRange {
		if maxLen, err = strconv.Atoi(hi); err != nil {
			return LengthRange{}, fmt.Errorf("%w: %w: %q", comboerrors.ErrConfiguration, comboerrors.ErrInvalidLength, s)
		}
	}
	r := LengthRange{Min: minLen, Max: maxLen}
	return r, r.Validate()
}

// Validate checks 1 <= Min <= Max.
func (r LengthRange) Validate() error {
	switch {
	case r.Min < 1:
		return fmt.Errorf("%w: %w: length %d is below 1", comboerrors.ErrConfiguration, comboerrors.ErrInvalidLength, r.Min)
	case r.Max < r.Min:
		return fmt.Errorf("%w: %w: range %d-%d is descending", comboerrors.ErrConfiguration, comboerrors.ErrInvalidLength, r.Min, r.Max)
	}
	return nil
}

func (r LengthRange) String() string {
	if r.Min == r.Max {
		return strconv.Itoa(r.Min)
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}
