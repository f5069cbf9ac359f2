package combogen

import (
	"fmt"
	"math"
	"os"

	comboerrors "github.com/tamirms/combogen/errors"
	"lukechampine.com/uint128"
)

// Reserve asks the filesystem to set aside size bytes for f without changing
// its length. Sizes beyond int64 are not reservable and are ignored.
// Callers typically pass the result of EstimatePower or EstimateProduct.
func Reserve(f *os.File, size uint128.Uint128) error {
	if size.IsZero() || size.Hi != 0 || size.Lo > math.MaxInt64 {
		return nil
	}
	if err := reserveFile(f, int64(size.Lo)); err != nil {
		return fmt.Errorf("%w: reserve %d bytes for %s: %w", comboerrors.ErrIO, size.Lo, f.Name(), err)
	}
	return nil
}
