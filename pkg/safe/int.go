package safe

import (
	"fmt"
	"math"
)

// IntFromUint64 converts a uint64 to int with overflow validation. Lengths
// decoded from untrusted wire data go through here before they size loops or
// allocations.
func IntFromUint64(v uint64) (int, error) {
	if v > math.MaxInt {
		return 0, fmt.Errorf("value %d out of int range", v)
	}
	return int(v), nil
}

// Int64FromUint64 converts a uint64 to int64 with overflow validation.
func Int64FromUint64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("value %d out of int64 range", v)
	}
	return int64(v), nil
}
