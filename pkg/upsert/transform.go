package upsert

import (
	"fmt"
	"math"
	"time"
)

// BoolAsInt binds booleans as 0/1 for stores without a boolean type
func BoolAsInt(_ string, value any) (any, error) {
	if b, ok := value.(bool); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	return value, nil
}

// FiniteFloat rejects NaN and infinite floats, which SQLite would bind as NULL
func FiniteFloat(_ string, value any) (any, error) {
	if f, ok := value.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil, fmt.Errorf("%w: %v", ErrNonFiniteValue, f)
	}
	return value, nil
}

// TimeAsDate binds time values as UTC text in the given layout
func TimeAsDate(layout string) Transform {
	return func(_ string, value any) (any, error) {
		if t, ok := value.(time.Time); ok {
			return t.UTC().Format(layout), nil
		}
		return value, nil
	}
}

// Chain applies transforms in order, stopping at the first error
func Chain(transforms ...Transform) Transform {
	return func(column string, value any) (any, error) {
		var err error
		for _, fn := range transforms {
			value, err = fn(column, value)
			if err != nil {
				return nil, err
			}
		}
		return value, nil
	}
}
