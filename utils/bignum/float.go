package bignum

import (
	"fmt"
	"math/big"
)

// ToFloat takes a
// - uint64, int64, int, float64,
// - *big.Int, big.Int,
// - *big.Float, big.Float
// and returns a *big.Float set to the given precision.
func ToFloat(value interface{}, prec uint) (f *big.Float) {

	f = new(big.Float)
	f.SetPrec(prec)

	switch value := value.(type) {
	case float64:
		f.SetFloat64(value)
	case int:
		f.SetInt64(int64(value))
	case int64:
		f.SetInt64(value)
	case uint64:
		f.SetUint64(value)
	case *big.Int:
		f.SetInt(value)
	case big.Int:
		f.SetInt(&value)
	case *big.Float:
		f.Set(value)
	case big.Float:
		f.Set(&value)
	default:
		panic(fmt.Errorf("invalid value.(type): must be int, int64, uint64, float64, *big.Int, big.Int, *big.Float or big.Float but is %T", value))
	}

	return
}
