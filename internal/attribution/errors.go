package attribution

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ReconciliationError reports a pool whose owner breakdown does not add up to
// the pool totals. It rejects the whole tree.
type ReconciliationError struct {
	Token     common.Address
	Pool      common.Address
	Quantity  string
	Expected  *big.Int
	Actual    *big.Int
	Tolerance *big.Int
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("token %s pool %s: %s sum %s does not match %s (tolerance %s)",
		e.Token.Hex(), e.Pool.Hex(), e.Quantity, e.Actual, e.Expected, e.Tolerance)
}
