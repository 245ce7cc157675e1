package settlement

import (
	"errors"
	"fmt"

	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/shopspring/decimal"
)

// ErrInvalidSlabConfiguration is returned when the slab configuration cannot yield a
// usable charge for an amount.
var ErrInvalidSlabConfiguration = errors.New("invalid slab configuration")

// slabCharge evaluates one slab against an amount.
func slabCharge(slab models.ChargeSlab, amount int64) (int64, error) {
	switch slab.ChargeType {
	case models.ChargeFixed, "":
		return slab.Charge, nil
	case models.ChargePercent:
		charge := decimal.NewFromInt(amount).
			Mul(slab.Value).
			Div(decimal.NewFromInt(100)).
			Round(0).IntPart()
		if slab.MinCharge > 0 && charge < slab.MinCharge {
			charge = slab.MinCharge
		}
		if slab.MaxCharge > 0 && charge > slab.MaxCharge {
			charge = slab.MaxCharge
		}
		return charge, nil
	default:
		return 0, fmt.Errorf("%w: unrecognized charge type %q", ErrInvalidSlabConfiguration, slab.ChargeType)
	}
}

// ComputeCharge picks the charge for a settlement amount: the lowest charge among
// active slabs whose [min_amount, max_amount] range contains the amount, or
// defaultCharge when no slab matches.
func ComputeCharge(slabs []models.ChargeSlab, amount, defaultCharge int64) (int64, error) {
	best := int64(-1)
	for _, slab := range slabs {
		if !slab.IsActive || amount < slab.MinAmount || amount > slab.MaxAmount {
			continue
		}
		charge, err := slabCharge(slab, amount)
		if err != nil {
			return 0, err
		}
		if charge < 0 {
			return 0, fmt.Errorf("%w: slab %s yields negative charge %d", ErrInvalidSlabConfiguration, slab.ID, charge)
		}
		if best < 0 || charge < best {
			best = charge
		}
	}

	if best < 0 {
		best = defaultCharge
	}
	if best >= amount {
		return 0, fmt.Errorf("%w: charge %d consumes the whole amount %d", ErrInvalidSlabConfiguration, best, amount)
	}
	return best, nil
}
