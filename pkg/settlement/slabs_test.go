package settlement

import (
	"testing"

	"github.com/resellpay/wallet-engine/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCharge(t *testing.T) {
	t.Run("Fixed Slab Match", func(t *testing.T) {
		slabs := []models.ChargeSlab{
			{ID: "low", MinAmount: 10000, MaxAmount: 100000, ChargeType: models.ChargeFixed, Charge: 50, IsActive: true},
			{ID: "high", MinAmount: 100001, MaxAmount: 10000000, ChargeType: models.ChargeFixed, Charge: 200, IsActive: true},
		}

		charge, err := ComputeCharge(slabs, 50000, 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(50), charge)

		charge, err = ComputeCharge(slabs, 200000, 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(200), charge)
	})

	t.Run("Overlapping Slabs Pick Lowest Charge", func(t *testing.T) {
		slabs := []models.ChargeSlab{
			{ID: "a", MinAmount: 0, MaxAmount: 100000, ChargeType: models.ChargeFixed, Charge: 80, IsActive: true},
			{ID: "b", MinAmount: 10000, MaxAmount: 100000, ChargeType: models.ChargeFixed, Charge: 50, IsActive: true},
		}

		charge, err := ComputeCharge(slabs, 50000, 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(50), charge)
	})

	t.Run("Inactive Slab Ignored", func(t *testing.T) {
		slabs := []models.ChargeSlab{
			{ID: "off", MinAmount: 0, MaxAmount: 100000, ChargeType: models.ChargeFixed, Charge: 10, IsActive: false},
		}

		charge, err := ComputeCharge(slabs, 50000, 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), charge)
	})

	t.Run("Percent Slab With Clamps", func(t *testing.T) {
		slabs := []models.ChargeSlab{
			{
				ID:         "pct",
				MinAmount:  0,
				MaxAmount:  10000000,
				ChargeType: models.ChargePercent,
				Value:      decimal.NewFromFloat(0.5),
				MinCharge:  100,
				MaxCharge:  2000,
				IsActive:   true,
			},
		}

		// 0.5% of 100000 = 500.
		charge, err := ComputeCharge(slabs, 100000, 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(500), charge)

		// 0.5% of 10000 = 50, clamped up to MinCharge.
		charge, err = ComputeCharge(slabs, 10000, 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(100), charge)

		// 0.5% of 1000000 = 5000, clamped down to MaxCharge.
		charge, err = ComputeCharge(slabs, 1000000, 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(2000), charge)
	})

	t.Run("Default Charge When No Slab Matches", func(t *testing.T) {
		charge, err := ComputeCharge(nil, 50000, 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), charge)
	})

	t.Run("Charge Consuming The Amount Is Rejected", func(t *testing.T) {
		slabs := []models.ChargeSlab{
			{ID: "bad", MinAmount: 0, MaxAmount: 1000, ChargeType: models.ChargeFixed, Charge: 1000, IsActive: true},
		}

		_, err := ComputeCharge(slabs, 1000, 1000)
		assert.ErrorIs(t, err, ErrInvalidSlabConfiguration)
	})

	t.Run("Unknown Charge Type Is Rejected", func(t *testing.T) {
		slabs := []models.ChargeSlab{
			{ID: "bad", MinAmount: 0, MaxAmount: 100000, ChargeType: "tiered", Charge: 10, IsActive: true},
		}

		_, err := ComputeCharge(slabs, 50000, 1000)
		assert.ErrorIs(t, err, ErrInvalidSlabConfiguration)
	})
}
