package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/trustbooks/backend/internal/models"
)

func TestNewBalance(t *testing.T) {
	d := func(s string) decimal.Decimal {
		return decimal.RequireFromString(s)
	}

	t.Run("deposit adds", func(t *testing.T) {
		got, err := NewBalance(d("0.00"), models.TypeDeposit, d("1000.00"))
		assert.NoError(t, err)
		assert.True(t, got.Equal(d("1000.00")), "got %s", got)
	})

	t.Run("interest adds", func(t *testing.T) {
		got, err := NewBalance(d("250.10"), models.TypeInterest, d("0.15"))
		assert.NoError(t, err)
		assert.True(t, got.Equal(d("250.25")), "got %s", got)
	})

	t.Run("withdrawal subtracts", func(t *testing.T) {
		got, err := NewBalance(d("1000.00"), models.TypeWithdrawal, d("300.00"))
		assert.NoError(t, err)
		assert.True(t, got.Equal(d("700.00")), "got %s", got)
	})

	t.Run("fee subtracts", func(t *testing.T) {
		got, err := NewBalance(d("700.00"), models.TypeFee, d("25.50"))
		assert.NoError(t, err)
		assert.True(t, got.Equal(d("674.50")), "got %s", got)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		_, err := NewBalance(d("100.00"), "TRANSFER", d("10.00"))
		assert.ErrorIs(t, err, ErrInvalidType)
	})

	t.Run("no float drift over many small amounts", func(t *testing.T) {
		// 0.10 added a thousand times must be exactly 100.00.
		balance := decimal.Zero
		var err error
		for i := 0; i < 1000; i++ {
			balance, err = NewBalance(balance, models.TypeDeposit, d("0.10"))
			assert.NoError(t, err)
		}
		assert.True(t, balance.Equal(d("100.00")), "got %s", balance)
	})
}

func TestTransactionTypeHelpers(t *testing.T) {
	assert.True(t, models.IsCredit(models.TypeDeposit))
	assert.True(t, models.IsCredit(models.TypeInterest))
	assert.False(t, models.IsCredit(models.TypeWithdrawal))
	assert.False(t, models.IsCredit(models.TypeFee))

	assert.True(t, models.ValidType(models.TypeFee))
	assert.False(t, models.ValidType(""))
	assert.False(t, models.ValidType("deposit"))
}
