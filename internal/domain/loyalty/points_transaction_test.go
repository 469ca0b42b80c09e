package loyalty

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPointsTransaction(t *testing.T) {
	customerID := uuid.New()

	t.Run("earn entry", func(t *testing.T) {
		tx, err := NewPointsTransaction(customerID, PointsTransactionEarn, 20, 120)
		require.NoError(t, err)
		assert.Equal(t, customerID, tx.CustomerID)
		assert.Equal(t, int64(100), tx.BalanceBefore())
		assert.Nil(t, tx.OperatorID)
	})

	t.Run("negative adjustment", func(t *testing.T) {
		tx, err := NewPointsTransaction(customerID, PointsTransactionAdjust, -30, 70)
		require.NoError(t, err)
		assert.Equal(t, int64(100), tx.BalanceBefore())
	})

	t.Run("builders", func(t *testing.T) {
		op := uuid.New()
		tx, err := NewPointsTransaction(customerID, PointsTransactionEarn, 1, 1)
		require.NoError(t, err)
		tx.WithReference("123.456.789-09").WithRemark("balcão").WithOperatorID(op)

		assert.Equal(t, "123.456.789-09", tx.Reference)
		assert.Equal(t, "balcão", tx.Remark)
		require.NotNil(t, tx.OperatorID)
		assert.Equal(t, op, *tx.OperatorID)

		tx.OperatorID = nil
		tx.WithOperatorID(uuid.Nil)
		assert.Nil(t, tx.OperatorID)
	})

	tests := []struct {
		name       string
		customerID uuid.UUID
		txType     PointsTransactionType
		points     int64
		balance    int64
	}{
		{"nil customer", uuid.Nil, PointsTransactionEarn, 1, 1},
		{"unknown type", customerID, "BONUS", 1, 1},
		{"zero points", customerID, PointsTransactionEarn, 0, 1},
		{"negative earn", customerID, PointsTransactionEarn, -1, 1},
		{"negative balance", customerID, PointsTransactionAdjust, -5, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := NewPointsTransaction(tt.customerID, tt.txType, tt.points, tt.balance)
			assert.Error(t, err)
			assert.Nil(t, tx)
		})
	}
}
