package ledger

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func item(id int64, unit string) LineItem {
	return LineItem{ProductID: id, Name: "P", UnitValue: decimal.RequireFromString(unit)}
}

func TestAddMergesSameProduct(t *testing.T) {
	var l Ledger
	require.NoError(t, l.Add(item(1, "3.50")))
	require.NoError(t, l.Add(item(1, "3.50")))

	require.Equal(t, 1, l.Len())
	assert.Equal(t, 2, l.Items()[0].Quantity)
	assert.True(t, decimal.RequireFromString("7").Equal(l.Total()))
}

func TestAppendKeepsIndependentRows(t *testing.T) {
	var l Ledger
	first := item(1, "2.00")
	first.Quantity = 10
	second := item(1, "2.40")
	second.Quantity = 5
	require.NoError(t, l.Append(first))
	require.NoError(t, l.Append(second))

	require.Equal(t, 2, l.Len())
	assert.True(t, decimal.RequireFromString("32").Equal(l.Total()))
}

func TestAppendRejectsInvalidRows(t *testing.T) {
	var l Ledger
	zero := item(1, "1.00")
	assert.ErrorIs(t, l.Append(zero), shared.ErrValidation)

	negative := item(1, "-1")
	negative.Quantity = 1
	assert.ErrorIs(t, l.Append(negative), shared.ErrValidation)

	noProduct := item(0, "1")
	noProduct.Quantity = 1
	assert.ErrorIs(t, l.Append(noProduct), shared.ErrValidation)
	assert.True(t, l.Empty())
}

func TestAdjustClampsToOne(t *testing.T) {
	var l Ledger
	require.NoError(t, l.Add(item(1, "1.00")))
	require.NoError(t, l.Adjust(1, 4))
	assert.Equal(t, 5, l.Items()[0].Quantity)

	require.NoError(t, l.Adjust(1, -999))
	assert.Equal(t, 1, l.Items()[0].Quantity)

	require.NoError(t, l.AdjustAt(0, -3))
	assert.Equal(t, 1, l.Items()[0].Quantity)

	assert.ErrorIs(t, l.Adjust(99, 1), shared.ErrNotFound)
	assert.ErrorIs(t, l.AdjustAt(3, 1), shared.ErrNotFound)
}

func TestRemoveLeavesOtherRows(t *testing.T) {
	var l Ledger
	require.NoError(t, l.Add(item(1, "1.00")))
	require.NoError(t, l.Add(item(2, "2.00")))
	require.NoError(t, l.Adjust(2, 2))
	require.NoError(t, l.Add(item(3, "3.00")))

	require.NoError(t, l.Remove(1))
	require.NoError(t, l.RemoveAt(1))
	items := l.Items()
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].ProductID)
	assert.Equal(t, 3, items[0].Quantity)

	assert.ErrorIs(t, l.Remove(1), shared.ErrNotFound)
	assert.ErrorIs(t, l.RemoveAt(-1), shared.ErrNotFound)
}

func TestAppendedRowsRemovedByIndex(t *testing.T) {
	var l Ledger
	for _, unit := range []string{"2.00", "2.40", "2.10"} {
		row := item(7, unit)
		row.Quantity = 1
		require.NoError(t, l.Append(row))
	}

	require.NoError(t, l.RemoveAt(1))
	require.Equal(t, 2, l.Len())
	assert.True(t, decimal.RequireFromString("4.10").Equal(l.Total()))

	require.NoError(t, l.Remove(7))
	assert.True(t, l.Empty())
}

func TestTotalMatchesRowsAfterRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var l Ledger
	for step := 0; step < 500; step++ {
		id := int64(rng.Intn(6) + 1)
		switch rng.Intn(4) {
		case 0:
			_ = l.Add(item(id, decimal.NewFromFloat(float64(id)*1.15).String()))
		case 1:
			it := item(id, "0.99")
			it.Quantity = rng.Intn(5) + 1
			_ = l.Append(it)
		case 2:
			_ = l.Adjust(id, rng.Intn(7)-3)
		case 3:
			_ = l.Remove(id)
		}

		want := decimal.Zero
		for _, it := range l.Items() {
			require.GreaterOrEqual(t, it.Quantity, 1)
			want = want.Add(it.UnitValue.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
		require.True(t, want.Equal(l.Total()), "step %d: total drifted", step)
	}
}

func TestRowsCarrySubtotalAndItemsAreCopies(t *testing.T) {
	var l Ledger
	require.NoError(t, l.Add(item(1, "2.50")))
	require.NoError(t, l.Adjust(1, 1))

	rows := l.Rows()
	require.Len(t, rows, 1)
	assert.True(t, decimal.RequireFromString("5").Equal(rows[0].Subtotal))

	items := l.Items()
	items[0].Quantity = 100
	assert.Equal(t, 2, l.Items()[0].Quantity)

	l.Clear()
	assert.True(t, l.Empty())
	assert.True(t, l.Total().IsZero())
}
