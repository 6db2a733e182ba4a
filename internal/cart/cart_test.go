package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestReduceAddIncrementsExistingLine(t *testing.T) {
	s := State{}
	line := Line{ProductID: 1, VariantID: intPtr(10), BasePrice: dec("100"), Quantity: 1}

	s = Reduce(s, Action{Type: ActionAdd, Line: line})
	s = Reduce(s, Action{Type: ActionAdd, Line: Line{ProductID: 1, VariantID: intPtr(10), BasePrice: dec("100"), Quantity: 2}})

	require.Len(t, s.Items, 1)
	assert.Equal(t, 3, s.Items[0].Quantity)
}

func TestReduceAddDistinguishesVariants(t *testing.T) {
	s := State{}
	s = Reduce(s, Action{Type: ActionAdd, Line: Line{ProductID: 1, Quantity: 1}})
	s = Reduce(s, Action{Type: ActionAdd, Line: Line{ProductID: 1, VariantID: intPtr(7), Quantity: 1}})
	s = Reduce(s, Action{Type: ActionAdd, Line: Line{ProductID: 1, VariantID: intPtr(8), Quantity: 1}})

	assert.Len(t, s.Items, 3)
}

func TestReduceUpdateQuantity(t *testing.T) {
	base := State{Items: []Line{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, VariantID: intPtr(3), Quantity: 1},
	}}

	tests := []struct {
		name      string
		qty       int
		wantLen   int
		wantFirst int
	}{
		{"set to five", 5, 2, 5},
		{"zero removes", 0, 1, 1},
		{"negative removes", -3, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(base, Action{Type: ActionUpdateQuantity, Line: Line{ProductID: 1}, Quantity: tt.qty})
			require.Len(t, got.Items, tt.wantLen)
			assert.Equal(t, tt.wantFirst, got.Items[0].Quantity)
		})
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	base := State{Items: []Line{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}}

	_ = Reduce(base, Action{Type: ActionAdd, Line: Line{ProductID: 1, Quantity: 4}})
	_ = Reduce(base, Action{Type: ActionRemove, Line: Line{ProductID: 1}})

	require.Len(t, base.Items, 2)
	assert.Equal(t, 1, base.Items[0].ProductID)
	assert.Equal(t, 2, base.Items[0].Quantity)
}

func TestReduceRemoveAndClear(t *testing.T) {
	s := State{Items: []Line{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}}

	s = Reduce(s, Action{Type: ActionRemove, Line: Line{ProductID: 2}})
	require.Len(t, s.Items, 1)
	assert.Equal(t, 1, s.Items[0].ProductID)

	s = Reduce(s, Action{Type: ActionClear})
	assert.Empty(t, s.Items)
}

func TestSubtotalUsesVariantPriceWhenPresent(t *testing.T) {
	s := State{Items: []Line{
		{ProductID: 1, BasePrice: dec("500"), Quantity: 2},
		{ProductID: 2, VariantID: intPtr(4), BasePrice: dec("999"), VariantPrice: decPtr("300"), Quantity: 1},
	}}

	assert.True(t, dec("1300").Equal(s.Subtotal()))
	assert.Equal(t, 3, s.Count())
}

func TestActionValidate(t *testing.T) {
	assert.NoError(t, Action{Type: ActionClear}.Validate())
	assert.NoError(t, Action{Type: ActionAdd, Line: Line{ProductID: 1, Quantity: 1}}.Validate())
	assert.Error(t, Action{Type: ActionAdd, Line: Line{ProductID: 1}}.Validate())
	assert.Error(t, Action{Type: ActionRemove}.Validate())
	assert.Error(t, Action{Type: "explode"}.Validate())
}
