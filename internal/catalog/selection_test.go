package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func TestResolveExactBarcodeAutoSelects(t *testing.T) {
	var s Selection
	results := []Product{
		{ID: 1, Barcode: "7501234567891", Name: "Leche entera"},
		{ID: 2, Barcode: "7501234567890", Name: "Leche light"},
	}

	outcome, err := s.Resolve("7501234567890", results)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSelected, outcome)
	require.NotNil(t, s.Selected)
	assert.Equal(t, int64(2), s.Selected.ID)
	assert.Empty(t, s.Query)
	assert.Empty(t, s.Candidates)
}

func TestResolveSingleResultAutoSelects(t *testing.T) {
	var s Selection
	outcome, err := s.Resolve("7501234567890", []Product{{ID: 7, Barcode: "7501234567890"}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSelected, outcome)

	p, ok := s.Take()
	require.True(t, ok)
	assert.Equal(t, int64(7), p.ID)
	_, ok = s.Take()
	assert.False(t, ok)
}

func TestResolveNoResultsIsNotFound(t *testing.T) {
	var s Selection
	outcome, err := s.Resolve("999", nil)
	assert.Equal(t, OutcomeNotFound, outcome)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Nil(t, s.Selected)
	assert.Equal(t, "999", s.Query)
}

func TestResolveSeveralResultsRequireChoice(t *testing.T) {
	var s Selection
	results := []Product{{ID: 1, Name: "Arroz 1kg"}, {ID: 2, Name: "Arroz 5kg"}}

	outcome, err := s.Resolve("arroz", results)
	require.NoError(t, err)
	assert.Equal(t, OutcomeChoose, outcome)
	assert.Len(t, s.Candidates, 2)
	assert.Nil(t, s.Selected)

	_, err = s.Choose(99)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	p, err := s.Choose(2)
	require.NoError(t, err)
	assert.Equal(t, "Arroz 5kg", p.Name)
	assert.Empty(t, s.Candidates)
	assert.Empty(t, s.Query)
}

func TestShowAndClear(t *testing.T) {
	var s Selection
	s.Show("arr", []Product{{ID: 1}})
	assert.Nil(t, s.Selected)
	assert.Len(t, s.Candidates, 1)

	s.Clear()
	assert.Empty(t, s.Query)
	assert.Empty(t, s.Candidates)
}
