package parser

import (
	"testing"

	"nutrition-resolver/internal/core/food/synonym"
	"nutrition-resolver/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	return New(synonym.NewResolver(""))
}

func TestParseBasicDescription(t *testing.T) {
	p := newTestParser()

	meal := p.Parse("2 huevos fritos con arroz")
	require.Len(t, meal.Items, 2)

	assert.Equal(t, "huevo", meal.Items[0].Tag)
	assert.Equal(t, 2.0, meal.Items[0].Quantity)
	assert.Equal(t, MethodFried, meal.Items[0].CookingMethod)

	assert.Equal(t, "arroz", meal.Items[1].Tag)
	assert.Equal(t, 1.0, meal.Items[1].Quantity)
	assert.Equal(t, "2 huevos fritos con arroz", meal.RawDescription)
}

func TestParseQuantities(t *testing.T) {
	p := newTestParser()

	t.Run("number words", func(t *testing.T) {
		meal := p.Parse("dos tortillas y media manzana")
		require.Len(t, meal.Items, 2)
		assert.Equal(t, "tortilla de maíz", meal.Items[0].Tag)
		assert.Equal(t, 2.0, meal.Items[0].Quantity)
		assert.Equal(t, "manzana", meal.Items[1].Tag)
		assert.Equal(t, 0.5, meal.Items[1].Quantity)
	})

	t.Run("fraction", func(t *testing.T) {
		meal := p.Parse("1/2 aguacate")
		require.Len(t, meal.Items, 1)
		assert.Equal(t, "aguacate", meal.Items[0].Tag)
		assert.Equal(t, 0.5, meal.Items[0].Quantity)
	})

	t.Run("decimal quantity", func(t *testing.T) {
		meal := p.Parse("1.5 platanos")
		require.Len(t, meal.Items, 1)
		assert.Equal(t, 1.5, meal.Items[0].Quantity)
	})

	t.Run("explicit grams", func(t *testing.T) {
		meal := p.Parse("arroz 150g y frijoles")
		require.Len(t, meal.Items, 2)
		assert.Equal(t, "arroz", meal.Items[0].Tag)
		assert.Equal(t, 150.0, meal.Items[0].Grams)
		assert.Equal(t, "frijoles", meal.Items[1].Tag)
		assert.Zero(t, meal.Items[1].Grams)
	})

	t.Run("bare number word is dropped", func(t *testing.T) {
		meal := p.Parse("arroz y dos")
		require.Len(t, meal.Items, 1)
		assert.Equal(t, "arroz", meal.Items[0].Tag)
	})
}

func TestParseCoalescesIdenticalTags(t *testing.T) {
	p := newTestParser()

	// "panes" and "bolillo" both canonicalize to "pan".
	meal := p.Parse("2 panes y un bolillo")
	require.Len(t, meal.Items, 1)
	assert.Equal(t, "pan", meal.Items[0].Tag)
	assert.Equal(t, 3.0, meal.Items[0].Quantity)
}

func TestParseCookingMethod(t *testing.T) {
	p := newTestParser()

	t.Run("breaded beats fried", func(t *testing.T) {
		meal := p.Parse("pollo empanizado y frito")
		require.Len(t, meal.Items, 1)
		assert.Equal(t, "pollo", meal.Items[0].Tag)
		assert.Equal(t, MethodBreaded, meal.Items[0].CookingMethod)
	})

	t.Run("multi word phrase", func(t *testing.T) {
		meal := p.Parse("pechuga a la plancha")
		require.Len(t, meal.Items, 1)
		assert.Equal(t, "pechuga de pollo", meal.Items[0].Tag)
		assert.Equal(t, MethodGrilled, meal.Items[0].CookingMethod)
	})

	t.Run("diacritics in method words", func(t *testing.T) {
		meal := p.Parse("papa al vapor")
		require.Len(t, meal.Items, 1)
		assert.Equal(t, MethodBoiled, meal.Items[0].CookingMethod)
	})
}

func TestParsePortion(t *testing.T) {
	p := newTestParser()

	t.Run("portion applies to all items", func(t *testing.T) {
		meal := p.Parse("arroz grande y frijoles")
		require.Len(t, meal.Items, 2)
		assert.Equal(t, common.PortionLarge, meal.Items[0].Portion)
		assert.Equal(t, common.PortionLarge, meal.Items[1].Portion)
	})

	t.Run("extra before large", func(t *testing.T) {
		meal := p.Parse("porcion extra grande de arroz")
		require.NotEmpty(t, meal.Items)
		assert.Equal(t, common.PortionExtra, meal.Items[0].Portion)
	})
}

func TestParseEdgeCases(t *testing.T) {
	p := newTestParser()

	t.Run("empty input", func(t *testing.T) {
		meal := p.Parse("")
		assert.Empty(t, meal.Items)
	})

	t.Run("whitespace only", func(t *testing.T) {
		meal := p.Parse("   ")
		assert.Empty(t, meal.Items)
	})

	t.Run("unknown phrase becomes single item", func(t *testing.T) {
		meal := p.Parse("chilaquiles verdes")
		require.Len(t, meal.Items, 1)
		assert.Equal(t, "chilaquiles verdes", meal.Items[0].Tag)
		assert.Equal(t, 1.0, meal.Items[0].Quantity)
	})

	t.Run("input order preserved", func(t *testing.T) {
		meal := p.Parse("frijoles, arroz y tortillas")
		require.Len(t, meal.Items, 3)
		assert.Equal(t, "frijoles", meal.Items[0].Tag)
		assert.Equal(t, "arroz", meal.Items[1].Tag)
		assert.Equal(t, "tortilla de maíz", meal.Items[2].Tag)
	})
}
