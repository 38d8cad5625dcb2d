package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"velora_back_end/internal/config"
	"velora_back_end/internal/models"
)

func testPricingConfig() config.PricingConfig {
	return config.PricingConfig{
		TaxRate:               0.05,
		ShippingFee:           50,
		FreeShippingThreshold: 500,
	}
}

func TestComputePricingBelowFreeShippingThreshold(t *testing.T) {
	// Scénario de référence : 2 × 100€, seuil à 500€, TVA 5%
	items := []models.OrderItem{{Name: "Lampe", Price: 100, Quantity: 2}}

	p := ComputePricing(items, models.Address{}, testPricingConfig())

	assert.Equal(t, 200.0, p.Subtotal)
	assert.Equal(t, 50.0, p.ShippingFee)
	assert.Equal(t, 10.0, p.Tax)
	assert.Equal(t, 0.0, p.Discount)
	assert.Equal(t, 260.0, p.Total)
}

func TestComputePricingFreeShippingAtThreshold(t *testing.T) {
	items := []models.OrderItem{{Name: "Canapé", Price: 500, Quantity: 1}}

	p := ComputePricing(items, models.Address{}, testPricingConfig())

	assert.Equal(t, 500.0, p.Subtotal)
	assert.Equal(t, 0.0, p.ShippingFee, "livraison offerte à partir du seuil")
	assert.Equal(t, 25.0, p.Tax)
	assert.Equal(t, 525.0, p.Total)
}

func TestComputePricingRoundsHalfUp(t *testing.T) {
	// 3 × 6.33€ = 18.99€ → TVA 0.9495€, arrondie à 0.95€
	items := []models.OrderItem{{Name: "Mug", Price: 6.33, Quantity: 3}}

	p := ComputePricing(items, models.Address{}, testPricingConfig())

	assert.Equal(t, 18.99, p.Subtotal)
	assert.Equal(t, 0.95, p.Tax)
	assert.Equal(t, 69.94, p.Total)
}

func TestComputePricingMultipleLines(t *testing.T) {
	items := []models.OrderItem{
		{Name: "Chaise", Price: 79.9, Quantity: 2},
		{Name: "Table", Price: 249.5, Quantity: 1},
	}

	p := ComputePricing(items, models.Address{}, testPricingConfig())

	assert.Equal(t, 409.3, p.Subtotal)
	assert.Equal(t, 50.0, p.ShippingFee)
	assert.Equal(t, 20.47, p.Tax, "5%% de 409.30 = 20.465, arrondi à 20.47")
	assert.InDelta(t, p.Subtotal+p.ShippingFee+p.Tax-p.Discount, p.Total, 0.01)
}

func TestComputePricingEmptyItems(t *testing.T) {
	p := ComputePricing(nil, models.Address{}, testPricingConfig())

	assert.Equal(t, 0.0, p.Subtotal)
	assert.Equal(t, 50.0, p.ShippingFee)
	assert.Equal(t, 0.0, p.Tax)
	assert.Equal(t, 50.0, p.Total)
}

func TestApplyDiscountRecomputesTotal(t *testing.T) {
	items := []models.OrderItem{{Name: "Lampe", Price: 100, Quantity: 2}}
	p := ComputePricing(items, models.Address{}, testPricingConfig())

	discounted := p.ApplyDiscount(30)

	assert.Equal(t, 30.0, discounted.Discount)
	assert.Equal(t, 230.0, discounted.Total)
	// L'invariant tient après la remise
	assert.InDelta(t,
		discounted.Subtotal+discounted.ShippingFee+discounted.Tax-discounted.Discount,
		discounted.Total, 0.01)
}

func TestApplyDiscountNegativeIsIgnored(t *testing.T) {
	p := Pricing{Subtotal: 100, ShippingFee: 50, Tax: 5, Total: 155}

	discounted := p.ApplyDiscount(-10)

	assert.Equal(t, 0.0, discounted.Discount)
	assert.Equal(t, 155.0, discounted.Total)
}

func TestComputeTotalNeverNegative(t *testing.T) {
	assert.Equal(t, 0.0, ComputeTotal(10, 0, 0.5, 100))
}
