package orders

import (
	"github.com/shopspring/decimal"

	"velora_back_end/internal/config"
	"velora_back_end/internal/models"
)

// Pricing est le détail tarifaire d'une commande.
// Invariant: Total = Subtotal + ShippingFee + Tax − Discount (arrondi au centime)
type Pricing struct {
	Subtotal    float64 `json:"subtotal"`
	ShippingFee float64 `json:"shipping_fee"`
	Tax         float64 `json:"tax"`
	Discount    float64 `json:"discount"`
	Total       float64 `json:"total"`
}

// ComputePricing calcule le détail tarifaire d'une liste d'articles.
// Fonction pure: mêmes entrées, mêmes sorties, aucun effet de bord.
// La destination n'influence pas encore le tarif mais fait partie du contrat.
func ComputePricing(items []models.OrderItem, dest models.Address, cfg config.PricingConfig) Pricing {
	subtotal := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}
	subtotal = subtotal.Round(2)

	shipping := decimal.NewFromFloat(cfg.ShippingFee)
	if subtotal.GreaterThanOrEqual(decimal.NewFromFloat(cfg.FreeShippingThreshold)) {
		shipping = decimal.Zero
	}

	// Arrondi au centime, demi-centime vers le haut
	tax := subtotal.Mul(decimal.NewFromFloat(cfg.TaxRate)).Round(2)

	// Remise à zéro par défaut, posée par le hook coupon avant persistance
	discount := decimal.Zero

	total := subtotal.Add(shipping).Add(tax).Sub(discount).Round(2)

	sub, _ := subtotal.Float64()
	ship, _ := shipping.Float64()
	tx, _ := tax.Float64()
	disc, _ := discount.Float64()
	tot, _ := total.Float64()

	return Pricing{Subtotal: sub, ShippingFee: ship, Tax: tx, Discount: disc, Total: tot}
}

// ApplyDiscount pose une remise et recalcule le total, sans toucher aux autres composantes
func (p Pricing) ApplyDiscount(discount float64) Pricing {
	if discount < 0 {
		discount = 0
	}
	p.Discount = discount
	p.Total = ComputeTotal(p.Subtotal, p.ShippingFee, p.Tax, p.Discount)
	return p
}

// ComputeTotal recalcule le total à partir des composantes.
// À rappeler dès qu'une composante change, pour garder l'invariant vérifiable.
func ComputeTotal(subtotal, shipping, tax, discount float64) float64 {
	total := decimal.NewFromFloat(subtotal).
		Add(decimal.NewFromFloat(shipping)).
		Add(decimal.NewFromFloat(tax)).
		Sub(decimal.NewFromFloat(discount)).
		Round(2)
	if total.IsNegative() {
		return 0
	}
	f, _ := total.Float64()
	return f
}
