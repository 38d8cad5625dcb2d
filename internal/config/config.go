package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

// PricingConfig regroupe les paramètres de calcul des commandes,
// surchargeables par l'environnement sans toucher aux valeurs par défaut
type PricingConfig struct {
	TaxRate               float64 // ex: 0.05 pour 5%
	ShippingFee           float64 // frais fixes sous le seuil
	FreeShippingThreshold float64 // livraison offerte à partir de ce sous-total
}

const (
	DefaultTaxRate               = 0.05
	DefaultShippingFee           = 50.0
	DefaultFreeShippingThreshold = 500.0
)

// Pricing lit la configuration tarifaire depuis l'environnement
func Pricing() PricingConfig {
	return PricingConfig{
		TaxRate:               envFloat("ORDER_TAX_RATE", DefaultTaxRate),
		ShippingFee:           envFloat("ORDER_SHIPPING_FEE", DefaultShippingFee),
		FreeShippingThreshold: envFloat("ORDER_FREE_SHIPPING_THRESHOLD", DefaultFreeShippingThreshold),
	}
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("⚠️ Valeur invalide pour %s (%q), on garde %.2f", key, raw, fallback)
		return fallback
	}
	return v
}
