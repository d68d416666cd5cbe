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

// PricingConfig regroupe tous les montants de tarification (en paise).
// Le seuil de livraison gratuite vit ici et nulle part ailleurs — pas de
// littéral dispersé dans les handlers.
type PricingConfig struct {
	Currency              string
	FreeDeliveryThreshold int64
	DeliveryFee           int64
}

// Pricing charge la configuration tarifaire depuis l'environnement,
// avec les valeurs par défaut de la carte Coimbatore Cafe.
func Pricing() PricingConfig {
	return PricingConfig{
		Currency:              envOr("CAFE_CURRENCY", "inr"),
		FreeDeliveryThreshold: envInt64("CAFE_FREE_DELIVERY_THRESHOLD", 50000), // ₹500
		DeliveryFee:           envInt64("CAFE_DELIVERY_FEE", 4000),             // ₹40
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("⚠️ %s invalide (%q), valeur par défaut %d utilisée", key, v, fallback)
		return fallback
	}
	return n
}
