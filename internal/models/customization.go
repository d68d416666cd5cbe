package models

import (
	"fmt"
	"sort"
	"strings"
)

// Ensemble fermé d'options de personnalisation d'une boisson.
// Toute clé ou valeur inconnue est rejetée à la validation — on ne laisse
// plus passer silencieusement des blobs non typés côté client.

type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

type Milk string

const (
	MilkWhole   Milk = "whole"
	MilkOat     Milk = "oat"
	MilkAlmond  Milk = "almond"
	MilkCoconut Milk = "coconut"
)

type Customizations struct {
	Size     Size     `json:"size,omitempty"`
	Strength int      `json:"strength,omitempty"` // intensité du café, sans supplément
	Milk     Milk     `json:"milk,omitempty"`
	Extras   []string `json:"extras,omitempty"`
}

// SurchargeTable donne le supplément (en paise) de chaque option.
// La table fait partie de la configuration du catalogue, pas du moteur
// de tarification.
type SurchargeTable struct {
	Sizes  map[Size]int64
	Milks  map[Milk]int64
	Extras map[string]int64
}

// DefaultSurcharges retourne la table de suppléments de la carte actuelle.
func DefaultSurcharges() SurchargeTable {
	return SurchargeTable{
		Sizes: map[Size]int64{
			SizeSmall:  0,
			SizeMedium: 1500, // ₹15
			SizeLarge:  3000, // ₹30
		},
		Milks: map[Milk]int64{
			MilkWhole:   0,
			MilkOat:     2000, // ₹20
			MilkAlmond:  1500, // ₹15
			MilkCoconut: 1500, // ₹15
		},
		Extras: map[string]int64{
			"extra-shot":    2500, // ₹25
			"vanilla":       1500, // ₹15
			"caramel":       1500, // ₹15
			"whipped-cream": 2000, // ₹20
		},
	}
}

// Validate rejette toute option absente de la table.
func (c Customizations) Validate(table SurchargeTable) error {
	if c.Size != "" {
		if _, ok := table.Sizes[c.Size]; !ok {
			return fmt.Errorf("taille inconnue: %q", c.Size)
		}
	}
	if c.Milk != "" {
		if _, ok := table.Milks[c.Milk]; !ok {
			return fmt.Errorf("lait inconnu: %q", c.Milk)
		}
	}
	for _, extra := range c.Extras {
		if _, ok := table.Extras[extra]; !ok {
			return fmt.Errorf("supplément inconnu: %q", extra)
		}
	}
	if c.Strength < 0 || c.Strength > 5 {
		return fmt.Errorf("intensité hors limites: %d", c.Strength)
	}
	return nil
}

// Surcharge calcule le supplément total appliqué au prix unitaire de base.
func (c Customizations) Surcharge(table SurchargeTable) int64 {
	var total int64
	total += table.Sizes[c.Size]
	total += table.Milks[c.Milk]
	for _, extra := range c.Extras {
		total += table.Extras[extra]
	}
	return total
}

// Key retourne une forme canonique servant à la fusion des lignes de
// panier : même produit + même Key ⇒ même ligne.
func (c Customizations) Key() string {
	extras := append([]string(nil), c.Extras...)
	sort.Strings(extras)
	return fmt.Sprintf("size=%s|strength=%d|milk=%s|extras=%s",
		c.Size, c.Strength, c.Milk, strings.Join(extras, ","))
}
