package pricing

import (
	"math"

	"github.com/adiwira09/sawit-mill/internal/domain/models"
)

// processingCoefficient is the fixed mill-efficiency factor applied to
// the theoretical extraction value before deducting processing cost.
const processingCoefficient = 0.87

// Classification premiums over the open-market tier, in currency units.
const (
	plasmaPremium = 50
	intiPremium   = 100
)

// Simulate computes a synthetic FFB price set from a base reference
// price, a yield ratio, and a processing-cost deduction. The open-market
// tier is rounded to the nearest multiple of ten; the plasma and inti
// tiers sit at fixed premiums above it. Deterministic given its three
// parameters, for testing and for deployments with no live source.
func Simulate(basePrice, yieldRatio, processingCost float64) map[models.Classification]float64 {
	base := math.Round((basePrice*yieldRatio*processingCoefficient-processingCost)/10) * 10

	return map[models.Classification]float64{
		models.ClassUmum:   base,
		models.ClassPlasma: base + plasmaPremium,
		models.ClassInti:   base + intiPremium,
	}
}
