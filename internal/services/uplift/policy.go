package uplift

import "UpliftAPI/internal/domain/models"

// Decide picks the offer with the larger positive uplift.
// Both uplifts non-positive means no offer; equal uplifts resolve to the discount.
func Decide(discount, bogo models.UpliftEstimate) models.OfferDecision {
	d := models.OfferDecision{
		UpliftDiscount: discount.Uplift,
		UpliftBogo:     bogo.Uplift,
	}

	switch {
	case discount.Uplift <= 0 && bogo.Uplift <= 0:
		d.BestOffer = models.OfferNone
		d.BestUplift = 0
	case discount.Uplift >= bogo.Uplift:
		d.BestOffer = models.OfferDiscount
		d.BestUplift = discount.Uplift
	default:
		d.BestOffer = models.OfferBuyOneGetOne
		d.BestUplift = bogo.Uplift
	}
	return d
}
