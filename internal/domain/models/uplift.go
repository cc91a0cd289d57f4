package models

// UpliftEstimate is the S-learner output for one treatment.
// Uplift is always TreatedProbability - ControlProbability.
type UpliftEstimate struct {
	TreatedProbability float64 `json:"treated_probability"`
	ControlProbability float64 `json:"control_probability"`
	Uplift             float64 `json:"uplift"`
}

// Offer is the recommended marketing action.
type Offer string

const (
	OfferDiscount     Offer = "Discount"
	OfferBuyOneGetOne Offer = "Buy One Get One"
	OfferNone         Offer = "No Offer"
)

// OfferDecision is the result of the decision policy. BestUplift is the selected
// offer's uplift, or 0 for OfferNone.
type OfferDecision struct {
	BestOffer      Offer   `json:"best_offer"`
	BestUplift     float64 `json:"best_uplift"`
	UpliftDiscount float64 `json:"uplift_discount"`
	UpliftBogo     float64 `json:"uplift_bogo"`
}

// Treatment identifies which trained model an estimate belongs to.
type Treatment string

const (
	TreatmentDiscount Treatment = "discount"
	TreatmentBogo     Treatment = "bogo"
)

// Prediction is the complete outcome of one scoring request.
type Prediction struct {
	Decision OfferDecision
	Discount UpliftEstimate
	Bogo     UpliftEstimate
	Row      FeatureRow
}
