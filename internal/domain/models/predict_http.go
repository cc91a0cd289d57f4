package models

// Requests and responses for the scoring HTTP endpoint.
// Pointer fields let validation tell a missing value from a zero value.

type PredictRequest struct {
	Recency      *float64 `json:"recency" validate:"required,gte=0"`
	History      *float64 `json:"history" validate:"required,gte=0"`
	ZipCode      *string  `json:"zip_code" validate:"required"`
	Channel      *string  `json:"channel" validate:"required"`
	IsReferral   *bool    `json:"is_referral" validate:"required"`
	UsedDiscount *bool    `json:"used_discount" validate:"required"`
	UsedBogo     *bool    `json:"used_bogo" validate:"required"`
}

// Customer converts a validated request into domain input.
func (r *PredictRequest) Customer() CustomerFeatures {
	return CustomerFeatures{
		Recency:      deref(r.Recency),
		History:      deref(r.History),
		ZipCode:      deref(r.ZipCode),
		Channel:      deref(r.Channel),
		IsReferral:   deref(r.IsReferral),
		UsedDiscount: deref(r.UsedDiscount),
		UsedBogo:     deref(r.UsedBogo),
	}
}

type PredictResponse struct {
	Decision OfferDecision            `json:"decision"`
	Offers   map[Offer]UpliftEstimate `json:"offers"`
	Features FeaturesEcho             `json:"features"`
}

// FeaturesEcho mirrors the input back with the derived log features.
type FeaturesEcho struct {
	Recency      float64 `json:"recency"`
	History      float64 `json:"history"`
	ZipCode      string  `json:"zip_code"`
	Channel      string  `json:"channel"`
	IsReferral   int     `json:"is_referral"`
	UsedDiscount int     `json:"used_discount"`
	UsedBogo     int     `json:"used_bogo"`
	RecencyLog   float64 `json:"recency_log"`
	HistoryLog   float64 `json:"history_log"`
}

// NewPredictResponse shapes a Prediction for the wire.
func NewPredictResponse(p Prediction) PredictResponse {
	return PredictResponse{
		Decision: p.Decision,
		Offers: map[Offer]UpliftEstimate{
			OfferDiscount:     p.Discount,
			OfferBuyOneGetOne: p.Bogo,
		},
		Features: FeaturesEcho{
			Recency:      p.Row.Recency,
			History:      p.Row.History,
			ZipCode:      p.Row.ZipCode,
			Channel:      p.Row.Channel,
			IsReferral:   p.Row.IsReferral,
			UsedDiscount: p.Row.UsedDiscount,
			UsedBogo:     p.Row.UsedBogo,
			RecencyLog:   p.Row.RecencyLog,
			HistoryLog:   p.Row.HistoryLog,
		},
	}
}

// ModelInfo describes a loaded model for readiness reporting.
type ModelInfo struct {
	Treatment Treatment `json:"treatment"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Version   string    `json:"version"`
	Source    string    `json:"source"`
	Checksum  string    `json:"checksum"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
