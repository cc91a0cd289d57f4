package models

// CustomerFeatures holds the raw attributes of one customer as received by the API.
// Recency and History are non-negative; the boundary layer rejects anything else.
type CustomerFeatures struct {
	Recency      float64 // months since last purchase
	History      float64 // spend over trailing year
	ZipCode      string
	Channel      string
	IsReferral   bool
	UsedDiscount bool
	UsedBogo     bool
}

// FeatureRow is the model-ready representation of CustomerFeatures.
type FeatureRow struct {
	Recency      float64
	History      float64
	RecencyLog   float64
	HistoryLog   float64
	ZipCode      string
	Channel      string
	IsReferral   int
	UsedDiscount int
	UsedBogo     int
}

// Column names of the model input contract, in order.
const (
	ColRecencyLog   = "recency_log"
	ColHistoryLog   = "history_log"
	ColZipCode      = "zip_code"
	ColChannel      = "channel"
	ColIsReferral   = "is_referral"
	ColUsedDiscount = "used_discount"
	ColUsedBogo     = "used_bogo"
	ColTreat        = "treat"
)

// TreatmentVariant is a FeatureRow with the treatment indicator fixed to 0 or 1.
type TreatmentVariant struct {
	FeatureRow
	Treat int
}

// WithTreatment returns a copy of the row with the treatment indicator set.
func (r FeatureRow) WithTreatment(treat int) TreatmentVariant {
	return TreatmentVariant{FeatureRow: r, Treat: treat}
}

// Numeric returns the numeric columns of the variant keyed by column name.
func (v TreatmentVariant) Numeric() map[string]float64 {
	return map[string]float64{
		ColRecencyLog:   v.RecencyLog,
		ColHistoryLog:   v.HistoryLog,
		ColIsReferral:   float64(v.IsReferral),
		ColUsedDiscount: float64(v.UsedDiscount),
		ColUsedBogo:     float64(v.UsedBogo),
		ColTreat:        float64(v.Treat),
	}
}

// Categorical returns the string columns of the variant keyed by column name.
func (v TreatmentVariant) Categorical() map[string]string {
	return map[string]string{
		ColZipCode: v.ZipCode,
		ColChannel: v.Channel,
	}
}
