package features

import (
	"math"

	"UpliftAPI/internal/domain/models"
)

// Prepare converts raw customer attributes into a model-ready row.
// Monetary and time fields are log1p-compressed so zero values stay finite.
func Prepare(c models.CustomerFeatures) models.FeatureRow {
	return models.FeatureRow{
		Recency:      c.Recency,
		History:      c.History,
		RecencyLog:   math.Log1p(c.Recency),
		HistoryLog:   math.Log1p(c.History),
		ZipCode:      c.ZipCode,
		Channel:      c.Channel,
		IsReferral:   boolToInt(c.IsReferral),
		UsedDiscount: boolToInt(c.UsedDiscount),
		UsedBogo:     boolToInt(c.UsedBogo),
	}
}

// Columns lists the model input columns in contract order, without the treatment flag.
func Columns() []string {
	return []string{
		models.ColRecencyLog,
		models.ColHistoryLog,
		models.ColZipCode,
		models.ColChannel,
		models.ColIsReferral,
		models.ColUsedDiscount,
		models.ColUsedBogo,
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
