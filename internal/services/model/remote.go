package model

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"UpliftAPI/internal/domain/models"
	xhttp "UpliftAPI/pkg/http"
)

// RemoteSpec points at an external model server that exposes predict_proba over HTTP.
type RemoteSpec struct {
	Endpoint string `json:"endpoint"`
	Timeout  string `json:"timeout,omitempty"`
}

type remote struct {
	endpoint string
	client   *xhttp.Client
}

type remoteRequest struct {
	RecencyLog   float64 `json:"recency_log"`
	HistoryLog   float64 `json:"history_log"`
	ZipCode      string  `json:"zip_code"`
	Channel      string  `json:"channel"`
	IsReferral   int     `json:"is_referral"`
	UsedDiscount int     `json:"used_discount"`
	UsedBogo     int     `json:"used_bogo"`
	Treat        int     `json:"treat"`
}

type remoteResponse struct {
	Probability *float64 `json:"probability"`
}

func newRemote(spec *RemoteSpec, client *xhttp.Client) (*remote, error) {
	if spec == nil {
		return nil, fmt.Errorf("remote section is required")
	}
	u, err := url.Parse(spec.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("remote endpoint %q is not an absolute URL", spec.Endpoint)
	}
	if spec.Timeout != "" {
		timeout, err := time.ParseDuration(spec.Timeout)
		if err != nil {
			return nil, fmt.Errorf("remote timeout: %w", err)
		}
		client = xhttp.NewClient(xhttp.WithTimeout(timeout))
	}
	if client == nil {
		client = xhttp.NewClient(xhttp.WithTimeout(3 * time.Second))
	}
	return &remote{endpoint: spec.Endpoint, client: client}, nil
}

// PredictProba posts a single row. Failures are not retried: scoring is
// deterministic, so a retry would fail the same way.
func (m *remote) PredictProba(ctx context.Context, v models.TreatmentVariant) (float64, error) {
	var rr remoteResponse
	err := m.client.PostJSON(ctx, m.endpoint, remoteRequest{
		RecencyLog:   v.RecencyLog,
		HistoryLog:   v.HistoryLog,
		ZipCode:      v.ZipCode,
		Channel:      v.Channel,
		IsReferral:   v.IsReferral,
		UsedDiscount: v.UsedDiscount,
		UsedBogo:     v.UsedBogo,
		Treat:        v.Treat,
	}, &rr)
	if err != nil {
		return 0, fmt.Errorf("post predict: %w", err)
	}
	if rr.Probability == nil {
		return 0, fmt.Errorf("remote response has no probability")
	}
	return *rr.Probability, nil
}
