package prayertimes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Brawl345/prayerbot/config"
	"github.com/Brawl345/prayerbot/metrics"
	"github.com/Brawl345/prayerbot/model"
	"github.com/Brawl345/prayerbot/utils/httpUtils"
)

type (
	Response struct {
		Code   int    `json:"code"`
		Status string `json:"status"`
		Data   struct {
			Timings model.Timings `json:"timings"`
			Meta    Meta          `json:"meta"`
		} `json:"data"`
	}

	Meta struct {
		Timezone string `json:"timezone"`
		Method   struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"method"`
	}

	AladhanClient struct {
		baseURL string
		method  int
		client  *http.Client
	}
)

func NewAladhanClient(cfg config.Aladhan) *AladhanClient {
	return &AladhanClient{
		baseURL: cfg.BaseURL,
		method:  cfg.Method,
		client:  httpUtils.NewHTTPClient(cfg.Timeout),
	}
}

func (a *AladhanClient) requestURL(city, country string) string {
	query := url.Values{}
	query.Set("city", city)
	query.Set("country", country)
	query.Set("method", strconv.Itoa(a.method))
	return fmt.Sprintf("%s/timingsByCity?%s", a.baseURL, query.Encode())
}

// FetchTimings returns today's timings for the location. Every failure is
// reported as model.ErrFetchFailed.
func (a *AladhanClient) FetchTimings(ctx context.Context, city, country string) (model.Timings, error) {
	start := time.Now()

	var response Response
	err := httpUtils.GetRequest(ctx, a.client, a.requestURL(city, country), &response)
	metrics.ObserveFetch(err == nil && response.Code == http.StatusOK, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrFetchFailed, err)
	}

	if response.Code != http.StatusOK {
		return nil, fmt.Errorf("%w: api returned code %d (%s)", model.ErrFetchFailed, response.Code, response.Status)
	}

	if len(response.Data.Timings) == 0 {
		return nil, fmt.Errorf("%w: no timings in response", model.ErrFetchFailed)
	}

	log.Debug().
		Str("city", city).
		Str("country", country).
		Str("timezone", response.Data.Meta.Timezone).
		Int("timings", len(response.Data.Timings)).
		Msg("Fetched prayer times")

	return response.Data.Timings, nil
}
