package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/jjenkins/billtracker/internal/model"
)

const (
	defaultTimeout = 30 * time.Second
	maxRetries     = 3
	initialBackoff = 2 * time.Second
)

// apiDateLayouts are the date formats the legislative API returns
var apiDateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// LegislatureAPI fetches official records from the legislative-data API
type LegislatureAPI interface {
	FetchBill(ctx context.Context, ref model.BillRef) (model.OfficialBillData, error)
	FetchLegislator(ctx context.Context, legID string) (model.LegislatorData, error)
}

// LegislatureClient handles communication with the legislative-data API
type LegislatureClient struct {
	client       *resty.Client
	retryInitial time.Duration
}

// ClientOption configures a LegislatureClient
type ClientOption func(*LegislatureClient)

// WithRetryInterval sets the first backoff interval between retries
func WithRetryInterval(d time.Duration) ClientOption {
	return func(c *LegislatureClient) { c.retryInitial = d }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *LegislatureClient) { c.client.SetTimeout(d) }
}

// NewLegislatureClient creates a client for the API at baseURL. The key is
// sent as the apikey query parameter when non-empty.
func NewLegislatureClient(baseURL, apiKey string, opts ...ClientOption) *LegislatureClient {
	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(defaultTimeout)
	if apiKey != "" {
		rc.SetQueryParam("apikey", apiKey)
	}

	c := &LegislatureClient{client: rc, retryInitial: initialBackoff}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// billJSON is the API representation of a bill
type billJSON struct {
	ID      string `json:"id"`
	BillID  string `json:"bill_id"`
	State   string `json:"state"`
	Session string `json:"session"`
	Title   string `json:"title"`
	Chamber string `json:"chamber"`
	Summary string `json:"summary"`
	Actions []struct {
		Date   string   `json:"date"`
		Actor  string   `json:"actor"`
		Action string   `json:"action"`
		Type   []string `json:"type"`
	} `json:"actions"`
	ActionDates map[string]*string `json:"action_dates"`
	Sponsors    []struct {
		LegID *string `json:"leg_id"`
		Name  string  `json:"name"`
		Type  string  `json:"type"`
	} `json:"sponsors"`
	Votes []struct {
		Date       string `json:"date"`
		Chamber    string `json:"chamber"`
		Motion     string `json:"motion"`
		YesCount   int    `json:"yes_count"`
		NoCount    int    `json:"no_count"`
		OtherCount int    `json:"other_count"`
		Passed     bool   `json:"passed"`
	} `json:"votes"`
	Sources []struct {
		URL string `json:"url"`
	} `json:"sources"`
	Companions []struct {
		BillID            string `json:"bill_id"`
		Session           string `json:"session"`
		Chamber           string `json:"chamber"`
		InternalCompanion string `json:"internal_companion"`
	} `json:"companions"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// legislatorJSON is the API representation of a legislator
type legislatorJSON struct {
	LegID     string `json:"leg_id"`
	FullName  string `json:"full_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Party     string `json:"party"`
	Chamber   string `json:"chamber"`
	District  string `json:"district"`
	PhotoURL  string `json:"photo_url"`
	URL       string `json:"url"`
	Active    bool   `json:"active"`
}

// FetchBill retrieves one official bill by server id or by state/session/bill id
func (c *LegislatureClient) FetchBill(ctx context.Context, ref model.BillRef) (model.OfficialBillData, error) {
	path := "/bills/{id}/"
	id := ref.ID
	params := map[string]string{"id": ref.ID}
	if ref.ID == "" {
		path = "/bills/{state}/{session}/{bill_id}/"
		id = ref.BillID
		params = map[string]string{
			"state":   ref.State,
			"session": ref.Session,
			"bill_id": ref.BillID,
		}
	}

	var raw billJSON
	if err := c.getWithRetry(ctx, "bill", id, path, params, &raw); err != nil {
		return model.OfficialBillData{}, err
	}

	return convertBillJSON(raw), nil
}

// FetchLegislator retrieves one legislator by id
func (c *LegislatureClient) FetchLegislator(ctx context.Context, legID string) (model.LegislatorData, error) {
	var raw legislatorJSON
	params := map[string]string{"id": legID}
	if err := c.getWithRetry(ctx, "legislator", legID, "/legislators/{id}/", params, &raw); err != nil {
		return model.LegislatorData{}, err
	}

	return model.LegislatorData{
		ID:        raw.LegID,
		FullName:  raw.FullName,
		FirstName: raw.FirstName,
		LastName:  raw.LastName,
		Party:     raw.Party,
		Chamber:   raw.Chamber,
		District:  raw.District,
		PhotoURL:  raw.PhotoURL,
		URL:       raw.URL,
		Active:    raw.Active,
	}, nil
}

// getWithRetry performs a GET with exponential backoff. Transport errors,
// 429 and 5xx are retried; other statuses fail at once.
func (c *LegislatureClient) getWithRetry(ctx context.Context, resource, id, path string, params map[string]string, out interface{}) error {
	op := func() error {
		resp, err := c.client.R().
			SetContext(ctx).
			SetPathParams(params).
			Get(path)
		if err != nil {
			apiRequestsTotal.WithLabelValues(resource, "transport_error").Inc()
			return &model.FetchError{Resource: resource, ID: id, Err: err}
		}

		status := resp.StatusCode()
		switch {
		case status == http.StatusOK:
		case status == http.StatusTooManyRequests || status >= 500:
			apiRequestsTotal.WithLabelValues(resource, "retryable_status").Inc()
			return &model.FetchError{Resource: resource, ID: id, Status: status}
		default:
			apiRequestsTotal.WithLabelValues(resource, "status").Inc()
			return backoff.Permanent(&model.FetchError{Resource: resource, ID: id, Status: status})
		}

		if err := json.Unmarshal(resp.Body(), out); err != nil {
			apiRequestsTotal.WithLabelValues(resource, "decode_error").Inc()
			return backoff.Permanent(&model.FetchError{
				Resource: resource,
				ID:       id,
				Err:      fmt.Errorf("failed to parse response: %w", err),
			})
		}

		apiRequestsTotal.WithLabelValues(resource, "ok").Inc()
		return nil
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.retryInitial
	exp.Multiplier = 2
	exp.Reset()

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, maxRetries-1), ctx)
	return backoff.Retry(op, policy)
}

func convertBillJSON(b billJSON) model.OfficialBillData {
	data := model.OfficialBillData{
		ID:          b.ID,
		BillID:      b.BillID,
		State:       b.State,
		Session:     b.Session,
		Title:       b.Title,
		Chamber:     b.Chamber,
		Summary:     b.Summary,
		ActionDates: make(map[string]time.Time, len(b.ActionDates)),
		CreatedAt:   parseAPIDate(b.CreatedAt),
		UpdatedAt:   parseAPIDate(b.UpdatedAt),
	}

	for _, a := range b.Actions {
		data.Actions = append(data.Actions, model.Action{
			Date:   parseAPIDate(a.Date),
			Actor:  a.Actor,
			Action: a.Action,
			Type:   a.Type,
		})
	}

	for name, raw := range b.ActionDates {
		if raw == nil {
			continue
		}
		if t := parseAPIDate(*raw); !t.IsZero() {
			data.ActionDates[name] = t
		}
	}

	for _, s := range b.Sponsors {
		sponsor := model.Sponsor{Name: s.Name, Type: s.Type}
		if s.LegID != nil {
			sponsor.LegID = *s.LegID
		}
		data.Sponsors = append(data.Sponsors, sponsor)
	}

	for _, v := range b.Votes {
		data.Votes = append(data.Votes, model.Vote{
			Date:       parseAPIDate(v.Date),
			Chamber:    v.Chamber,
			Motion:     v.Motion,
			YesCount:   v.YesCount,
			NoCount:    v.NoCount,
			OtherCount: v.OtherCount,
			Passed:     v.Passed,
		})
	}

	for _, s := range b.Sources {
		data.Sources = append(data.Sources, model.Source{URL: s.URL})
	}

	for _, comp := range b.Companions {
		data.Companions = append(data.Companions, model.Companion{
			BillID:     comp.BillID,
			Session:    comp.Session,
			Chamber:    comp.Chamber,
			InternalID: comp.InternalCompanion,
		})
	}

	return data
}

// parseAPIDate parses an API date, returning the zero time when empty or unreadable
func parseAPIDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range apiDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
