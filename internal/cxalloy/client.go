package cxalloy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	mappings "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/domain"
	"github.com/phunnicutt1/synapse-app-sub001/internal/observability/metrics"
)

const maxPages = 50

// Client is a minimal read-only CxAlloy REST client.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewClient constructs a CxAlloy client.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("cxalloy: empty base url")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ErrNotFound is returned when the project does not exist.
var ErrNotFound = errors.New("cxalloy: not found")

type equipmentItem struct {
	EquipmentID json.Number `json:"equipment_id"`
	Name        string      `json:"name"`
	TypeName    string      `json:"type_name"`
}

type equipmentPage struct {
	Data       []equipmentItem `json:"data"`
	Pagination struct {
		HasMore bool `json:"has_more"`
	} `json:"pagination"`
}

// ListEquipment returns every equipment record of a project, following pages.
func (c *Client) ListEquipment(ctx context.Context, projectID string) ([]mappings.ExternalRecord, error) {
	if projectID == "" {
		return nil, errors.New("cxalloy: empty project id")
	}
	var records []mappings.ExternalRecord
	for page := 1; page <= maxPages; page++ {
		query := url.Values{}
		query.Set("project_id", projectID)
		query.Set("page", fmt.Sprintf("%d", page))
		var resp equipmentPage
		if err := c.getJSON(ctx, "/v1/equipment?"+query.Encode(), &resp); err != nil {
			return nil, err
		}
		for _, item := range resp.Data {
			id := item.EquipmentID.String()
			if id == "" {
				continue
			}
			records = append(records, mappings.ExternalRecord{
				ID:        id,
				Name:      item.Name,
				Type:      item.TypeName,
				ProjectID: projectID,
			})
		}
		if !resp.Pagination.HasMore {
			break
		}
	}
	return records, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) (err error) {
	defer func() { metrics.IncCxAlloyRequest(err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("cxalloy: http %d", resp.StatusCode)
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(out)
}
