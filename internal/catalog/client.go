package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultEndpoint is the Steam Web API method that returns workshop item details.
const DefaultEndpoint = "https://api.steampowered.com/ISteamRemoteStorage/GetPublishedFileDetails/v1/"

// resultOK is the Steam result code for success.
const resultOK = 1

// ErrBadResult is returned when the service answers with a non-success result code.
var ErrBadResult = errors.New("catalog service returned an unsuccessful result")

// FileDetail is one published file record returned by the catalog service.
type FileDetail struct {
	PublishedFileID string `json:"publishedfileid"`
	Result          int    `json:"result"`
	Creator         string `json:"creator"`
	Filename        string `json:"filename"`
	FileSize        string `json:"file_size"`
	PreviewURL      string `json:"preview_url"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	TimeCreated     int64  `json:"time_created"`
	TimeUpdated     int64  `json:"time_updated"`
	Subscriptions   int    `json:"subscriptions"`
	Views           int    `json:"views"`
}

type detailsResponse struct {
	Response struct {
		Result               int          `json:"result"`
		ResultCount          int          `json:"resultcount"`
		PublishedFileDetails []FileDetail `json:"publishedfiledetails"`
	} `json:"response"`
}

// Fetcher looks up workshop item details by id.
type Fetcher interface {
	FetchDetails(ctx context.Context, ids []string) ([]FileDetail, error)
}

// Client queries the remote catalog service over HTTP.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a Client. An empty endpoint selects DefaultEndpoint and
// a nil http client selects http.DefaultClient.
func NewClient(endpoint string, hc *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{endpoint: endpoint, http: hc}
}

// FetchDetails posts one form-encoded request for ids and returns the
// records the service resolved successfully. Items with a per-item result
// other than success are left out.
func (c *Client) FetchDetails(ctx context.Context, ids []string) ([]FileDetail, error) {
	form := url.Values{}
	form.Set("itemcount", strconv.Itoa(len(ids)))
	for i, id := range ids {
		form.Set(fmt.Sprintf("publishedfileids[%d]", i), id)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned HTTP status %d", resp.StatusCode)
	}

	var data detailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	if data.Response.Result != resultOK {
		return nil, fmt.Errorf("%w: %d", ErrBadResult, data.Response.Result)
	}

	details := make([]FileDetail, 0, len(data.Response.PublishedFileDetails))
	for _, d := range data.Response.PublishedFileDetails {
		if d.Result == resultOK {
			details = append(details, d)
		}
	}

	return details, nil
}
