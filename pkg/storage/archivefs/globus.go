package archivefs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

const transferScope = "urn:globus:auth:scope:transfer.api.globus.org:all"

// GlobusConfig contains the information required to talk to a Globus
// Transfer endpoint with the client-credentials flow.
type GlobusConfig struct {
	EndpointID   string
	ClientID     string
	ClientSecret string
	TokenURL     string
	TransferURL  string
}

type globusClient struct {
	http       *http.Client
	baseURL    string
	endpointID string
}

// NewGlobus returns a Client backed by the Globus Transfer API.
func NewGlobus(ctx context.Context, cfg GlobusConfig) (Client, error) {
	if cfg.EndpointID == "" {
		return nil, fmt.Errorf("globus endpoint id is required")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("globus client credentials are required")
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{transferScope},
	}

	return &globusClient{
		http:       cc.Client(ctx),
		baseURL:    strings.TrimRight(cfg.TransferURL, "/"),
		endpointID: cfg.EndpointID,
	}, nil
}

type lsResponse struct {
	Data []lsEntry `json:"DATA"`
}

type lsEntry struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *globusClient) List(ctx context.Context, dirPath string) ([]Entry, error) {
	u := fmt.Sprintf("%s/operation/endpoint/%s/ls?path=%s",
		c.baseURL, c.endpointID, url.QueryEscape(dirPath))

	var resp lsResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(resp.Data))
	for _, e := range resp.Data {
		entries = append(entries, e.toEntry())
	}
	return entries, nil
}

func (c *globusClient) Stat(ctx context.Context, p string) (Entry, error) {
	u := fmt.Sprintf("%s/operation/endpoint/%s/stat?path=%s",
		c.baseURL, c.endpointID, url.QueryEscape(strings.TrimRight(p, "/")))

	var e lsEntry
	if err := c.getJSON(ctx, u, &e); err != nil {
		return Entry{}, err
	}
	return e.toEntry(), nil
}

func (c *globusClient) Mkdir(ctx context.Context, dirPath string, createParents bool) error {
	if createParents {
		parent := path.Dir(strings.TrimRight(dirPath, "/"))
		if parent != "/" && parent != "." {
			if _, err := c.Stat(ctx, parent); err == ErrNotFound {
				if err := c.Mkdir(ctx, parent, true); err != nil {
					return err
				}
			}
		}
	}

	body, err := json.Marshal(map[string]string{
		"DATA_TYPE": "mkdir",
		"path":      dirPath,
	})
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/operation/endpoint/%s/mkdir", c.baseURL, c.endpointID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("globus mkdir: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := decodeAPIError(resp.Body)
	// An existing directory satisfies mkdir.
	if strings.Contains(apiErr.Code, "Exists") || strings.Contains(strings.ToLower(apiErr.Message), "exists") {
		return nil
	}
	return fmt.Errorf("globus mkdir %s: %s (%s)", dirPath, apiErr.Message, apiErr.Code)
}

func (c *globusClient) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("globus request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		apiErr := decodeAPIError(resp.Body)
		if strings.Contains(apiErr.Code, "NotFound") {
			return ErrNotFound
		}
		return fmt.Errorf("globus request failed: %s (%s)", apiErr.Message, apiErr.Code)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (e lsEntry) toEntry() Entry {
	t := EntryFile
	if e.Type == "dir" {
		t = EntryDir
	}
	modified, _ := time.Parse("2006-01-02 15:04:05-07:00", e.LastModified)
	return Entry{
		Name:       e.Name,
		Type:       t,
		Size:       e.Size,
		ModifiedAt: modified,
	}
}

func decodeAPIError(r io.Reader) apiError {
	var e apiError
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return apiError{Code: "Unknown", Message: "unparseable error response"}
	}
	return e
}
