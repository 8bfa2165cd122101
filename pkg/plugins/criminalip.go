package plugins

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/servhound/servhound/pkg/extension"
	"github.com/servhound/servhound/pkg/httpclient"
	"github.com/servhound/servhound/pkg/iohelper"
	"github.com/servhound/servhound/pkg/jsonutil"
	"github.com/servhound/servhound/pkg/record"
)

// criminalipMaxResults is the provider-imposed cap on the search
// offset.
const criminalipMaxResults = 9900

// CriminalIP searches banner information through the CriminalIP API.
type CriminalIP struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	schema     extension.Schema
}

func NewCriminalIP() *CriminalIP {
	schema := apiKeySchema("API Key")
	schema = append(schema, extension.Field{
		Name:    "offset",
		Type:    extension.FieldInt,
		Label:   "Starting position in the dataset (increments of 10)",
		Default: 0,
	})
	return &CriminalIP{
		baseURL:    "https://api.criminalip.io",
		httpClient: httpclient.Default(),
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
		schema:     schema,
	}
}

func (c *CriminalIP) Name() string { return "CriminalIP" }

func (c *CriminalIP) Description() string {
	return "A plugin to search for banner information using the CriminalIP API."
}

func (c *CriminalIP) ConfigSchema() extension.Schema { return c.schema }

func (c *CriminalIP) RequiresAPIKey() bool { return true }

func (c *CriminalIP) MaxResults() int { return criminalipMaxResults }

func (c *CriminalIP) Search(ctx context.Context, query string, config map[string]any) ([]record.Record, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	apiKey := apiKeyFrom(config)
	if apiKey == "" {
		return nil, fmt.Errorf("CriminalIP API key is not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("offset", strconv.Itoa(extension.IntOption(config, c.schema, "offset")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/banner/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, redactAPIKey(err, apiKey)
	}
	defer iohelper.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		text, _ := iohelper.ReadBody(resp.Body, iohelper.SmallMaxBodySize)
		return nil, redactAPIKey(fmt.Errorf("criminalip API error (status %d): %s", resp.StatusCode, text), apiKey)
	}

	var data struct {
		Data struct {
			Result []map[string]any `json:"result"`
		} `json:"data"`
	}
	if err := jsonutil.UnmarshalRead(resp.Body, &data); err != nil {
		return nil, err
	}
	return criminalipRecords(data.Data.Result), nil
}

// knownBannerFields are lifted onto dedicated record fields; everything
// else lands in Extra.
var knownBannerFields = map[string]bool{
	"ip_address":   true,
	"open_port_no": true,
	"product":      true,
	"country":      true,
	"city":         true,
	"org_name":     true,
	"banner":       true,
	"hostname":     true,
	"timestamp":    true,
}

func criminalipRecords(entries []map[string]any) []record.Record {
	var out []record.Record
	for _, e := range entries {
		rec := record.Record{
			IP:       stringField(e, "ip_address"),
			Port:     intField(e, "open_port_no"),
			Service:  stringField(e, "product"),
			Location: joinLocation(stringField(e, "country"), stringField(e, "city")),
			ASN:      stringField(e, "org_name"),
			Banner:   stringField(e, "banner"),
			Domain:   stringField(e, "hostname"),
			Date:     stringField(e, "timestamp"),
		}
		leftover := make(map[string]any)
		for k, v := range e {
			if !knownBannerFields[k] {
				leftover[k] = v
			}
		}
		if len(leftover) > 0 {
			if raw, err := jsonutil.Marshal(leftover); err == nil {
				rec.Extra = string(raw)
			}
		}
		out = append(out, rec)
	}
	return out
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) int {
	switch n := m[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}
