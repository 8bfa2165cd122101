package plugins

import (
	"context"
	"encoding/base64"
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

// Hunter searches IP and port information through the Hunter API.
type Hunter struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	schema     extension.Schema
}

func NewHunter() *Hunter {
	schema := apiKeySchema("Hunter API Key")
	schema = append(schema, extension.Schema{
		{
			Name:    "start_date",
			Type:    extension.FieldString,
			Label:   "Start date for search range (YYYY-MM-DD)",
			Default: "",
		},
		{
			Name:    "end_date",
			Type:    extension.FieldString,
			Label:   "End date for search range (YYYY-MM-DD)",
			Default: "",
		},
		{
			Name:    "page_size",
			Type:    extension.FieldInt,
			Label:   "Results per page",
			Default: 10,
		},
		{
			Name:    "page_number",
			Type:    extension.FieldInt,
			Label:   "Page number",
			Default: 1,
		},
	}...)
	return &Hunter{
		baseURL:    "https://api.hunter.how",
		httpClient: httpclient.Default(),
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
		schema:     schema,
	}
}

func (h *Hunter) Name() string { return "Hunter" }

func (h *Hunter) Description() string {
	return "A plugin to search for IP and port information using the Hunter API."
}

func (h *Hunter) ConfigSchema() extension.Schema { return h.schema }

func (h *Hunter) RequiresAPIKey() bool { return true }

func (h *Hunter) MaxResults() int { return 0 }

func (h *Hunter) Search(ctx context.Context, query string, config map[string]any) ([]record.Record, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	apiKey := apiKeyFrom(config)
	if apiKey == "" {
		return nil, fmt.Errorf("Hunter API key is not configured")
	}
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("api-key", apiKey)
	params.Set("query", base64.URLEncoding.EncodeToString([]byte(query)))
	params.Set("page", strconv.Itoa(extension.IntOption(config, h.schema, "page_number")))
	params.Set("page_size", strconv.Itoa(extension.IntOption(config, h.schema, "page_size")))
	params.Set("start_time", extension.StringOption(config, h.schema, "start_date"))
	params.Set("end_time", extension.StringOption(config, h.schema, "end_date"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, redactAPIKey(err, apiKey)
	}
	defer iohelper.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		text, _ := iohelper.ReadBody(resp.Body, iohelper.SmallMaxBodySize)
		return nil, redactAPIKey(fmt.Errorf("hunter API error (status %d): %s", resp.StatusCode, text), apiKey)
	}

	var data struct {
		Data *struct {
			List []struct {
				IP     string `json:"ip"`
				Port   int    `json:"port"`
				Domain string `json:"domain"`
			} `json:"list"`
		} `json:"data"`
	}
	if err := jsonutil.UnmarshalRead(resp.Body, &data); err != nil {
		return nil, err
	}
	if data.Data == nil {
		return nil, fmt.Errorf("hunter API returned no data envelope")
	}

	var out []record.Record
	for _, e := range data.Data.List {
		out = append(out, record.Record{IP: e.IP, Port: e.Port, Domain: e.Domain})
	}
	return out, nil
}
