package plugins

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/servhound/servhound/pkg/extension"
	"github.com/servhound/servhound/pkg/httpclient"
	"github.com/servhound/servhound/pkg/iohelper"
	"github.com/servhound/servhound/pkg/jsonutil"
	"github.com/servhound/servhound/pkg/record"
)

// zoomeyeMaxResults is the provider-imposed cap on retrievable results.
const zoomeyeMaxResults = 10000

// ZoomEye searches internet-connected devices through the ZoomEye v2
// API.
type ZoomEye struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	schema     extension.Schema
}

func NewZoomEye() *ZoomEye {
	schema := apiKeySchema("API Key")
	schema = append(schema, extension.Schema{
		{
			Name:    "sub_type",
			Type:    extension.FieldSelect,
			Label:   "Data Type",
			Default: "v4",
			Options: []string{"v4", "v6", "web"},
		},
		{
			Name:    "fields",
			Type:    extension.FieldString,
			Label:   "Comma-separated fields to return",
			Default: "ip,port,domain,update_time",
		},
		{
			Name:    "facets",
			Type:    extension.FieldString,
			Label:   "Statistical items for grouping results",
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
	return &ZoomEye{
		baseURL:    "https://api.zoomeye.ai",
		httpClient: httpclient.Default(),
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
		schema:     schema,
	}
}

func (z *ZoomEye) Name() string { return "ZoomEye" }

func (z *ZoomEye) Description() string {
	return "Search for internet-connected devices using the ZoomEye API"
}

func (z *ZoomEye) ConfigSchema() extension.Schema { return z.schema }

func (z *ZoomEye) RequiresAPIKey() bool { return true }

func (z *ZoomEye) MaxResults() int { return zoomeyeMaxResults }

type zoomeyeEntry struct {
	IP        string   `json:"ip"`
	Port      int      `json:"port"`
	Hostname  []string `json:"hostname"`
	Timestamp string   `json:"timestamp"`
	Service   struct {
		Name string `json:"name"`
	} `json:"service"`
	GeoInfo struct {
		Country string `json:"country"`
		City    string `json:"city"`
	} `json:"geoinfo"`
}

func (z *ZoomEye) Search(ctx context.Context, query string, config map[string]any) ([]record.Record, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	apiKey := apiKeyFrom(config)
	if apiKey == "" {
		return nil, fmt.Errorf("ZoomEye API key is not configured")
	}
	if err := z.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"qbase64":  base64.URLEncoding.EncodeToString([]byte(query)),
		"page":     extension.IntOption(config, z.schema, "page_number"),
		"pagesize": extension.IntOption(config, z.schema, "page_size"),
	}
	if v := extension.StringOption(config, z.schema, "sub_type"); v != "" {
		payload["sub_type"] = v
	}
	if v := extension.StringOption(config, z.schema, "fields"); v != "" {
		payload["fields"] = v
	}
	if v := extension.StringOption(config, z.schema, "facets"); v != "" {
		payload["facets"] = v
	}
	body, err := jsonutil.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.baseURL+"/v2/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("API-KEY", apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := z.httpClient.Do(req)
	if err != nil {
		return nil, redactAPIKey(err, apiKey)
	}
	defer iohelper.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		text, _ := iohelper.ReadBody(resp.Body, iohelper.SmallMaxBodySize)
		return nil, redactAPIKey(fmt.Errorf("zoomeye API error (status %d): %s", resp.StatusCode, text), apiKey)
	}

	var data struct {
		Data []zoomeyeEntry `json:"data"`
	}
	if err := jsonutil.UnmarshalRead(resp.Body, &data); err != nil {
		return nil, err
	}
	return zoomeyeRecords(data.Data), nil
}

// zoomeyeRecords maps provider entries onto records, keeping the first
// entry per IP.
func zoomeyeRecords(entries []zoomeyeEntry) []record.Record {
	seen := make(map[string]bool, len(entries))
	var out []record.Record
	for _, e := range entries {
		if e.IP == "" || seen[e.IP] {
			continue
		}
		seen[e.IP] = true
		rec := record.Record{
			IP:      e.IP,
			Port:    e.Port,
			Service: e.Service.Name,
			Date:    e.Timestamp,
		}
		if len(e.Hostname) > 0 {
			rec.Domain = e.Hostname[0]
		}
		rec.Location = joinLocation(e.GeoInfo.Country, e.GeoInfo.City)
		out = append(out, rec)
	}
	return out
}
