// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marsfarm/farm/log"
	"github.com/marsfarm/farm/metrics"
	"github.com/marsfarm/farm/test/testfarm"
)

func newServer(t *testing.T, opts Options) (*httptest.Server, *testfarm.Farm) {
	farm, err := testfarm.NewDefault()
	require.NoError(t, err)
	t.Cleanup(func() { farm.Close() })

	ts := httptest.NewServer(New(farm.Runtime(), farm.Deployment(), opts))
	t.Cleanup(ts.Close)
	return ts, farm
}

func httpGet(t *testing.T, url string, header http.Header) *http.Response {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestRoutes(t *testing.T) {
	ts, farm := newServer(t, Options{AllowedOrigins: "*"})
	d := farm.Deployment()

	root, err := farm.Runtime().Commit()
	require.NoError(t, err)

	res := httpGet(t, ts.URL+"/", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var index map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&index))
	assert.Equal(t, d.Chef.String(), index["chef"])
	assert.Equal(t, root.String(), index["stateRoot"])

	for _, path := range []string{
		"/pools",
		"/pools/1",
		"/pools/0/users/" + d.Deployer.String(),
		"/tokens/" + d.Token.String(),
		"/tokens/" + d.Token.String() + "/balances/" + d.Deployer.String(),
		"/vault/" + d.Deployer.String(),
	} {
		res := httpGet(t, ts.URL+path, nil)
		assert.Equal(t, http.StatusOK, res.StatusCode, path)
	}

	res = httpGet(t, ts.URL+"/metrics", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestCORS(t *testing.T) {
	ts, _ := newServer(t, Options{AllowedOrigins: "https://farm.example"})

	res := httpGet(t, ts.URL+"/pools", http.Header{"Origin": {"https://farm.example"}})
	assert.Equal(t, "https://farm.example", res.Header.Get("Access-Control-Allow-Origin"))

	res = httpGet(t, ts.URL+"/pools", http.Header{"Origin": {"https://other.example"}})
	assert.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
}

func TestCompression(t *testing.T) {
	ts, _ := newServer(t, Options{})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/pools", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")
	res, err := http.DefaultTransport.RoundTrip(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "gzip", res.Header.Get("Content-Encoding"))
}

func TestMetrics(t *testing.T) {
	metrics.InitializePrometheusMetrics()
	ts, farm := newServer(t, Options{EnableMetrics: true})

	httpGet(t, ts.URL+"/pools", nil)
	httpGet(t, ts.URL+"/pools/7", nil)
	httpGet(t, ts.URL+"/tokens/"+farm.Deployment().Token.String(), nil)

	res := httpGet(t, ts.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "farm_metrics_api_request_count")

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	var requests *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == "farm_metrics_api_request_count" {
			requests = mf
		}
	}
	require.NotNil(t, requests)

	counts := make(map[string]float64)
	for _, m := range requests.GetMetric() {
		labels := make(map[string]string)
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		counts[labels["name"]+" "+labels["code"]] += m.GetCounter().GetValue()
	}
	assert.Equal(t, float64(1), counts["GET /pools 200"])
	assert.Equal(t, float64(1), counts["GET /pools/{pid} 404"])
	assert.Equal(t, float64(1), counts["GET /tokens/{address} 200"])
}

func TestRequestLogger(t *testing.T) {
	ts, _ := newServer(t, Options{EnableReqLogger: true})

	var buf bytes.Buffer
	prev := log.Root()
	log.SetDefault(log.NewLogger(log.NewJSONHandler(&buf, slog.LevelInfo)))
	defer log.SetDefault(prev)

	httpGet(t, ts.URL+"/pools?x=1", nil)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "API Request", entry["msg"])
	assert.Equal(t, "/pools?x=1", entry["URI"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
	assert.Equal(t, "api", entry["pkg"])
}
