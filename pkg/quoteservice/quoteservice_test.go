package quoteservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/opensovereigncloud/cc-dcap-ql/pkg/config"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/constants"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/dcapql"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/dcapql/dcapqltest"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/metrics"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/quote3"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/sgx"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestService(t *testing.T, fake *dcapqltest.Fake) *QuoteService {
	t.Helper()
	log := zap.NewNop()
	registry := metrics.NewQuotingMetricsRegistry(log)
	quoter, err := dcapql.NewQuoter(fake.Funcs(), dcapql.WithObserver(registry))
	require.NoError(t, err)
	return NewQuoteService(log, &config.QuotingServiceConfig{ServicePort: constants.DefaultQuotingServicePort}, quoter, registry)
}

func do(t *testing.T, h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, bytes.NewReader(body)))
	return rec
}

func TestTargetInfo(t *testing.T) {
	fake := dcapqltest.New()
	h := newTestService(t, fake).Handler()

	rec := do(t, h, http.MethodGet, "/v1/targetinfo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fake.TargetInfo[:], rec.Body.Bytes())

	fake.TargetInfoStatus = quote3.InterfaceUnavailable
	rec = do(t, h, http.MethodGet, "/v1/targetinfo", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "0xe00d", rec.Header().Get(constants.Quote3ErrorHeader))
}

func TestQuoteSize(t *testing.T) {
	fake := dcapqltest.New()
	h := newTestService(t, fake).Handler()

	rec := do(t, h, http.MethodGet, "/v1/quotesize", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QuoteSizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, dcapqltest.DefaultQuoteSize, resp.QuoteSize)
}

func TestQuote(t *testing.T) {
	testCases := map[string]struct {
		body        []byte
		quoteStatus quote3.Quote3Error
		wantCode    int
		wantHeader  string
	}{
		"success": {
			body:     make([]byte, sgx.ReportSize),
			wantCode: http.StatusOK,
		},
		"short report": {
			body:     make([]byte, sgx.ReportSize-1),
			wantCode: http.StatusBadRequest,
		},
		"oversized report": {
			body:     make([]byte, sgx.ReportSize+1),
			wantCode: http.StatusBadRequest,
		},
		"invalid report": {
			body:        make([]byte, sgx.ReportSize),
			quoteStatus: quote3.InvalidReport,
			wantCode:    http.StatusBadRequest,
			wantHeader:  "0xe015",
		},
		"enclave lost": {
			body:        make([]byte, sgx.ReportSize),
			quoteStatus: quote3.EnclaveLost,
			wantCode:    http.StatusServiceUnavailable,
			wantHeader:  "0xe014",
		},
		"key certification error": {
			body:        make([]byte, sgx.ReportSize),
			quoteStatus: quote3.KeyCertifcationError,
			wantCode:    http.StatusInternalServerError,
			wantHeader:  "0xe018",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			fake := dcapqltest.New()
			fake.QuoteStatus = tc.quoteStatus
			h := newTestService(t, fake).Handler()

			rec := do(t, h, http.MethodPost, "/v1/quote", tc.body)
			assert.Equal(tc.wantCode, rec.Code)
			assert.Equal(tc.wantHeader, rec.Header().Get(constants.Quote3ErrorHeader))
			if tc.wantCode == http.StatusOK {
				assert.Len(rec.Body.Bytes(), dcapqltest.DefaultQuoteSize)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestService(t, dcapqltest.New()).Handler()
	rec := do(t, h, http.MethodGet, "/v1/quote", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestService(t, dcapqltest.New()).Handler()
	do(t, h, http.MethodGet, "/v1/quotesize", nil)

	rec := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dcap_ql_calls_total{function="sgx_qe_get_quote_size",status="Success"} 1`)
}

func TestHTTPStatusForQuote3Error(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, httpStatusForQuote3Error(quote3.ReportInvalid))
	assert.Equal(t, http.StatusServiceUnavailable, httpStatusForQuote3Error(quote3.OutOfEpc))
	assert.Equal(t, http.StatusInternalServerError, httpStatusForQuote3Error(quote3.AttKeyBlobInvalid))
	assert.Equal(t, http.StatusInternalServerError, httpStatusForQuote3Error(quote3.Quote3Error(0xe0ff)))
}

type failingProvider struct{}

func (failingProvider) TargetInfo() (sgx.Targetinfo, error) {
	return sgx.Targetinfo{}, errors.New("boom")
}
func (failingProvider) QuoteSize() (uint32, error)        { return 0, errors.New("boom") }
func (failingProvider) Quote(*sgx.Report) ([]byte, error) { return nil, errors.New("boom") }

func TestNonQuote3Error(t *testing.T) {
	s := NewQuoteService(zap.NewNop(), &config.QuotingServiceConfig{}, failingProvider{}, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/v1/quotesize", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get(constants.Quote3ErrorHeader))
}

func TestServe(t *testing.T) {
	require := require.New(t)

	s := newTestService(t, dcapqltest.New())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get(fmt.Sprintf("http://%s/healthz", ln.Addr()))
	require.NoError(err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(<-done)
	client.CloseIdleConnections()
}
