package quoteservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/opensovereigncloud/cc-dcap-ql/pkg/config"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/constants"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/metrics"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/quote3"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/sgx"
)

// QuoteProvider is an interface to facilitate tests
type QuoteProvider interface {
	TargetInfo() (sgx.Targetinfo, error)
	QuoteSize() (uint32, error)
	Quote(report *sgx.Report) ([]byte, error)
}

// QuoteSizeResponse is the body returned by GET /v1/quotesize.
type QuoteSizeResponse struct {
	QuoteSize uint32 `json:"quote_size"`
}

type QuoteService struct {
	port          int
	serverMetrics *metrics.QuotingMetricsRegistry
	log           *zap.Logger
	quoter        QuoteProvider
}

func NewQuoteService(logger *zap.Logger, cfg *config.QuotingServiceConfig, quoter QuoteProvider, metricsRegistry *metrics.QuotingMetricsRegistry) *QuoteService {
	return &QuoteService{
		port:          cfg.ServicePort,
		serverMetrics: metricsRegistry,
		log:           logger,
		quoter:        quoter,
	}
}

// Handler returns the HTTP routes of the service.
func (s *QuoteService) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/targetinfo", s.handleTargetInfo)
	mux.HandleFunc("GET /v1/quotesize", s.handleQuoteSize)
	mux.HandleFunc("POST /v1/quote", s.handleQuote)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.serverMetrics != nil {
		mux.Handle("GET /metrics", s.serverMetrics.Handler())
	}
	return mux
}

// Run listens on the configured port and serves until ctx is done.
func (s *QuoteService) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts the server down gracefully.
func (s *QuoteService) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  constants.QuotingServiceReadTimeout,
		WriteTimeout: constants.QuotingServiceWriteTimeout,
		ErrorLog:     zap.NewStdLog(s.log),
	}

	s.log.Info("Quoting service listening", zap.String("address", ln.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("quoting service failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.QuotingServiceShutdownTimeout)
		defer cancel()
		s.log.Info("Shutting down quoting service")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *QuoteService) handleTargetInfo(w http.ResponseWriter, _ *http.Request) {
	ti, err := s.quoter.TargetInfo()
	if err != nil {
		s.writeError(w, "unable to get the QE target info", err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(ti[:])
}

func (s *QuoteService) handleQuoteSize(w http.ResponseWriter, _ *http.Request) {
	size, err := s.quoter.QuoteSize()
	if err != nil {
		s.writeError(w, "unable to get the quote size", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(QuoteSizeResponse{QuoteSize: size}); err != nil {
		s.log.Error("unable to write quote size response", zap.Error(err))
	}
}

func (s *QuoteService) handleQuote(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, sgx.ReportSize))
	if err != nil {
		s.log.Debug("Rejected oversized report", zap.Error(err))
		http.Error(w, fmt.Sprintf("report must be %d bytes", sgx.ReportSize), http.StatusBadRequest)
		return
	}
	report, err := sgx.ReportFromBytes(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	quote, err := s.quoter.Quote(report)
	if err != nil {
		s.writeError(w, "unable to generate quote", err)
		return
	}

	s.log.Debug("Quote generated", zap.Int("size", len(quote)))
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(quote)
}

func (s *QuoteService) writeError(w http.ResponseWriter, msg string, err error) {
	s.log.Error(msg, zap.Error(err))

	var qe quote3.Quote3Error
	if !errors.As(err, &qe) {
		http.Error(w, msg, http.StatusInternalServerError)
		return
	}
	w.Header().Set(constants.Quote3ErrorHeader, fmt.Sprintf("0x%04x", qe.Code()))
	http.Error(w, fmt.Sprintf("%s: %s", msg, qe.Description()), httpStatusForQuote3Error(qe))
}

func httpStatusForQuote3Error(qe quote3.Quote3Error) int {
	switch qe {
	case quote3.InvalidParameter, quote3.InvalidReport, quote3.ReportInvalid:
		return http.StatusBadRequest
	case quote3.InterfaceUnavailable,
		quote3.PlatformLibUnavailable,
		quote3.EnclaveLoadFailure,
		quote3.EnclaveLost,
		quote3.OutOfEpc,
		quote3.OutOfMemory,
		quote3.NoPlatformCertData,
		quote3.AttKeyNotInitialized:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
