package dcapql

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/opensovereigncloud/cc-dcap-ql/pkg/quote3"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/sgx"
)

// Observer is notified after every native call.
type Observer interface {
	ObserveCall(function string, status quote3.Quote3Error, duration time.Duration)
}

// Quoter calls a set of quoting entry points and turns their status codes
// into errors. Failed calls are never retried.
type Quoter struct {
	funcs    Funcs
	log      logr.Logger
	observer Observer
}

// Option configures a Quoter.
type Option func(*Quoter)

// WithLogger sets the logger used for per-call debug output.
func WithLogger(log logr.Logger) Option {
	return func(q *Quoter) {
		q.log = log
	}
}

// WithObserver registers an Observer for native calls.
func WithObserver(o Observer) Option {
	return func(q *Quoter) {
		q.observer = o
	}
}

// NewQuoter returns a Quoter backed by funcs.
func NewQuoter(funcs Funcs, opts ...Option) (*Quoter, error) {
	if err := funcs.validate(); err != nil {
		return nil, err
	}
	q := &Quoter{
		funcs: funcs,
		log:   logr.Discard(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// TargetInfo returns the Quoting Enclave's target info. The application
// enclave targets its report at it.
func (q *Quoter) TargetInfo() (sgx.Targetinfo, error) {
	var ti sgx.Targetinfo
	if err := q.call(LinkNameGetTargetInfo, func() uint32 {
		return q.funcs.GetTargetInfo(&ti)
	}); err != nil {
		return sgx.Targetinfo{}, err
	}
	return ti, nil
}

// QuoteSize returns the size of the quote the library currently produces.
func (q *Quoter) QuoteSize() (uint32, error) {
	var size uint32
	if err := q.call(LinkNameGetQuoteSize, func() uint32 {
		return q.funcs.GetQuoteSize(&size)
	}); err != nil {
		return 0, err
	}
	return size, nil
}

// QuoteInto generates a quote for report into buf, passing len(buf) as the
// quote size. The contents of buf are undefined unless the error is nil.
// buf should be exactly as long as the last QuoteSize result; how the native
// library treats any other length is library-defined.
//
// A nil report is rejected with InvalidParameter without calling into the
// library, as is a buffer too large for a 32-bit size.
func (q *Quoter) QuoteInto(report *sgx.Report, buf []byte) error {
	if report == nil {
		return fmt.Errorf("%s: %w", LinkNameGetQuote, quote3.InvalidParameter)
	}
	if uint64(len(buf)) > uint64(^uint32(0)) {
		return fmt.Errorf("%s: quote buffer of %d bytes exceeds 32-bit size: %w", LinkNameGetQuote, len(buf), quote3.InvalidParameter)
	}

	var p *byte
	if len(buf) > 0 {
		p = &buf[0]
	}
	return q.call(LinkNameGetQuote, func() uint32 {
		return q.funcs.GetQuote(report, uint32(len(buf)), p)
	})
}

// Quote queries the quote size, allocates a buffer of exactly that size and
// generates a quote for report into it.
func (q *Quoter) Quote(report *sgx.Report) ([]byte, error) {
	size, err := q.QuoteSize()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if err := q.QuoteInto(report, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (q *Quoter) call(function string, fn func() uint32) error {
	start := time.Now()
	code := fn()
	elapsed := time.Since(start)

	status := quote3.Quote3Error(code)
	q.log.V(1).Info("Native call returned", "function", function, "status", status.String(), "code", fmt.Sprintf("0x%04x", code), "duration", elapsed)
	if q.observer != nil {
		q.observer.ObserveCall(function, status, elapsed)
	}

	if err := quote3.Status(code); err != nil {
		return fmt.Errorf("%s: %w", function, err)
	}
	return nil
}
