// Package dcapqltest provides an in-process stand-in for libsgx_dcap_ql.
package dcapqltest

import (
	"encoding/binary"
	"sync"
	"unsafe"

	"github.com/opensovereigncloud/cc-dcap-ql/pkg/dcapql"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/quote3"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/sgx"
)

const (
	// DefaultQuoteSize is the quote size reported by a fresh Fake.
	DefaultQuoteSize = 4578

	// QuoteHeaderSize is the size of the sgx_quote3_t header written by Fake.
	QuoteHeaderSize = 48

	quoteVersion       = 3
	attKeyTypeECDSA256 = 2
)

// Fake implements the quoting entry points in Go.
// A zero status field means the corresponding call succeeds.
type Fake struct {
	mu sync.Mutex

	TargetInfo sgx.Targetinfo
	QuoteSize  uint32

	TargetInfoStatus quote3.Quote3Error
	QuoteSizeStatus  quote3.Quote3Error
	QuoteStatus      quote3.Quote3Error

	calls map[string]int
}

// New returns a Fake advertising DefaultQuoteSize.
func New() *Fake {
	f := &Fake{QuoteSize: DefaultQuoteSize}
	for i := range f.TargetInfo {
		f.TargetInfo[i] = byte(i)
	}
	return f
}

// Funcs returns entry points backed by f.
func (f *Fake) Funcs() dcapql.Funcs {
	return dcapql.Funcs{
		GetTargetInfo: f.GetTargetInfo,
		GetQuoteSize:  f.GetQuoteSize,
		GetQuote:      f.GetQuote,
	}
}

// Calls returns how often the entry point with the given link name was called.
func (f *Fake) Calls(linkName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[linkName]
}

// GetTargetInfo implements sgx_qe_get_target_info.
func (f *Fake) GetTargetInfo(targetInfo *sgx.Targetinfo) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(dcapql.LinkNameGetTargetInfo)

	if targetInfo == nil {
		return quote3.InvalidParameter.Code()
	}
	if f.TargetInfoStatus != quote3.Success {
		return f.TargetInfoStatus.Code()
	}
	*targetInfo = f.TargetInfo
	return quote3.Success.Code()
}

// GetQuoteSize implements sgx_qe_get_quote_size.
func (f *Fake) GetQuoteSize(quoteSize *uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(dcapql.LinkNameGetQuoteSize)

	if quoteSize == nil {
		return quote3.InvalidParameter.Code()
	}
	if f.QuoteSizeStatus != quote3.Success {
		return f.QuoteSizeStatus.Code()
	}
	*quoteSize = f.QuoteSize
	return quote3.Success.Code()
}

// GetQuote implements sgx_qe_get_quote. A buffer shorter than QuoteSize is
// rejected with InvalidParameter.
func (f *Fake) GetQuote(report *sgx.Report, quoteSize uint32, quote *byte) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(dcapql.LinkNameGetQuote)

	if report == nil || quote == nil || quoteSize < f.QuoteSize || f.QuoteSize < QuoteHeaderSize+sgx.ReportBodySize {
		return quote3.InvalidParameter.Code()
	}
	if f.QuoteStatus != quote3.Success {
		return f.QuoteStatus.Code()
	}

	buf := unsafe.Slice(quote, quoteSize)
	clear(buf)
	binary.LittleEndian.PutUint16(buf[0:2], quoteVersion)
	binary.LittleEndian.PutUint16(buf[2:4], attKeyTypeECDSA256)
	body := report.Body()
	copy(buf[QuoteHeaderSize:], body[:])
	return quote3.Success.Code()
}

func (f *Fake) record(linkName string) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[linkName]++
}
