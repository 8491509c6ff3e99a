//go:build !cgo || !linux

package sgxdcapql

import (
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/quote3"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/sgx"
)

// Library is a handle to a dynamically loaded libsgx_dcap_ql.
type Library struct{}

// Open is only supported on linux with cgo enabled.
func Open(_ string, _ Symbols) (*Library, error) {
	return nil, ErrNotBuilt
}

// GetTargetInfo reports InterfaceUnavailable.
func (l *Library) GetTargetInfo(_ *sgx.Targetinfo) uint32 {
	return quote3.InterfaceUnavailable.Code()
}

// GetQuoteSize reports InterfaceUnavailable.
func (l *Library) GetQuoteSize(_ *uint32) uint32 {
	return quote3.InterfaceUnavailable.Code()
}

// GetQuote reports InterfaceUnavailable.
func (l *Library) GetQuote(_ *sgx.Report, _ uint32, _ *byte) uint32 {
	return quote3.InterfaceUnavailable.Code()
}

// Close is a no-op.
func (l *Library) Close() error {
	return nil
}
