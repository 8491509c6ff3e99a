//go:build !(cgo && linux && dcap_ql_link)

package sgxdcapql

import (
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/quote3"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/sgx"
)

// Linked reports whether libsgx_dcap_ql was linked at build time.
const Linked = false

// GetTargetInfo always reports InterfaceUnavailable in builds without the
// dcap_ql_link tag.
func GetTargetInfo(_ *sgx.Targetinfo) uint32 {
	return quote3.InterfaceUnavailable.Code()
}

// GetQuoteSize always reports InterfaceUnavailable in builds without the
// dcap_ql_link tag.
func GetQuoteSize(_ *uint32) uint32 {
	return quote3.InterfaceUnavailable.Code()
}

// GetQuote always reports InterfaceUnavailable in builds without the
// dcap_ql_link tag.
func GetQuote(_ *sgx.Report, _ uint32, _ *byte) uint32 {
	return quote3.InterfaceUnavailable.Code()
}
