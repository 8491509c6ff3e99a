//go:build cgo && linux && dcap_ql_link

package sgxdcapql

/*
#cgo LDFLAGS: -lsgx_dcap_ql

#include <stdint.h>

uint32_t sgx_qe_get_target_info(void *p_qe_target_info);
uint32_t sgx_qe_get_quote_size(uint32_t *p_quote_size);
uint32_t sgx_qe_get_quote(const void *p_app_report, uint32_t quote_size, uint8_t *p_quote);
*/
import "C"

import (
	"unsafe"

	"github.com/opensovereigncloud/cc-dcap-ql/pkg/sgx"
)

// Linked reports whether libsgx_dcap_ql was linked at build time.
const Linked = true

// GetTargetInfo calls sgx_qe_get_target_info.
func GetTargetInfo(targetInfo *sgx.Targetinfo) uint32 {
	return uint32(C.sgx_qe_get_target_info(unsafe.Pointer(targetInfo)))
}

// GetQuoteSize calls sgx_qe_get_quote_size.
func GetQuoteSize(quoteSize *uint32) uint32 {
	return uint32(C.sgx_qe_get_quote_size((*C.uint32_t)(unsafe.Pointer(quoteSize))))
}

// GetQuote calls sgx_qe_get_quote. quote must point to at least quoteSize
// writable bytes.
func GetQuote(report *sgx.Report, quoteSize uint32, quote *byte) uint32 {
	return uint32(C.sgx_qe_get_quote(unsafe.Pointer(report), C.uint32_t(quoteSize), (*C.uint8_t)(unsafe.Pointer(quote))))
}
