// Package sgxdcapql contains the cgo bindings to libsgx_dcap_ql.
//
// Two mutually independent surfaces are provided: functions linked at build
// time (build tag dcap_ql_link) and a Library resolved at runtime with
// dlopen/dlsym. Both hand raw quote3_error_t values back to the caller
// without interpreting them.
//
// Calls block the calling goroutine's thread until the native library
// returns. Whether the library is reentrant is up to the library.
package sgxdcapql

import "errors"

// ErrNotBuilt is returned when the package was compiled without cgo support
// for the current platform.
var ErrNotBuilt = errors.New("sgx_dcap_ql: native bindings not built for this platform")

// Symbols holds the NUL-terminated symbol names resolved by Open.
type Symbols struct {
	GetTargetInfo string
	GetQuoteSize  string
	GetQuote      string
}
