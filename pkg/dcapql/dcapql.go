// Package dcapql exposes the C interface of the Intel SGX DCAP Quoting
// Library (libsgx_dcap_ql).
//
// The library can be reached in two ways. Linked returns the entry points
// bound at build time (requires the dcap_ql_link build tag). Open loads the
// shared object at runtime. Either way the result is a Funcs value whose
// members have the exact native signatures and return the raw
// quote3_error_t code; Quoter wraps a Funcs in an error-returning API.
//
// Usage order (target info before the enclave creates its report, quote
// size before quote generation) is a convention of the native library and is
// not enforced here.
package dcapql

import (
	"errors"
	"fmt"
	"strings"

	sgxdcapql "github.com/opensovereigncloud/cc-dcap-ql/internal/pkg/sgx_dcap_ql"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/sgx"
)

// LibraryName is the file name of the quoting library's shared object.
const LibraryName = "libsgx_dcap_ql.so.1"

// Link names of the exported entry points.
const (
	LinkNameGetTargetInfo = "sgx_qe_get_target_info"
	LinkNameGetQuoteSize  = "sgx_qe_get_quote_size"
	LinkNameGetQuote      = "sgx_qe_get_quote"
)

// NUL-terminated symbol names for runtime resolution.
const (
	SymGetTargetInfo = LinkNameGetTargetInfo + "\x00"
	SymGetQuoteSize  = LinkNameGetQuoteSize + "\x00"
	SymGetQuote      = LinkNameGetQuote + "\x00"
)

// GetTargetInfoFn has the signature of sgx_qe_get_target_info.
// On success the library has written the Quoting Enclave's target info.
type GetTargetInfoFn func(targetInfo *sgx.Targetinfo) uint32

// GetQuoteSizeFn has the signature of sgx_qe_get_quote_size.
// The size depends on the attestation key and certification data in use and
// must be queried again whenever a new buffer is allocated.
type GetQuoteSizeFn func(quoteSize *uint32) uint32

// GetQuoteFn has the signature of sgx_qe_get_quote. quote must point to a
// caller-owned buffer of quoteSize bytes. Behavior for a quoteSize other than
// the one last returned by GetQuoteSizeFn is defined by the native library.
type GetQuoteFn func(report *sgx.Report, quoteSize uint32, quote *byte) uint32

// Funcs is one complete set of quoting entry points.
type Funcs struct {
	GetTargetInfo GetTargetInfoFn
	GetQuoteSize  GetQuoteSizeFn
	GetQuote      GetQuoteFn
}

func (f Funcs) validate() error {
	if f.GetTargetInfo == nil || f.GetQuoteSize == nil || f.GetQuote == nil {
		return errors.New("dcapql: incomplete set of entry points")
	}
	return nil
}

var (
	// ErrNotLinked is returned by Linked when the binary was built without
	// the dcap_ql_link tag.
	ErrNotLinked = errors.New("dcapql: built without the dcap_ql_link tag")
	// ErrNotBuilt is returned by Open when runtime loading is unavailable
	// (no cgo, or not linux).
	ErrNotBuilt = sgxdcapql.ErrNotBuilt
	// ErrUnknownLinkage is returned for a linkage other than static or dynamic.
	ErrUnknownLinkage = errors.New("dcapql: unknown linkage")
)

// Linked returns the entry points linked into the binary at build time.
func Linked() (Funcs, error) {
	if !sgxdcapql.Linked {
		return Funcs{}, ErrNotLinked
	}
	return Funcs{
		GetTargetInfo: sgxdcapql.GetTargetInfo,
		GetQuoteSize:  sgxdcapql.GetQuoteSize,
		GetQuote:      sgxdcapql.GetQuote,
	}, nil
}

// Library is a quoting library loaded at runtime.
type Library struct {
	lib *sgxdcapql.Library
}

// Open loads the quoting library from path. An empty path loads LibraryName
// through the dynamic linker's search path.
func Open(path string) (*Library, error) {
	if path == "" {
		path = LibraryName
	}
	lib, err := sgxdcapql.Open(path, sgxdcapql.Symbols{
		GetTargetInfo: SymGetTargetInfo,
		GetQuoteSize:  SymGetQuoteSize,
		GetQuote:      SymGetQuote,
	})
	if err != nil {
		return nil, err
	}
	return &Library{lib: lib}, nil
}

// Funcs returns the resolved entry points. They report InterfaceUnavailable
// once the library is closed.
func (l *Library) Funcs() Funcs {
	return Funcs{
		GetTargetInfo: l.lib.GetTargetInfo,
		GetQuoteSize:  l.lib.GetQuoteSize,
		GetQuote:      l.lib.GetQuote,
	}
}

// Close unloads the library.
func (l *Library) Close() error {
	return l.lib.Close()
}

// Linkage selects how the quoting library is reached.
type Linkage string

const (
	// LinkageStatic uses the entry points linked at build time.
	LinkageStatic Linkage = "static"
	// LinkageDynamic loads the shared object at runtime.
	LinkageDynamic Linkage = "dynamic"
)

// ParseLinkage parses a linkage name case-insensitively.
func ParseLinkage(s string) (Linkage, error) {
	switch l := Linkage(strings.ToLower(strings.TrimSpace(s))); l {
	case LinkageStatic, LinkageDynamic:
		return l, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLinkage, s)
	}
}

// Bind returns the entry points for the given linkage together with a
// function releasing them. path is only used for LinkageDynamic.
func Bind(linkage Linkage, path string) (Funcs, func() error, error) {
	switch linkage {
	case LinkageStatic:
		funcs, err := Linked()
		if err != nil {
			return Funcs{}, nil, err
		}
		return funcs, func() error { return nil }, nil
	case LinkageDynamic:
		lib, err := Open(path)
		if err != nil {
			return Funcs{}, nil, err
		}
		return lib.Funcs(), lib.Close, nil
	default:
		return Funcs{}, nil, fmt.Errorf("%w: %q", ErrUnknownLinkage, linkage)
	}
}
