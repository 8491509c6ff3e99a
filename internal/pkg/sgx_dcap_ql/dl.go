//go:build cgo && linux

package sgxdcapql

/*
#cgo LDFLAGS: -ldl

#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

typedef uint32_t (*get_target_info_fn)(void *p_qe_target_info);
typedef uint32_t (*get_quote_size_fn)(uint32_t *p_quote_size);
typedef uint32_t (*get_quote_fn)(const void *p_app_report, uint32_t quote_size, uint8_t *p_quote);

static uint32_t call_get_target_info(void *fn, void *p_qe_target_info) {
	return ((get_target_info_fn)fn)(p_qe_target_info);
}

static uint32_t call_get_quote_size(void *fn, uint32_t *p_quote_size) {
	return ((get_quote_size_fn)fn)(p_quote_size);
}

static uint32_t call_get_quote(void *fn, const void *p_app_report, uint32_t quote_size, uint8_t *p_quote) {
	return ((get_quote_fn)fn)(p_app_report, quote_size, p_quote);
}
*/
import "C"

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/opensovereigncloud/cc-dcap-ql/pkg/quote3"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/sgx"
)

// Library is a handle to a dynamically loaded libsgx_dcap_ql.
type Library struct {
	mu            sync.RWMutex
	handle        unsafe.Pointer
	getTargetInfo unsafe.Pointer
	getQuoteSize  unsafe.Pointer
	getQuote      unsafe.Pointer
}

// Open loads the shared object at path and resolves the three quoting
// entry points.
func Open(path string, syms Symbols) (*Library, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	handle := C.dlopen(cPath, C.RTLD_NOW|C.RTLD_LOCAL)
	if handle == nil {
		return nil, fmt.Errorf("loading %s: %s", path, dlerror())
	}

	lib := &Library{handle: handle}
	for _, s := range []struct {
		dst  *unsafe.Pointer
		name string
	}{
		{&lib.getTargetInfo, syms.GetTargetInfo},
		{&lib.getQuoteSize, syms.GetQuoteSize},
		{&lib.getQuote, syms.GetQuote},
	} {
		fn, err := lookup(handle, s.name)
		if err != nil {
			C.dlclose(handle)
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		*s.dst = fn
	}

	return lib, nil
}

// lookup resolves a NUL-terminated symbol name. The name is handed to dlsym
// without copying.
func lookup(handle unsafe.Pointer, sym string) (unsafe.Pointer, error) {
	if !strings.HasSuffix(sym, "\x00") {
		return nil, fmt.Errorf("symbol name %q is not NUL-terminated", sym)
	}

	C.dlerror()
	fn := C.dlsym(handle, (*C.char)(unsafe.Pointer(unsafe.StringData(sym))))
	if fn == nil {
		return nil, fmt.Errorf("resolving %s: %s", strings.TrimSuffix(sym, "\x00"), dlerror())
	}
	return fn, nil
}

func dlerror() string {
	msg := C.dlerror()
	if msg == nil {
		return "unknown dl error"
	}
	return C.GoString(msg)
}

// GetTargetInfo calls sgx_qe_get_target_info through the resolved symbol.
func (l *Library) GetTargetInfo(targetInfo *sgx.Targetinfo) uint32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.getTargetInfo == nil {
		return quote3.InterfaceUnavailable.Code()
	}
	return uint32(C.call_get_target_info(l.getTargetInfo, unsafe.Pointer(targetInfo)))
}

// GetQuoteSize calls sgx_qe_get_quote_size through the resolved symbol.
func (l *Library) GetQuoteSize(quoteSize *uint32) uint32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.getQuoteSize == nil {
		return quote3.InterfaceUnavailable.Code()
	}
	return uint32(C.call_get_quote_size(l.getQuoteSize, (*C.uint32_t)(unsafe.Pointer(quoteSize))))
}

// GetQuote calls sgx_qe_get_quote through the resolved symbol. quote must
// point to at least quoteSize writable bytes.
func (l *Library) GetQuote(report *sgx.Report, quoteSize uint32, quote *byte) uint32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.getQuote == nil {
		return quote3.InterfaceUnavailable.Code()
	}
	return uint32(C.call_get_quote(l.getQuote, unsafe.Pointer(report), C.uint32_t(quoteSize), (*C.uint8_t)(unsafe.Pointer(quote))))
}

// Close unloads the library. Calls made after Close report
// InterfaceUnavailable.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle == nil {
		return nil
	}

	l.getTargetInfo, l.getQuoteSize, l.getQuote = nil, nil, nil
	handle := l.handle
	l.handle = nil
	if C.dlclose(handle) != 0 {
		return fmt.Errorf("unloading library: %s", dlerror())
	}
	return nil
}
