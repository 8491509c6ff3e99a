//go:build cgo && linux

package sgxdcapql

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// Properties of testdata/stub_dcap_ql.c.
const (
	stubQuoteSize       = 1000
	stubTargetInfoLast  = 0xab
	stubStatusInvalid   = 0xe002
	stubStatusSuccess   = 0x0000
	stubLinkedEnv       = "DCAP_QL_STUB_LINKED"
	stubLibraryFileName = "libsgx_dcap_ql.so"
)

// buildStubLibrary compiles testdata/stub_dcap_ql.c into a shared object.
// The test is skipped if no C compiler is available.
func buildStubLibrary(t *testing.T) string {
	t.Helper()

	cc := os.Getenv("CC")
	if cc == "" {
		cc = "gcc"
	}
	if _, err := exec.LookPath(cc); err != nil {
		t.Skipf("C compiler %q not found: %v", cc, err)
	}

	out := filepath.Join(t.TempDir(), stubLibraryFileName)
	cmd := exec.Command(cc, "-shared", "-fPIC", "-o", out, filepath.Join("testdata", "stub_dcap_ql.c"))
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("compiling stub library: %v\n%s", err, output)
	}
	return out
}
