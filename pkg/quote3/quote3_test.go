package quote3

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantCodes(t *testing.T) {
	tests := []struct {
		variant Quote3Error
		code    uint32
	}{
		{Success, 0x0},
		{InvalidParameter, 0xe002},
		{OutOfMemory, 0xe003},
		{EcdsaIdMismatch, 0xe004},
		{PathnameBufferOverflow, 0xe005},
		{FileAccessError, 0xe006},
		{StoredKeyInvalid, 0xe007},
		{PubKeyIdMismatch, 0xe008},
		{InvalidPceSigScheme, 0xe009},
		{AttKeyBlobInvalid, 0xe00a},
		{UnsupportedAttKeyId, 0xe00b},
		{UnsupportedLoadingPolicy, 0xe00c},
		{InterfaceUnavailable, 0xe00d},
		{PlatformLibUnavailable, 0xe00e},
		{AttKeyNotInitialized, 0xe00f},
		{AttKeyCertDataInvalid, 0xe010},
		{NoPlatformCertData, 0xe011},
		{OutOfEpc, 0xe012},
		{ReportInvalid, 0xe013},
		{EnclaveLost, 0xe014},
		{InvalidReport, 0xe015},
		{EnclaveLoadFailure, 0xe016},
		{UnableToGenerateQeReport, 0xe017},
		{KeyCertifcationError, 0xe018},
	}

	require.Len(t, Variants(), len(tests))

	for _, tt := range tests {
		t.Run(tt.variant.String(), func(t *testing.T) {
			assert := assert.New(t)

			assert.Equal(tt.code, tt.variant.Code())

			back, ok := FromCode(tt.variant.Code())
			assert.True(ok)
			assert.Equal(tt.variant, back)
			assert.True(back.Known())
		})
	}
}

func TestVariantsAscending(t *testing.T) {
	all := Variants()
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Code(), all[i].Code())
	}
}

func TestFromCodeUnknown(t *testing.T) {
	for _, code := range []uint32{0x1, 0xe000, 0xe001, 0xe019, 0xffffffff} {
		t.Run(fmt.Sprintf("0x%x", code), func(t *testing.T) {
			e, ok := FromCode(code)
			assert.False(t, ok)
			assert.Equal(t, code, e.Code())
			assert.False(t, e.Known())
		})
	}
}

func TestStatus(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(Status(0))

	err := Status(0xe012)
	require.Error(t, err)
	assert.ErrorIs(err, OutOfEpc)

	var qe Quote3Error
	require.True(t, errors.As(fmt.Errorf("sgx_qe_get_quote: %w", Status(0xe014)), &qe))
	assert.Equal(EnclaveLost, qe)

	// Unknown codes survive untouched.
	err = Status(0xe0ff)
	require.True(t, errors.As(err, &qe))
	assert.Equal(uint32(0xe0ff), qe.Code())
}

func TestStrings(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("OutOfMemory", OutOfMemory.String())
	assert.Equal("Quote3Error(0xe0ff)", Quote3Error(0xe0ff).String())
	assert.Equal("Unknown error", Quote3Error(0xe0ff).Description())
	assert.Contains(KeyCertifcationError.Error(), "0xe018")
	assert.Contains(KeyCertifcationError.Error(), "KeyCertifcationError")
	assert.True(Success.IsSuccess())
	assert.False(InvalidReport.IsSuccess())

	for _, v := range Variants() {
		assert.NotEqual("Unknown error", v.Description(), v.String())
	}
}
