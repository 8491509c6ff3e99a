package sgx

import (
	"bytes"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizes(t *testing.T) {
	assert.EqualValues(t, 512, unsafe.Sizeof(Targetinfo{}))
	assert.EqualValues(t, 432, unsafe.Sizeof(Report{}))
}

func TestFromBytes(t *testing.T) {
	testCases := map[string]struct {
		size    int
		wantErr bool
	}{
		"exact":     {size: ReportSize},
		"too short": {size: ReportSize - 1, wantErr: true},
		"too long":  {size: ReportSize + 1, wantErr: true},
		"empty":     {size: 0, wantErr: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			raw := bytes.Repeat([]byte{0xab}, tc.size)
			r, err := ReportFromBytes(raw)
			if tc.wantErr {
				assert.Error(err)
				return
			}
			require.NoError(t, err)
			assert.Equal(raw, r[:])
		})
	}

	_, err := TargetinfoFromBytes(make([]byte, ReportSize))
	assert.Error(t, err)
	ti, err := TargetinfoFromBytes(make([]byte, TargetinfoSize))
	require.NoError(t, err)
	assert.Equal(t, Targetinfo{}, *ti)
}

func TestReportFields(t *testing.T) {
	assert := assert.New(t)

	var r Report
	for i := range r {
		r[i] = byte(i)
	}

	mrEnclave := r.MREnclave()
	assert.Equal(r[64:96], mrEnclave[:])
	mrSigner := r.MRSigner()
	assert.Equal(r[128:160], mrSigner[:])
	data := r.ReportData()
	assert.Equal(r[320:384], data[:])
	body := r.Body()
	assert.Equal(r[:384], body[:])
}
