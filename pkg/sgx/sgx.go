// Package sgx defines the fixed-size SGX structures exchanged with the
// quoting library. Their contents are treated as opaque bytes.
package sgx

import "fmt"

const (
	// TargetinfoSize is sizeof(sgx_target_info_t).
	TargetinfoSize = 512
	// ReportSize is sizeof(sgx_report_t).
	ReportSize = 432
	// ReportBodySize is sizeof(sgx_report_body_t), the leading part of a report.
	ReportBodySize = 384
)

// Report body field offsets.
// https://github.com/intel/linux-sgx/blob/master/common/inc/sgx_report.h
const (
	mrEnclaveOffset  = 64
	mrSignerOffset   = 128
	reportDataOffset = 320
)

// Targetinfo identifies the enclave a report is targeted at (sgx_target_info_t).
type Targetinfo [TargetinfoSize]byte

// Report is an EREPORT produced by an application enclave (sgx_report_t).
type Report [ReportSize]byte

// TargetinfoFromBytes copies b into a Targetinfo.
func TargetinfoFromBytes(b []byte) (*Targetinfo, error) {
	if len(b) != TargetinfoSize {
		return nil, fmt.Errorf("target info must be %d bytes, received %d bytes", TargetinfoSize, len(b))
	}
	var ti Targetinfo
	copy(ti[:], b)
	return &ti, nil
}

// ReportFromBytes copies b into a Report.
func ReportFromBytes(b []byte) (*Report, error) {
	if len(b) != ReportSize {
		return nil, fmt.Errorf("report must be %d bytes, received %d bytes", ReportSize, len(b))
	}
	var r Report
	copy(r[:], b)
	return &r, nil
}

// Body returns the report body.
func (r *Report) Body() [ReportBodySize]byte {
	return [ReportBodySize]byte(r[:ReportBodySize])
}

// MREnclave returns the enclave measurement.
func (r *Report) MREnclave() [32]byte {
	return [32]byte(r[mrEnclaveOffset : mrEnclaveOffset+32])
}

// MRSigner returns the hash of the enclave signer's public key.
func (r *Report) MRSigner() [32]byte {
	return [32]byte(r[mrSignerOffset : mrSignerOffset+32])
}

// ReportData returns the user data bound into the report.
func (r *Report) ReportData() [64]byte {
	return [64]byte(r[reportDataOffset : reportDataOffset+64])
}
