// Package quote3 mirrors the quote3_error_t status codes returned by the
// SGX DCAP Quoting Library.
//
// The numeric values are part of the native ABI and must stay in lock-step
// with sgx_ql_lib_common.h.
package quote3

import "fmt"

// Quote3Error is a status code returned by libsgx_dcap_ql.
type Quote3Error uint32

const (
	Success                  Quote3Error = 0x0000
	InvalidParameter         Quote3Error = 0xe002
	OutOfMemory              Quote3Error = 0xe003
	EcdsaIdMismatch          Quote3Error = 0xe004
	PathnameBufferOverflow   Quote3Error = 0xe005
	FileAccessError          Quote3Error = 0xe006
	StoredKeyInvalid         Quote3Error = 0xe007
	PubKeyIdMismatch         Quote3Error = 0xe008
	InvalidPceSigScheme      Quote3Error = 0xe009
	AttKeyBlobInvalid        Quote3Error = 0xe00a
	UnsupportedAttKeyId      Quote3Error = 0xe00b
	UnsupportedLoadingPolicy Quote3Error = 0xe00c
	InterfaceUnavailable     Quote3Error = 0xe00d
	PlatformLibUnavailable   Quote3Error = 0xe00e
	AttKeyNotInitialized     Quote3Error = 0xe00f
	AttKeyCertDataInvalid    Quote3Error = 0xe010
	NoPlatformCertData       Quote3Error = 0xe011
	OutOfEpc                 Quote3Error = 0xe012
	ReportInvalid            Quote3Error = 0xe013
	EnclaveLost              Quote3Error = 0xe014
	InvalidReport            Quote3Error = 0xe015
	EnclaveLoadFailure       Quote3Error = 0xe016
	UnableToGenerateQeReport Quote3Error = 0xe017
	KeyCertifcationError     Quote3Error = 0xe018
)

type variantInfo struct {
	name        string
	description string
}

var variants = map[Quote3Error]variantInfo{
	Success:                  {"Success", "Success"},
	InvalidParameter:         {"InvalidParameter", "The parameter is incorrect"},
	OutOfMemory:              {"OutOfMemory", "Not enough memory is available to complete this operation"},
	EcdsaIdMismatch:          {"EcdsaIdMismatch", "Expected ECDSA_ID does not match the value stored in the ECDSA Blob"},
	PathnameBufferOverflow:   {"PathnameBufferOverflow", "The ECDSA blob pathname is too large"},
	FileAccessError:          {"FileAccessError", "Error accessing ECDSA blob"},
	StoredKeyInvalid:         {"StoredKeyInvalid", "Cached ECDSA key is invalid"},
	PubKeyIdMismatch:         {"PubKeyIdMismatch", "Cached ECDSA key does not match requested key"},
	InvalidPceSigScheme:      {"InvalidPceSigScheme", "PCE use the incorrect signature scheme"},
	AttKeyBlobInvalid:        {"AttKeyBlobInvalid", "There is a problem with the attestation key blob"},
	UnsupportedAttKeyId:      {"UnsupportedAttKeyId", "Unsupported attestation key ID"},
	UnsupportedLoadingPolicy: {"UnsupportedLoadingPolicy", "Unsupported enclave loading policy"},
	InterfaceUnavailable:     {"InterfaceUnavailable", "Unable to load the QE enclave"},
	PlatformLibUnavailable:   {"PlatformLibUnavailable", "Unable to find the platform library with the dependent APIs"},
	AttKeyNotInitialized:     {"AttKeyNotInitialized", "The attestation key doesn't exist or has not been certified"},
	AttKeyCertDataInvalid:    {"AttKeyCertDataInvalid", "The certification data retrieved from the platform library is invalid"},
	NoPlatformCertData:       {"NoPlatformCertData", "The platform library doesn't have any platform cert data"},
	OutOfEpc:                 {"OutOfEpc", "Not enough memory in the EPC to load the enclave"},
	ReportInvalid:            {"ReportInvalid", "There was a problem verifying an SGX REPORT"},
	EnclaveLost:              {"EnclaveLost", "Interfacing to the enclave failed due to a power transition"},
	InvalidReport:            {"InvalidReport", "Error verifying the application enclave's report"},
	EnclaveLoadFailure:       {"EnclaveLoadFailure", "Unable to load the enclaves"},
	UnableToGenerateQeReport: {"UnableToGenerateQeReport", "The QE was unable to generate its own report targeting the application enclave"},
	KeyCertifcationError:     {"KeyCertifcationError", "The provider library returned an invalid TCB"},
}

// FromCode converts a raw native return code into a Quote3Error.
// ok is false if the code is not one of the known variants.
func FromCode(code uint32) (e Quote3Error, ok bool) {
	e = Quote3Error(code)
	_, ok = variants[e]
	return e, ok
}

// Status converts a raw native return code into an error.
// Success yields nil; every other code, known or not, is returned as a
// Quote3Error holding the raw value.
func Status(code uint32) error {
	if Quote3Error(code) == Success {
		return nil
	}
	return Quote3Error(code)
}

// Variants returns every known status code in ascending order.
func Variants() []Quote3Error {
	return []Quote3Error{
		Success,
		InvalidParameter,
		OutOfMemory,
		EcdsaIdMismatch,
		PathnameBufferOverflow,
		FileAccessError,
		StoredKeyInvalid,
		PubKeyIdMismatch,
		InvalidPceSigScheme,
		AttKeyBlobInvalid,
		UnsupportedAttKeyId,
		UnsupportedLoadingPolicy,
		InterfaceUnavailable,
		PlatformLibUnavailable,
		AttKeyNotInitialized,
		AttKeyCertDataInvalid,
		NoPlatformCertData,
		OutOfEpc,
		ReportInvalid,
		EnclaveLost,
		InvalidReport,
		EnclaveLoadFailure,
		UnableToGenerateQeReport,
		KeyCertifcationError,
	}
}

// Code returns the raw native value.
func (e Quote3Error) Code() uint32 {
	return uint32(e)
}

// IsSuccess reports whether e is Success.
func (e Quote3Error) IsSuccess() bool {
	return e == Success
}

// Known reports whether e is one of the variants declared by the native header.
func (e Quote3Error) Known() bool {
	_, ok := variants[e]
	return ok
}

func (e Quote3Error) String() string {
	if v, ok := variants[e]; ok {
		return v.name
	}
	return fmt.Sprintf("Quote3Error(0x%04x)", uint32(e))
}

// Description returns the explanation given for e in the native header.
func (e Quote3Error) Description() string {
	if v, ok := variants[e]; ok {
		return v.description
	}
	return "Unknown error"
}

func (e Quote3Error) Error() string {
	return fmt.Sprintf("quote3 error 0x%04x (%s): %s", uint32(e), e.String(), e.Description())
}
