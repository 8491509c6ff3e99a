package constants

import "time"

const DefaultLinkage = "dynamic"
const LinkageEnv = "DCAP_QL_LINKAGE" // "static" or "dynamic"

const DefaultLibraryPath = "libsgx_dcap_ql.so.1"
const LibraryPathEnv = "DCAP_QL_LIBRARY_PATH"

const DefaultQuotingServicePort = 8080
const QuotingServicePortEnv = "DCAP_QL_SERVICE_PORT"

// HTTP server settings for the quoting service
const QuotingServiceReadTimeout = 30 * time.Second
const QuotingServiceWriteTimeout = 2 * time.Minute // quote generation may load the QE
const QuotingServiceShutdownTimeout = 10 * time.Second

// Quote3ErrorHeader carries the hex quote3_error_t code of a failed request.
const Quote3ErrorHeader = "Quote3-Error"
