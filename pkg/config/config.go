package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/opensovereigncloud/cc-dcap-ql/pkg/constants"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/dcapql"
)

// QuotingServiceConfig holds all configuration for reaching the quoting library
// and serving quotes
type QuotingServiceConfig struct {
	// Library settings
	Linkage     dcapql.Linkage // From DCAP_QL_LINKAGE
	LibraryPath string         // From DCAP_QL_LIBRARY_PATH, only used for dynamic linkage

	// Service settings
	ServicePort int
}

// LoadQuotingServiceConfig loads configuration from environment variables
func LoadQuotingServiceConfig() (*QuotingServiceConfig, error) {
	config := &QuotingServiceConfig{
		Linkage:     constants.DefaultLinkage,
		LibraryPath: constants.DefaultLibraryPath,
		ServicePort: constants.DefaultQuotingServicePort,
	}

	if linkageEnv := os.Getenv(constants.LinkageEnv); linkageEnv != "" {
		linkage, err := dcapql.ParseLinkage(linkageEnv)
		if err != nil {
			return nil, fmt.Errorf("invalid linkage: %w", err)
		}
		config.Linkage = linkage
	}

	if pathEnv := os.Getenv(constants.LibraryPathEnv); pathEnv != "" {
		config.LibraryPath = pathEnv
	}

	if portEnv := os.Getenv(constants.QuotingServicePortEnv); portEnv != "" {
		parsed, err := strconv.Atoi(portEnv)
		if err != nil {
			return nil, fmt.Errorf("invalid service port: %w", err)
		}
		config.ServicePort = parsed
	}
	if err := ValidatePort(config.ServicePort); err != nil {
		return nil, err
	}

	return config, nil
}

// ValidatePort rejects ports outside 1-65535. Port 0 is rejected as well,
// the service always listens on a fixed port.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("service port must be between 1 and 65535, got %d", port)
	}
	return nil
}
