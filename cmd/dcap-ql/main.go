package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opensovereigncloud/cc-dcap-ql/pkg/config"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/dcapql"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/metrics"
)

// bindFunc resolves the quoting entry points. Replaced in tests.
type bindFunc func(linkage dcapql.Linkage, path string) (dcapql.Funcs, func() error, error)

type rootOptions struct {
	linkage string
	library string
	debug   bool

	bind bindFunc
	cfg  *config.QuotingServiceConfig
	log  *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(dcapql.Bind).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(bind bindFunc) *cobra.Command {
	opts := &rootOptions{bind: bind}

	cmd := &cobra.Command{
		Use:          "dcap-ql",
		Short:        "Generate SGX DCAP quotes through libsgx_dcap_ql",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}
	cmd.PersistentFlags().StringVar(&opts.linkage, "linkage", "", "how to reach the quoting library: static or dynamic (env DCAP_QL_LINKAGE)")
	cmd.PersistentFlags().StringVar(&opts.library, "library", "", "path of the quoting library for dynamic linkage (env DCAP_QL_LIBRARY_PATH)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newTargetInfoCmd(opts),
		newQuoteSizeCmd(opts),
		newQuoteCmd(opts),
		newErrorsCmd(),
		newServeCmd(opts),
	)

	cmd.SetErr(os.Stderr)
	return cmd
}

func (o *rootOptions) init(cmd *cobra.Command) error {
	logCfg := zap.NewProductionConfig()
	if o.debug {
		logCfg = zap.NewDevelopmentConfig()
	}
	logger, err := logCfg.Build()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	o.log = logger

	cfg, err := config.LoadQuotingServiceConfig()
	if err != nil {
		o.log.Error("unable to load configuration", zap.Error(err))
		return err
	}
	if cmd.Flags().Changed("linkage") {
		linkage, err := dcapql.ParseLinkage(o.linkage)
		if err != nil {
			return err
		}
		cfg.Linkage = linkage
	}
	if cmd.Flags().Changed("library") {
		cfg.LibraryPath = o.library
	}
	o.cfg = cfg
	return nil
}

// newQuoter binds the quoting library according to the configuration.
// The returned function releases the library.
func (o *rootOptions) newQuoter(opts ...dcapql.Option) (*dcapql.Quoter, func(), error) {
	funcs, release, err := o.bind(o.cfg.Linkage, o.cfg.LibraryPath)
	if err != nil {
		o.log.Error("unable to bind the quoting library",
			zap.String("linkage", string(o.cfg.Linkage)),
			zap.String("library", o.cfg.LibraryPath),
			zap.Error(err))
		return nil, nil, err
	}
	o.log.Debug("Quoting library bound",
		zap.String("linkage", string(o.cfg.Linkage)),
		zap.String("library", o.cfg.LibraryPath))

	opts = append([]dcapql.Option{dcapql.WithLogger(zapr.NewLogger(o.log))}, opts...)
	quoter, err := dcapql.NewQuoter(funcs, opts...)
	if err != nil {
		_ = release()
		return nil, nil, err
	}
	return quoter, func() {
		if err := release(); err != nil {
			o.log.Warn("unable to release the quoting library", zap.Error(err))
		}
	}, nil
}

// newMetricsRegistry is split out so serve can share it with the quoter.
func (o *rootOptions) newMetricsRegistry() *metrics.QuotingMetricsRegistry {
	return metrics.NewQuotingMetricsRegistry(o.log)
}
