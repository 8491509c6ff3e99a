package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opensovereigncloud/cc-dcap-ql/pkg/config"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/dcapql"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/quote3"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/quoteservice"
	"github.com/opensovereigncloud/cc-dcap-ql/pkg/sgx"
)

func newTargetInfoCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "target-info",
		Short: "Write the Quoting Enclave's target info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			quoter, release, err := opts.newQuoter()
			if err != nil {
				return err
			}
			defer release()

			ti, err := quoter.TargetInfo()
			if err != nil {
				opts.log.Error("unable to get the QE target info", zap.Error(err))
				return err
			}
			return writeOutput(cmd.OutOrStdout(), out, ti[:])
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newQuoteSizeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "quote-size",
		Short: "Print the size of the quote the library currently generates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			quoter, release, err := opts.newQuoter()
			if err != nil {
				return err
			}
			defer release()

			size, err := quoter.QuoteSize()
			if err != nil {
				opts.log.Error("unable to get the quote size", zap.Error(err))
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), size)
			return err
		},
	}
}

func newQuoteCmd(opts *rootOptions) *cobra.Command {
	var reportPath, out string
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Generate a quote for an enclave report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(reportPath)
			if err != nil {
				return fmt.Errorf("failed to read report: %w", err)
			}
			report, err := sgx.ReportFromBytes(raw)
			if err != nil {
				return err
			}

			quoter, release, err := opts.newQuoter()
			if err != nil {
				return err
			}
			defer release()

			quote, err := quoter.Quote(report)
			if err != nil {
				opts.log.Error("unable to generate quote", zap.Error(err))
				return err
			}
			opts.log.Debug("Quote generated", zap.Int("size", len(quote)))
			return writeOutput(cmd.OutOrStdout(), out, quote)
		},
	}
	cmd.Flags().StringVarP(&reportPath, "report", "r", "", "file holding a 432 byte SGX report")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("report")
	return cmd
}

func newErrorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "errors",
		Short: "List the quote3 error codes",
		Args:  cobra.NoArgs,
		// No library or logger needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tDESCRIPTION")
			for _, v := range quote3.Variants() {
				fmt.Fprintf(w, "0x%04x\t%s\t%s\n", v.Code(), v.String(), v.Description())
			}
			return w.Flush()
		},
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve target info and quotes over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				if err := config.ValidatePort(port); err != nil {
					return err
				}
				opts.cfg.ServicePort = port
			}

			registry := opts.newMetricsRegistry()
			quoter, release, err := opts.newQuoter(dcapql.WithObserver(registry))
			if err != nil {
				return err
			}
			defer release()

			service := quoteservice.NewQuoteService(opts.log, opts.cfg, quoter, registry)
			return service.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (env DCAP_QL_SERVICE_PORT)")
	return cmd
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
