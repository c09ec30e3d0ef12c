package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tdaitx/irpersist/internal/ir"
)

// VerifyResult is the JSON payload of a successful verify.
type VerifyResult struct {
	File        string `json:"file"`
	Scopes      int    `json:"scopes"`
	Bytes       int    `json:"bytes"`
	Fingerprint string `json:"fingerprint"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <fixture>",
		Short: "Check that a fixture program survives an encode/decode round trip",
		Long: `Encode the program described by a fixture, decode every scope of the
result in a fresh session and compare the fingerprints of both programs.

Exits 1 when the fingerprints differ.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runVerify(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	log, err := opts.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	p, code, err := loadFixture(path, ir.NewManager(nil))
	if err != nil {
		return commandError(formatter, ExitCommandError, code, "failed to load fixture", err)
	}

	data, want, got, err := roundTrip(p, log)
	if err != nil {
		return commandError(formatter, ExitFailure, codecErrorCode(err), "round trip failed", err)
	}
	formatter.VerboseLog("Encoded %s: %d bytes", p.File, len(data))
	if want != got {
		_ = formatter.Error(ErrCodeVerifyMismatch, "decoded program differs from the encoded one",
			map[string]string{"encoded": want, "decoded": got})
		return NewExitError(ExitFailure, fmt.Sprintf("%s: fingerprint %s != %s", ErrCodeVerifyMismatch, got, want))
	}

	result := VerifyResult{
		File:        p.File,
		Scopes:      len(p.Scopes),
		Bytes:       len(data),
		Fingerprint: want,
	}
	return formatter.Result(result, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "✓ %s round-trips: %d scope(s), %d bytes\nfingerprint %s\n",
			result.File, result.Scopes, result.Bytes, result.Fingerprint)
		return err
	})
}
