package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tdaitx/irpersist/internal/ir"
	"github.com/tdaitx/irpersist/internal/persist"
)

// ArchiveExt is the extension given to archives written by encode.
const ArchiveExt = ".irb"

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	Output string // archive path, default: fixture path with ArchiveExt
}

// EncodeResult is the JSON payload of a successful encode.
type EncodeResult struct {
	Archive     string `json:"archive"`
	File        string `json:"file"`
	Scopes      int    `json:"scopes"`
	Instrs      int    `json:"instrs"`
	Bytes       int    `json:"bytes"`
	Fingerprint string `json:"fingerprint"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <fixture>",
		Short: "Encode a fixture program to an IR archive",
		Long: `Build the program described by a YAML or CUE fixture and write it
as a binary IR archive.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "archive path")

	return cmd
}

func runEncode(opts *EncodeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	p, code, err := loadFixture(path, ir.NewManager(nil))
	if err != nil {
		return commandError(formatter, ExitCommandError, code, "failed to load fixture", err)
	}
	formatter.VerboseLog("Loaded %s: %d scope(s)", path, len(p.Scopes))

	fp, err := ir.Fingerprint(p)
	if err != nil {
		return commandError(formatter, ExitFailure, ErrCodeEncodeFailed, "failed to fingerprint program", err)
	}
	data, err := persist.Encode(p)
	if err != nil {
		return commandError(formatter, ExitFailure, ErrCodeEncodeFailed, "failed to encode program", err)
	}

	out := opts.Output
	if out == "" {
		out = archivePath(path)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return commandError(formatter, ExitCommandError, ErrCodeWriteFailed, "failed to write archive", err)
	}

	result := EncodeResult{
		Archive:     out,
		File:        p.File,
		Scopes:      len(p.Scopes),
		Instrs:      countInstrs(p),
		Bytes:       len(data),
		Fingerprint: fp,
	}
	return formatter.Result(result, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "✓ Encoded %s: %d scope(s), %d instruction(s), %d bytes\nWrote %s\n",
			result.File, result.Scopes, result.Instrs, result.Bytes, result.Archive)
		return err
	})
}

// archivePath replaces the fixture's extension with ArchiveExt.
func archivePath(fixturePath string) string {
	return strings.TrimSuffix(fixturePath, filepath.Ext(fixturePath)) + ArchiveExt
}

func countInstrs(p *ir.Program) int {
	n := 0
	for _, s := range p.Scopes {
		n += len(s.Instrs)
	}
	return n
}

// codecErrorCode classifies an encode or decode failure.
func codecErrorCode(err error) string {
	switch {
	case errors.Is(err, persist.ErrUnencodable):
		return ErrCodeEncodeFailed
	case persist.IsDecodeError(err):
		return ErrCodeDecodeFailed
	default:
		return ErrCodeGeneric
	}
}
