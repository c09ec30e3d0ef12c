package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tdaitx/irpersist/internal/ir"
	"github.com/tdaitx/irpersist/internal/persist"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Scopes []int // scope indices to decode, all when empty
}

// DumpResult is the JSON payload of a successful dump.
type DumpResult struct {
	File        string           `json:"file"`
	ScopeCount  int              `json:"scope_count"`
	Scopes      []map[string]any `json:"scopes"`
	Fingerprint string           `json:"fingerprint,omitempty"` // only when every scope is decoded
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump <archive>",
		Short: "Print the scopes and instructions of an IR archive",
		Long: `Read the archive headers, decode the instructions of the selected
scopes and print them as a disassembly (text) or description (json).

Only the selected scopes are decoded; the others stay unread.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntSliceVar(&opts.Scopes, "scope", nil, "scope index to decode (repeatable)")

	return cmd
}

func runDump(opts *DumpOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	log, err := opts.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	r, p, code, err := openArchive(path, ir.NewManager(nil), []persist.Option{persist.WithLogger(log)})
	if err != nil {
		exit := ExitFailure
		if code != ErrCodeDecodeFailed {
			exit = ExitCommandError
		}
		return commandError(formatter, exit, code, "failed to read archive", err)
	}
	formatter.Session = r.SessionID()
	formatter.VerboseLog("Read %s: %d scope(s)", path, len(p.Scopes))

	selected := p.Scopes
	if len(opts.Scopes) > 0 {
		selected = make([]*ir.Scope, 0, len(opts.Scopes))
		for _, i := range opts.Scopes {
			s, ok := p.Scope(i)
			if !ok {
				return commandError(formatter, ExitCommandError, ErrCodeScopeNotFound,
					fmt.Sprintf("no scope %d (archive has %d)", i, len(p.Scopes)), nil)
			}
			selected = append(selected, s)
		}
	}

	for _, s := range selected {
		if _, err := r.Instructions(s); err != nil {
			return commandError(formatter, ExitFailure, ErrCodeDecodeFailed,
				fmt.Sprintf("failed to decode scope %d (%s)", s.Index(), s.Name), err)
		}
		formatter.VerboseLog("Decoded scope %d (%s): %d instruction(s)", s.Index(), s.Name, len(s.Instrs))
	}

	result := DumpResult{
		File:       p.File,
		ScopeCount: len(p.Scopes),
		Scopes:     make([]map[string]any, len(selected)),
	}
	for i, s := range selected {
		result.Scopes[i] = ir.DescribeScope(s)
	}
	if len(opts.Scopes) == 0 {
		if result.Fingerprint, err = ir.Fingerprint(p); err != nil {
			return commandError(formatter, ExitFailure, ErrCodeGeneric, "failed to fingerprint program", err)
		}
	}

	return formatter.Result(result, func(w io.Writer) error {
		if len(opts.Scopes) == 0 {
			return ir.Disassemble(w, p)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "file %q (%d scopes)\n", p.File, len(p.Scopes))
		for _, s := range selected {
			b.WriteByte('\n')
			ir.DisassembleScope(&b, s)
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}
