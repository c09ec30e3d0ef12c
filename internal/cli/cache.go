package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tdaitx/irpersist/internal/ir"
	"github.com/tdaitx/irpersist/internal/persist"
	"github.com/tdaitx/irpersist/internal/store"
)

// CacheGetOptions holds flags for the cache get command.
type CacheGetOptions struct {
	*RootOptions
	Output string // write the archive here instead of printing a summary
}

// CacheEntry is the JSON form of a cache entry.
type CacheEntry struct {
	Key           string `json:"key"`
	Unit          string `json:"unit"`
	Fingerprint   string `json:"fingerprint"`
	FormatVersion int    `json:"format_version"`
	Dialect       string `json:"dialect"`
	ToolVersion   string `json:"tool_version,omitempty"`
	Scopes        int    `json:"scopes"`
	Bytes         int    `json:"bytes"`
	Seq           int64  `json:"seq,omitempty"`
}

// NewCacheCommand creates the cache command and its subcommands.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the archive cache",
		Long: `Store encoded archives in a SQLite cache keyed by unit name and
fixture content, so later runs can skip encoding.

The database is --db, or cache.path from irc.toml.`,
	}

	cmd.AddCommand(newCachePutCommand(rootOpts))
	cmd.AddCommand(newCacheGetCommand(rootOpts))
	cmd.AddCommand(newCacheListCommand(rootOpts))
	cmd.AddCommand(newCachePruneCommand(rootOpts))

	return cmd
}

func newCachePutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "put <fixture>",
		Short:         "Encode a fixture and store the archive",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCachePut(rootOpts, args[0], cmd)
		},
	}
}

func newCacheGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CacheGetOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:           "get <key>",
		Short:         "Show or extract a cached archive",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheGet(opts, args[0], cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the archive to this path")
	return cmd
}

func newCacheListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List cached archives",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheList(rootOpts, cmd)
		},
	}
}

func newCachePruneCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "prune",
		Short:         "Remove archives written with another format version",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCachePrune(rootOpts, cmd)
		},
	}
}

// openCache opens the cache database, creating its directory if needed.
func openCache(opts *RootOptions, formatter *OutputFormatter) (*store.Store, error) {
	path, err := opts.cachePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, commandError(formatter, ExitCommandError, ErrCodeCacheFailed, "failed to create cache directory", err)
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, commandError(formatter, ExitCommandError, ErrCodeCacheFailed, "failed to open cache", err)
	}
	formatter.VerboseLog("Opened cache %s", path)
	return s, nil
}

func runCachePut(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	source, err := os.ReadFile(path)
	if err != nil {
		code := ErrCodeReadFailed
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return commandError(formatter, ExitCommandError, code, "failed to read fixture", err)
	}
	p, code, err := loadFixture(path, ir.NewManager(nil))
	if err != nil {
		return commandError(formatter, ExitCommandError, code, "failed to load fixture", err)
	}

	fp, err := ir.Fingerprint(p)
	if err != nil {
		return commandError(formatter, ExitFailure, ErrCodeEncodeFailed, "failed to fingerprint program", err)
	}
	data, err := persist.Encode(p)
	if err != nil {
		return commandError(formatter, ExitFailure, ErrCodeEncodeFailed, "failed to encode program", err)
	}

	s, err := openCache(opts, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	e := store.Entry{
		Key:           ir.ArchiveKey(p.File, source),
		Unit:          p.File,
		Fingerprint:   fp,
		FormatVersion: int(persist.FormatVersion),
		Dialect:       ir.DialectVersion,
		ToolVersion:   ir.ToolVersion,
		Data:          data,
		Manifest:      store.NewManifest(p),
	}
	if err := s.Put(cmd.Context(), e); err != nil {
		return commandError(formatter, ExitCommandError, ErrCodeCacheFailed, "failed to store archive", err)
	}
	e.Size = len(data)

	result := toCacheEntry(e)
	return formatter.Result(result, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "✓ Cached %s (%d bytes)\nkey %s\n", result.Unit, result.Bytes, result.Key)
		return err
	})
}

func runCacheGet(opts *CacheGetOptions, key string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	s, err := openCache(opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	e, err := s.Get(cmd.Context(), key)
	if errors.Is(err, store.ErrNotFound) {
		return commandError(formatter, ExitFailure, ErrCodeCacheMiss, fmt.Sprintf("no archive under key %s", key), nil)
	}
	if err != nil {
		return commandError(formatter, ExitCommandError, ErrCodeCacheFailed, "failed to read cache", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, e.Data, 0o644); err != nil {
			return commandError(formatter, ExitCommandError, ErrCodeWriteFailed, "failed to write archive", err)
		}
		formatter.VerboseLog("Wrote %d bytes to %s", len(e.Data), opts.Output)
	}

	result := toCacheEntry(*e)
	return formatter.Result(result, func(w io.Writer) error {
		fmt.Fprintf(w, "%s\n  unit %s\n  fingerprint %s\n  format %d, dialect %s, %d bytes, seq %d\n",
			result.Key, result.Unit, result.Fingerprint, result.FormatVersion, result.Dialect, result.Bytes, result.Seq)
		if result.ToolVersion != "" {
			fmt.Fprintf(w, "  written by irc %s\n", result.ToolVersion)
		}
		for i, sc := range e.Manifest.Scopes {
			fmt.Fprintf(w, "  scope #%d %s %q line %d: %d instruction(s)", i, sc.Kind, sc.Name, sc.Line, sc.Instrs)
			if sc.Parent >= 0 {
				fmt.Fprintf(w, " parent #%d", sc.Parent)
			}
			fmt.Fprintln(w)
		}
		if opts.Output != "" {
			fmt.Fprintf(w, "Wrote %s\n", opts.Output)
		}
		return nil
	})
}

func runCacheList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	s, err := openCache(opts, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := s.List(cmd.Context())
	if err != nil {
		return commandError(formatter, ExitCommandError, ErrCodeCacheFailed, "failed to list cache", err)
	}

	result := make([]CacheEntry, len(entries))
	for i, e := range entries {
		result[i] = toCacheEntry(e)
	}
	return formatter.Result(result, func(w io.Writer) error {
		if len(result) == 0 {
			_, err := fmt.Fprintln(w, "Cache is empty")
			return err
		}
		for _, e := range result {
			fmt.Fprintf(w, "%s  %-24s v%d  %3d scope(s)  %6d bytes\n", e.Key, e.Unit, e.FormatVersion, e.Scopes, e.Bytes)
		}
		return nil
	})
}

func runCachePrune(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	s, err := openCache(opts, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.Prune(cmd.Context(), int(persist.FormatVersion))
	if err != nil {
		return commandError(formatter, ExitCommandError, ErrCodeCacheFailed, "failed to prune cache", err)
	}

	result := map[string]int64{"removed": n}
	return formatter.Result(result, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "✓ Removed %d stale archive(s)\n", n)
		return err
	})
}

func toCacheEntry(e store.Entry) CacheEntry {
	return CacheEntry{
		Key:           e.Key,
		Unit:          e.Unit,
		Fingerprint:   e.Fingerprint,
		FormatVersion: e.FormatVersion,
		Dialect:       e.Dialect,
		ToolVersion:   e.ToolVersion,
		Scopes:        len(e.Manifest.Scopes),
		Bytes:         e.Size,
		Seq:           e.Seq,
	}
}
