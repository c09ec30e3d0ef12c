package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/tdaitx/irpersist/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	ConfigPath  string
	DB          string
	DebugDecode bool

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the irc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "irc",
		Short: "irc - IR archive codec",
		Long:  "Encode, inspect and cache binary IR archives.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			_, err := opts.config()
			return err
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: nearest "+config.FileName+")")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "archive cache database (overrides cache.path)")
	cmd.PersistentFlags().BoolVar(&opts.DebugDecode, "debug-decode", false, "log every decoded scope and instruction")

	cmd.AddCommand(NewEncodeCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// config loads the configuration once: the --config file when given,
// otherwise the nearest irc.toml above the working directory.
func (o *RootOptions) config() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	var (
		cfg *config.Config
		err error
	)
	if o.ConfigPath != "" {
		cfg, err = config.Load(o.ConfigPath)
	} else {
		cfg, err = config.FindAndLoad(".")
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	o.cfg = cfg
	return cfg, nil
}

// cachePath returns the archive cache database path.
func (o *RootOptions) cachePath() (string, error) {
	if o.DB != "" {
		return o.DB, nil
	}
	cfg, err := o.config()
	if err != nil {
		return "", err
	}
	return cfg.Cache.Path, nil
}

// logger builds the diagnostic logger writing to w. --verbose lowers the
// configured level to info; decode tracing lowers it to debug.
func (o *RootOptions) logger(w io.Writer) (*slog.Logger, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid log level", err)
	}
	if o.Verbose && level > slog.LevelInfo {
		level = slog.LevelInfo
	}
	if o.DebugDecode || cfg.Decode.Trace {
		level = slog.LevelDebug
	}

	hopts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	}
	return slog.New(slog.NewTextHandler(w, hopts)), nil
}
