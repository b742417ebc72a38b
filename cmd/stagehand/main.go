package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/stagehand/internal/config"
	"github.com/bft-labs/stagehand/pkg/log"
)

const helpDescription = `
Run applications through a staged lifecycle: NEW, STARTING, RUNNING,
STOPPING, TERMINATED.

Samples:
  serve  HTTP server with health, stats, metrics and a places API.
  cli    line-based dispatcher reading commands from stdin.

Configuration is read from a TOML file, STAGEHAND_* environment variables
and flags, in increasing order of precedence.
`

var exampleUsage = strings.TrimSpace(`
  stagehand serve --http-addr :8080 --database $HOME/.stagehand/places.db
  stagehand serve --config $HOME/.stagehand/config.toml --watch
  stagehand cli
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// rootOptions are shared by every subcommand.
type rootOptions struct {
	cfg     config.Config
	cfgPath string
}

// resolve loads the config file (default $HOME/.stagehand/config.toml), then
// the environment, keeping flags the user set explicitly. It returns the
// validated config and the config file path, empty when no file was read.
func (o *rootOptions) resolve(cmd *cobra.Command) (config.Config, string, error) {
	cfg := o.cfg

	cfgFile := o.cfgPath
	if cfgFile == "" {
		cfgFile = config.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && config.FileExists(cfgFile) {
		fc, err := config.LoadFileConfig(cfgFile)
		if err != nil {
			return cfg, "", fmt.Errorf("load config: %w", err)
		}
		if err := config.ApplyFileConfig(&cfg, fc, changed); err != nil {
			return cfg, "", err
		}
	} else {
		cfgFile = ""
	}

	if err := config.ApplyEnvConfig(&cfg, changed); err != nil {
		return cfg, "", err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, "", err
	}
	return cfg, cfgFile, nil
}

func newLogger(cfg config.Config) (*log.ZerologAdapter, error) {
	return log.NewZerologAdapterWithOptions(log.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
}

func main() {
	opts := &rootOptions{cfg: config.DefaultConfig()}

	root := &cobra.Command{
		Use:           "stagehand",
		Short:         "Staged process lifecycle controller and sample applications",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.cfgPath, "config", "", "path to config file (default: $HOME/.stagehand/config.toml)")
	root.PersistentFlags().StringVar(&opts.cfg.LogLevel, "log-level", opts.cfg.LogLevel, "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.cfg.LogFormat, "log-format", opts.cfg.LogFormat, "log format (console or json)")

	root.AddCommand(newServeCmd(opts), newCliCmd(opts))

	if err := root.Execute(); err != nil {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
		logger.Error().Err(err).Msg("stagehand")
		os.Exit(1)
	}
}
