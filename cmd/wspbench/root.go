// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/petenewcomb/wsp-go/internal/bench"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "WSPBENCH"

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var cfg bench.Config
	var logLevel string

	rc := &cobra.Command{
		Use:   "wspbench",
		Short: "Measure work-stealing pool throughput",
		Long: `Submits a fixed number of busy-work tasks to each selected pool and
reports elapsed time and tasks per second.

Every flag can also be set through an environment variable named after it,
upper-cased with dashes replaced by underscores and prefixed with ` + envPrefix + `_
(for example ` + envPrefix + `_WORK_ITERATIONS), or through a TOML file given
with --config. Flags take precedence over the environment, which takes
precedence over the file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setAllConfig(viper.New(), cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(logLevel, stderr)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			cfg.Logger = logger

			_, err = bench.Run(cmd.Context(), cfg, stdout)
			return err
		},
	}

	flags := rc.Flags()
	flags.StringP("config", "c", "", "TOML configuration file to read from")
	flags.IntVarP(&cfg.Tasks, "tasks", "n", 500_000, "number of tasks to submit to each pool")
	flags.IntVarP(&cfg.Workers, "workers", "w", 0, "number of workers; 0 means one per CPU")
	flags.IntVar(&cfg.WorkIterations, "work-iterations", 100, "busy-loop iterations per task")
	flags.IntVar(&cfg.Submitters, "submitters", 1, "number of goroutines submitting concurrently")
	flags.StringVarP(&cfg.Pool, "pool", "p", bench.PoolAll, "pool to run: fast, priority, naive or all")
	flags.IntVar(&cfg.Top, "top", 0, "report the N slowest tasks of each run")
	flags.DurationVar(&cfg.IdleTimeout, "idle-timeout", 0, "idle worker wait bound; 0 means the pool default")
	flags.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// setAllConfig layers configuration for every flag in flags: an explicitly
// set flag wins, then the environment, then the config file, then the flag
// default.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if c := v.GetString("config"); c != "" {
		v.SetConfigFile(c)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading configuration file %q: %w", c, err)
		}
		valid := make(map[string]bool)
		flags.VisitAll(func(f *pflag.Flag) {
			valid[f.Name] = true
		})
		for _, key := range v.AllKeys() {
			if !valid[key] {
				return fmt.Errorf("invalid option in configuration file: %v", key)
			}
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed {
			return
		}
		flagErr = f.Value.Set(v.GetString(f.Name))
	})
	return flagErr
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core), nil
}
