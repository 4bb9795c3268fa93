// Package cmd is the signbridge command line.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cfg "github.com/maastricht-university/signbridge/config"
	"github.com/maastricht-university/signbridge/observability"
)

type app struct {
	cfgFile string
	v       *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{v: cfg.NewViper()}
	root := &cobra.Command{
		Use:           "signbridge",
		Short:         "Turn fingerspelled gestures and facial affect into sentences",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (yaml or toml); default searches config/$CONFIG_ENV/")
	pf.String("room", "", "meeting room the sidecars belong to")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (text or json)")
	_ = a.v.BindPFlag("pipeline.room", pf.Lookup("room"))
	_ = a.v.BindPFlag("pipeline.log_level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("pipeline.log_format", pf.Lookup("log-format"))

	root.AddCommand(
		a.runCmd(),
		a.reportCmd(),
		a.statusCmd(),
		a.emotionsCmd(),
		a.chatCmd(),
	)
	return root
}

// load resolves the config file, flag and environment overlays and the
// logger every subcommand runs with.
func (a *app) load() (*cfg.Root, *logrus.Logger, error) {
	c, err := cfg.Load(a.cfgFile)
	missing := errors.Is(err, cfg.ErrNoConfig) && a.cfgFile == ""
	if err != nil && !missing {
		return nil, nil, err
	}
	cfg.Overlay(a.v, c)
	if err := c.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	log := observability.NewLogger(c.Pipeline.LogLvl, c.Pipeline.LogFormat, os.Stderr)
	if missing {
		log.Warn("no config file found, running with defaults")
	}
	return c, log, nil
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "signbridge:", err)
		os.Exit(1)
	}
}
