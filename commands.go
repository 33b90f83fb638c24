package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cli carries state shared by the commands of one invocation.
type cli struct {
	v          *viper.Viper
	configPath string
	profile    bool
	settings   Settings
	// flag name to config key, per command; bound only for the command
	// that runs since commands share keys
	bindings map[*cobra.Command]map[string]string
}

func newRootCmd() *cobra.Command {
	c := &cli{v: newViper(), bindings: make(map[*cobra.Command]map[string]string)}

	root := &cobra.Command{
		Use:           "imgbench",
		Short:         "Compare image load latency from files and database blobs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "yaml config file")
	flags.BoolVar(&c.profile, "profile", false, "write a cpu profile and runtime trace")
	flags.String("data-dir", "", "directory holding FILE items")
	flags.String("db", "", "sqlite database holding BLOB items")
	flags.String("blob-url", "", "read BLOB items over http from this base url instead of sqlite")
	flags.String("log-level", "", "log level")
	flags.Bool("log-json", false, "log as json")

	c.bind(root, map[string]string{
		"data-dir":  keyDataDir,
		"db":        keyDBPath,
		"blob-url":  keyBlobURL,
		"log-level": keyLogLevel,
		"log-json":  keyLogJSON,
	})

	root.AddCommand(
		c.seedCmd(),
		c.runCmd(),
		c.reportCmd(),
		c.getCmd(),
		c.serveCmd(),
	)

	return root
}

func (c *cli) bind(cmd *cobra.Command, keys map[string]string) {
	c.bindings[cmd] = keys
}

func (c *cli) setup(cmd *cobra.Command) error {
	for _, bound := range []*cobra.Command{cmd.Root(), cmd} {
		for name, key := range c.bindings[bound] {
			flag := bound.Flags().Lookup(name)

			if flag == nil {
				flag = bound.PersistentFlags().Lookup(name)
			}

			if err := c.v.BindPFlag(key, flag); err != nil {
				return errors.Wrapf(err, "bind flag %s", name)
			}
		}
	}

	if err := readConfigFile(c.v, c.configPath); err != nil {
		return err
	}

	s, err := loadSettings(c.v)

	if err != nil {
		return err
	}

	c.settings = s

	return nil
}

// with opens the stores, runs fn and releases everything on return.
func (c *cli) with(cmd *cobra.Command, withCache bool, fn func(*app) error) (err error) {
	log, err := newLogger(cmd.ErrOrStderr(), c.settings.LogLevel, c.settings.LogJSON)

	if err != nil {
		return err
	}

	if c.profile {
		stop, err := startProfiling(log)

		if err != nil {
			return err
		}

		defer stop()
	}

	a, err := openApp(c.settings, log, withCache)

	if err != nil {
		return err
	}

	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return fn(a)
}
