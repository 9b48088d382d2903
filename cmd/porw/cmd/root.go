package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mwillis775/PoRW-sub001/consensus"
	"github.com/mwillis775/PoRW-sub001/logger"
)

const (
	// The prefix for configuration keys inside environment.
	envPrefix = "PORW"
	// The default home directory.
	defaultHomeDir = "$HOME/.porw"
)

type (
	porwApp struct {
		rootCmd    *cobra.Command
		rootConfig *rootConfiguration
	}

	rootConfiguration struct {
		// HomeDir is the base directory for the ledger db and config files.
		HomeDir string
		// ParamsFile is an optional YAML consensus parameter file.
		ParamsFile string
		LogLevel   string
		LogFile    string
		LogConsole bool
	}
)

// New creates the porw CLI application.
func New() *porwApp {
	rootCmd, rootConfig := newRootCmd()
	return &porwApp{rootCmd: rootCmd, rootConfig: rootConfig}
}

// Execute adds all child commands and runs the application.
func (a *porwApp) Execute() {
	a.rootCmd.AddCommand(newChainCmd(a.rootConfig))
	a.rootCmd.AddCommand(newBlockCmd(a.rootConfig))

	cobra.CheckErr(a.rootCmd.Execute())
}

func newRootCmd() (*cobra.Command, *rootConfiguration) {
	config := &rootConfiguration{}
	rootCmd := &cobra.Command{
		Use:   "porw",
		Short: "The PoRW/PoRS consensus CLI",
		Long:  "Inspect a PoRW/PoRS ledger and validate candidate blocks offline.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeConfig(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVar(&config.HomeDir, "home", defaultHomeDir, "the porw home directory")
	rootCmd.PersistentFlags().StringVar(&config.ParamsFile, "params", "", "consensus parameters YAML file (defaults apply when unset)")
	rootCmd.PersistentFlags().StringVar(&config.LogLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&config.LogFile, "log-file", "", "log file path (default stderr)")
	rootCmd.PersistentFlags().BoolVar(&config.LogConsole, "log-console", false, "human readable log output")
	return rootCmd, config
}

// initializeConfig binds cobra flags to environment variables, e.g.
// --log-level to PORW_LOG_LEVEL. Flags set on the command line win.
func initializeConfig(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return bindFlags(cmd, v)
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				bindErr = fmt.Errorf("could not bind env to flag, %w", err)
				return
			}
		}
		if !f.Changed && v.IsSet(f.Name) {
			if err := cmd.Flags().Set(f.Name, v.GetString(f.Name)); err != nil {
				bindErr = fmt.Errorf("could not set flag from env, %w", err)
			}
		}
	})
	return bindErr
}

func (c *rootConfiguration) logger() (zerolog.Logger, error) {
	return logger.New(&logger.Config{
		DefaultLevel:  c.LogLevel,
		OutputPath:    c.LogFile,
		ConsoleFormat: c.LogConsole,
	})
}

func (c *rootConfiguration) params() (consensus.Params, error) {
	if c.ParamsFile == "" {
		return consensus.DefaultParams(), nil
	}
	return consensus.LoadParams(c.ParamsFile)
}

func (c *rootConfiguration) homeDir() string {
	return os.ExpandEnv(c.HomeDir)
}
