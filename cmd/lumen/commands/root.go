package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
)

// rootCmd represents the base command
var rootCmd = newRootCommand()

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lumen",
		Short: "A rendering core with a software backend",
		Long: `Lumen renders meshes, textures and command buffers through a
validating front end. The software backend runs everywhere; with the
vulkan backend the capability table is read from the GPU.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if level := viper.GetString("log-level"); level != "" {
				return core.SetLogLevel(level)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().String("config", "", "TOML configuration file (default: built-in defaults)")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	// Bind flags to viper; LUMEN_CONFIG and LUMEN_LOG_LEVEL work as well.
	viper.SetEnvPrefix("LUMEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(newDemoCommand(), newProbeCommand(), newFormatsCommand())
	return cmd
}

// loadConfig reads the configuration named by --config or LUMEN_CONFIG.
func loadConfig() (*config.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
