// Command illinix boots the hosted kernel simulator: it attaches a
// disk image to a simulated port-I/O bus, wires up the PIC/PIT/RTC/
// keyboard/VGA devices and the process scheduler, and drives the
// event loop that takes their place of real interrupts. mkfs/ls/cat
// give the same disk image a set of offline, non-booting tools.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "illinix",
		Short: "A hosted simulator for a small teaching kernel",
		Long: "illinix boots a simulated x86 teaching kernel against a disk image: " +
			"three virtual terminals, a round-robin scheduler and a read-mostly file system, " +
			"all running as ordinary Go code instead of ring 0.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./illinix.yaml)")
	cmd.PersistentFlags().String("disk", "illinix.img", "path to the disk image")
	cmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().String("metrics-addr", "", "address to serve Prometheus metrics on (empty disables)")

	viper.BindPFlag("disk", cmd.PersistentFlags().Lookup("disk"))
	viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("metrics_addr", cmd.PersistentFlags().Lookup("metrics-addr"))

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newMkfsCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newCatCmd())

	return cmd
}

// initConfig loads illinix.yaml (or --config) and ILLINIX_-prefixed
// environment overrides; a missing config file is not an error, since
// every setting also has a flag default.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("illinix")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("illinix")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "illinix: reading config: %v\n", err)
		}
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
