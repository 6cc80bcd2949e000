package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/kvshim/cmd/kv"
	"github.com/ValentinKolb/kvshim/cmd/serve"
	"github.com/ValentinKolb/kvshim/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvshim",
		Short: "namespaced key-value storage for sync engines",
		Long: fmt.Sprintf(`kvshim (v%s)

A durable, namespaced key-value store behind a two-operation contract
(GetItem/SetItem). Stores run in-process or behind a kvshim server and
are backed by bolt, SQLite or memory.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvshim",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvshim v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
