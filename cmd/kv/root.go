package kv

import (
	"github.com/ValentinKolb/kvshim/cmd/util"
	"github.com/ValentinKolb/kvshim/lib/store"
	"github.com/ValentinKolb/kvshim/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	kvStore store.IStore

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value store operations",
		PersistentPreRunE:  setupKVClient,
		PersistentPostRunE: closeKVClient,
	}
)

func init() {
	// Add common RPC flags to the KV command
	util.SetupRPCClientFlags(KeyValueCommands)

	// Flags for --local
	util.SetupStorageFlags(KeyValueCommands)
	KeyValueCommands.PersistentFlags().Bool("local", false, util.WrapString("Open the store directly in the data dir instead of connecting to a server. The store must not be served at the same time"))

	KeyValueCommands.PersistentFlags().String("namespace", "default", util.WrapString("Namespace of the store to use"))
	KeyValueCommands.PersistentFlags().String("log-level", "warn", util.WrapString("Log level (debug, info, warn, error)"))

	// Add subcommands
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(infoCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient initializes the store used by all subcommands
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return err
	}

	var err error
	kvStore, err = util.OpenStore(viper.GetString("namespace"), viper.GetBool("local"))
	return err
}

// closeKVClient releases the store, local engines are flushed and unlocked here
func closeKVClient(_ *cobra.Command, _ []string) error {
	if kvStore == nil {
		return nil
	}
	return kvStore.Close()
}
