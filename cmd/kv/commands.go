package kv

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/ValentinKolb/kvshim/lib/db"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			if err := kvStore.SetItem(cmd.Context(), key, value); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "set successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			resp, ok, err := kvStore.GetItem(cmd.Context(), key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key=%s, found=%v, resp=%s\n", key, ok, resp)
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Describes the database behind the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := kvStore.GetDBInfo()
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")
			return writeInfo(cmd.OutOrStdout(), info, output)
		},
	}
)

func init() {
	infoCmd.Flags().StringP("output", "o", "text", "Output format (text, yaml, json)")
}

// writeInfo renders info in the given format
func writeInfo(w io.Writer, info db.DatabaseInfo, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(info); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case "text", "":
		fmt.Fprintf(w, "%-20s%s\n", "Namespace:", info.Namespace)
		fmt.Fprintf(w, "%-20s%s\n", "Type:", info.DbType)
		if info.Path != "" {
			fmt.Fprintf(w, "%-20s%s\n", "Path:", info.Path)
		}
		fmt.Fprintf(w, "%-20s%s\n", "Size:", humanize.IBytes(uint64(max(info.SizeBytes, 0))))
		fmt.Fprintf(w, "%-20s%v\n", "Features:", info.SupportedFeatures)

		keys := make([]string, 0, len(info.Metadata))
		for k := range info.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%-20s%v\n", k+":", info.Metadata[k])
		}
		return nil
	default:
		return fmt.Errorf("invalid output format %q (valid: text, yaml, json)", format)
	}
}
