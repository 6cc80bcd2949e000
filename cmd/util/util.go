package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/kvshim/lib/store"
	"github.com/ValentinKolb/kvshim/lib/store/lstore"
	"github.com/ValentinKolb/kvshim/lib/store/selector"
	"github.com/ValentinKolb/kvshim/rpc/client"
	"github.com/ValentinKolb/kvshim/rpc/common"
	"github.com/ValentinKolb/kvshim/rpc/serializer"
	"github.com/ValentinKolb/kvshim/rpc/transport"
	"github.com/ValentinKolb/kvshim/rpc/transport/http"
	"github.com/ValentinKolb/kvshim/rpc/transport/tcp"
	"github.com/ValentinKolb/kvshim/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables read by kvshim
	EnvPrefix = "kvshim"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStorageFlags adds the flags selecting and locating the storage engine
func SetupStorageFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	key := "backend"
	flags.String(key, "", WrapString(fmt.Sprintf("Storage engine (%v). Empty selects the build default (%s)", selector.Implementations, selector.DefaultImplementation)))

	key = "data-dir"
	flags.String(key, "data", WrapString("Directory holding one file per namespace"))

	key = "no-sync"
	flags.Bool(key, false, WrapString("Skip fsync after each commit (bolt only). Faster, but the last writes may be lost on a crash"))
}

// SetupRPCClientFlags adds common RPC connection flags to a command
func SetupRPCClientFlags(cmd *cobra.Command) {
	key := "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout in seconds of the client"))

	key = "transport-endpoints"
	cmd.PersistentFlags().String(key, "localhost:8080", WrapString("The address of the kvshim server. For transports that support load balancing, multiple endpoints can be specified as a comma-separated list"))

	key = "transport-conn-per-endpoint"
	cmd.PersistentFlags().Int(key, 1, WrapString("Simultaneous connections per endpoint - for transports that support this feature"))

	key = "transport-retries"
	cmd.PersistentFlags().Int(key, 3, WrapString("How many times to retry the request"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY for the transport (tcp only)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval for the transport (in seconds, tcp only)"))
}

// InitConfig loads .env files and makes viper read KVSHIM_* environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	conf := &common.ClientConfig{
		TimeoutSecond: viper.GetInt("timeout"),
		Transport: common.ClientTransportConfig{
			RetryCount:             viper.GetInt("transport-retries"),
			Endpoints:              SplitList(viper.GetString("transport-endpoints")),
			ConnectionsPerEndpoint: viper.GetInt("transport-conn-per-endpoint"),
			TCPNoDelay:             viper.GetBool("transport-tcp-nodelay"),
			TCPKeepAliveSec:        viper.GetInt("transport-tcp-keepalive"),
		},
	}

	return conf
}

// GetStorageOptions reads the engine selection from viper
func GetStorageOptions() (impl string, opts selector.Options) {
	return viper.GetString("backend"), selector.Options{
		DataDir: viper.GetString("data-dir"),
		NoSync:  viper.GetBool("no-sync"),
	}
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	return serializer.ByName(viper.GetString("serializer"))
}

// GetClientTransport creates a client transport based on configuration
func GetClientTransport() (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "http":
		return http.NewHttpClientTransport(), nil
	case "tcp":
		return tcp.NewTCPClientTransport(), nil
	case "unix":
		return unix.NewUnixClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetServerTransport creates a server transport based on configuration
func GetServerTransport() (transport.IRPCServerTransport, error) {
	switch viper.GetString("transport") {
	case "http":
		return http.NewHttpServerTransport(), nil
	case "tcp":
		return tcp.NewTCPServerTransport(), nil
	case "unix":
		return unix.NewUnixServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// OpenStore returns the store for namespace. With local set the engine is used
// directly from the data dir, otherwise the store of a kvshim server is used.
func OpenStore(namespace string, local bool) (store.IStore, error) {
	if local {
		name, opts := GetStorageOptions()
		impl, err := selector.ParseImplementation(name)
		if err != nil {
			return nil, err
		}
		factory, err := selector.Factory(impl, opts)
		if err != nil {
			return nil, err
		}
		return lstore.NewLocalStore(namespace, factory), nil
	}

	s, err := GetSerializer()
	if err != nil {
		return nil, err
	}
	t, err := GetClientTransport()
	if err != nil {
		return nil, err
	}
	return client.NewRPCStore(namespace, *GetClientConfig(), t, s)
}

// SplitList splits a comma-separated flag value and drops empty entries
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
