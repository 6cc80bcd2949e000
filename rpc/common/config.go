package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerTransportConfig holds the settings of the server side transport
type ServerTransportConfig struct {
	// Endpoint is the address to listen on (host:port or a socket path)
	Endpoint string

	// WorkersPerConn limits concurrent requests per connection (tcp, unix)
	WorkersPerConn int
	// BufferSize is the size of pooled read buffers in bytes (tcp, unix)
	BufferSize int

	// TCP socket options
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int // 0 keeps the OS default
	WriteBufferSize int
	ReadBufferSize  int
}

// ServerConfig holds all configuration parameters of a kvshim server.
type ServerConfig struct {
	// Namespaces served by this process, one store each
	Namespaces []string

	// Storage settings
	Backend string // engine name, empty = build default
	DataDir string
	NoSync  bool

	// Request timeout of the stream transports
	TimeoutSecond int64

	// Transport settings
	Transport ServerTransportConfig

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Workers Per Conn", strconv.Itoa(c.Transport.WorkersPerConn))
	addField("Buffer Size", fmt.Sprintf("%d bytes", c.Transport.BufferSize))

	// Storage
	addSection("Storage")
	backend := c.Backend
	if backend == "" {
		backend = "(build default)"
	}
	addField("Backend", backend)
	addField("Data Directory", c.DataDir)
	addField("No Sync", strconv.FormatBool(c.NoSync))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Namespaces
	addSection("Namespaces")
	for i, ns := range c.Namespaces {
		addField(strconv.Itoa(i), ns)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the settings of the client side transport
type ClientTransportConfig struct {
	Endpoints              []string
	RetryCount             int
	ConnectionsPerEndpoint int

	// TCP socket options
	TCPNoDelay      bool
	TCPKeepAliveSec int
}

type ClientConfig struct {
	TimeoutSecond int
	Transport     ClientTransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(max(1, c.Transport.ConnectionsPerEndpoint)))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
