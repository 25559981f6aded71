package sdk

import "os"

// DefaultAddr is used when FORMX_ADDR is unset.
const DefaultAddr = "http://localhost:5000"

// New connects to the server named by FORMX_ADDR, sending FORMX_TOKEN when it is set.
func New(opts ...Option) (*Client, error) {
	addr := os.Getenv("FORMX_ADDR")
	if addr == "" {
		addr = DefaultAddr
	}
	if token := os.Getenv("FORMX_TOKEN"); token != "" {
		opts = append([]Option{WithToken(token)}, opts...)
	}
	return Connect(addr, opts...)
}
