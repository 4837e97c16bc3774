package wire

import (
	"fmt"
	"net/url"
	"strings"
)

// SocketPath is where the server mounts the task channel.
const SocketPath = "/ws/tasks/"

// SocketURL derives the channel URL from a host or base URL. https/wss hosts
// yield a wss URL, everything else ws, mirroring how the board derives the
// scheme from the page it was loaded over.
func SocketURL(host string) (string, error) {
	if !strings.Contains(host, "://") {
		host = "ws://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("parsing host %q: %w", host, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = SocketPath
	return u.String(), nil
}
