// Package discovery finds the open TCP ports of a reachable host.
package discovery

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Port is a TCP port number.
type Port int

// MaxPort is the highest valid TCP port.
const MaxPort = 65535

// Valid reports whether p lies in 1..65535.
func (p Port) Valid() bool {
	return p >= 1 && p <= MaxPort
}

func (p Port) String() string {
	return strconv.Itoa(int(p))
}

// Token renders the port the way the scanner prints it, e.g. "22/tcp".
func (p Port) Token() string {
	return p.String() + "/tcp"
}

// PortSet is an ordered list of open ports in scanner-reported order.
// Duplicates are kept as reported.
type PortSet []Port

// Empty reports whether the set has no ports.
func (s PortSet) Empty() bool {
	return len(s) == 0
}

// Tokens returns "<port>/tcp" for every port, in order.
func (s PortSet) Tokens() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Token()
	}
	return out
}

// Join renders the bare port numbers separated by sep.
func (s PortSet) Join(sep string) string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = p.String()
	}
	return strings.Join(parts, sep)
}

// openPortPattern matches a port line of the scanner's table output,
// e.g. "22/tcp   open  ssh   syn-ack ttl 64".
var openPortPattern = regexp.MustCompile(`(\d+)/tcp\s+open`)

// maxLineSize bounds a single scanner output line.
const maxLineSize = 1024 * 1024

// ParseOpenPorts extracts open ports from scanner output. Each matching
// line contributes exactly one port, in the order the lines appear.
func ParseOpenPorts(r io.Reader) (PortSet, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var ports PortSet
	for sc.Scan() {
		m := openPortPattern.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || !Port(n).Valid() {
			log.Debug().Str("token", m[1]).Msg("ignoring out-of-range port in scanner output")
			continue
		}
		ports = append(ports, Port(n))
	}
	if err := sc.Err(); err != nil {
		return ports, fmt.Errorf("read scanner output: %w", err)
	}
	return ports, nil
}
