// Package sh provides an interactive shell to feed bytes into the
// packet parser and inspect what comes out.
package sh

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/lidar.go/pkg/lidar"
	"github.com/robotalks/lidar.go/pkg/lidar/serial"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Source *lidar.ChunkSource
	Sink   *lidar.MeasurementBuffer
	Parser *lidar.Parser
	Out    io.Writer
}

const shellKey = "$shell"

var (
	// flags

	evalOnly   bool
	outputJSON bool
	bufferSize = lidar.DefaultBufferSize

	commands = []*ishell.Cmd{
		&FeedCmd,
		&LoadCmd,
		&StatsCmd,
		&MeasurementsCmd,
		&ResetCmd,
		&PortsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.IntVar(&bufferSize, "buffer", bufferSize, "Frame buffer size in bytes.")
}

// New creates a new shell.
func New() *Shell {
	s := newShell(os.Stdout)
	s.Shell = ishell.New()
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt("lidar > ")
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

func newShell(out io.Writer) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Source:      lidar.NewChunkSource(),
		Sink:        &lidar.MeasurementBuffer{},
		Out:         out,
	}
	s.Parser = lidar.NewParser(s.Source, s.Sink, lidar.WithBufferSize(bufferSize))
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// ParseHex decodes bytes written as hex, optionally with 0x prefix,
// separated by spaces or commas.
func ParseHex(args ...string) ([]byte, error) {
	var digits strings.Builder
	for _, arg := range args {
		for _, tok := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' }) {
			tok = strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
			if len(tok)%2 == 1 {
				tok = "0" + tok
			}
			digits.WriteString(tok)
		}
	}
	return hex.DecodeString(digits.String())
}

// Feed adds bytes to the source and parses.
func (s *Shell) Feed(data []byte) int {
	s.Source.Feed(data)
	count := s.Parser.Parse()
	glog.V(2).Infof("fed %d bytes, %d measurements", len(data), count)
	return count
}

// Load feeds the content of a file in chunks of size.
func (s *Shell) Load(fn string, size int) (int, error) {
	data, err := os.ReadFile(fn)
	if err != nil {
		return 0, err
	}
	if size <= 0 {
		size = len(data)
	}
	var count int
	for len(data) > 0 {
		n := size
		if n > len(data) {
			n = len(data)
		}
		count += s.Feed(data[:n])
		data = data[n:]
	}
	return count, nil
}

// Reset clears parser state and collected measurements.
func (s *Shell) Reset() {
	s.Parser.Reset()
	s.Source = lidar.NewChunkSource()
	s.Parser.Source = s.Source
	s.Sink.Clear()
}

// Print writes v as JSON or as text.
func (s *Shell) Print(v interface{}, text string) error {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(s.Out, string(out))
		return err
	}
	_, err := fmt.Fprintln(s.Out, text)
	return err
}

// Run runs the shell.
func (s *Shell) Run(args ...string) error {
	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	if s.Interactive {
		s.Shell.Run()
		return nil
	}
	return fmt.Errorf("command expected")
}

var (
	// FeedCmd feeds hex bytes.
	FeedCmd = ishell.Cmd{
		Name:    "feed",
		Aliases: []string{"f"},
		Help:    "HEX...",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			data, err := ParseHex(c.Args...)
			if err != nil {
				c.Err(err)
				return
			}
			count := s.Feed(data)
			if err := s.Print(map[string]int{"measurements": count}, fmt.Sprintf("%d measurements", count)); err != nil {
				c.Err(err)
			}
		},
	}

	// LoadCmd feeds bytes from a capture file.
	LoadCmd = ishell.Cmd{
		Name: "load",
		Help: "FILE [CHUNK-SIZE]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("file name expected"))
				return
			}
			var size int
			if len(c.Args) > 1 {
				var err error
				if size, err = strconv.Atoi(c.Args[1]); err != nil {
					c.Err(err)
					return
				}
			}
			count, err := s.Load(c.Args[0], size)
			if err != nil {
				c.Err(err)
				return
			}
			if err := s.Print(map[string]int{"measurements": count}, fmt.Sprintf("%d measurements", count)); err != nil {
				c.Err(err)
			}
		},
	}

	// StatsCmd prints parser statistics.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			st := s.Parser.Stats()
			text := fmt.Sprintf("packets=%d measurements=%d discarded=%d index-errors=%d checksum-errors=%d buffered=%d",
				st.Packets, st.Measurements, st.DiscardedBytes, st.IndexErrors, st.ChecksumErrors, s.Parser.Buffered())
			if err := s.Print(st, text); err != nil {
				c.Err(err)
			}
		},
	}

	// MeasurementsCmd prints collected measurements.
	MeasurementsCmd = ishell.Cmd{
		Name:    "measurements",
		Aliases: []string{"m"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ms := s.Sink.Measurements()
			lines := make([]string, len(ms))
			for n, m := range ms {
				lines[n] = fmt.Sprintf("%3d %5d", m.Index, m.Distance)
			}
			if ms == nil {
				ms = []lidar.Measurement{}
			}
			if err := s.Print(ms, strings.Join(lines, "\n")); err != nil {
				c.Err(err)
			}
		},
	}

	// ResetCmd resets the parser.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Reset()
		},
	}
)

// PortsCmd lists serial ports a sensor may be attached to.
var PortsCmd = ishell.Cmd{
	Name: "ports",
	Help: "",
	Func: func(c *ishell.Context) {
		s := ShellFrom(c)
		ports, err := serial.Ports()
		if err != nil {
			c.Err(err)
			return
		}
		if ports == nil {
			ports = []string{}
		}
		if err := s.Print(ports, strings.Join(ports, "\n")); err != nil {
			c.Err(err)
		}
	},
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	if err := New().Run(flag.Args()...); err != nil {
		glog.Exit(err)
	}
}
