package sh

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	jsoniter "github.com/json-iterator/go"

	"github.com/ekefan/afitlms-edgeserver/pkg/host"
	"github.com/ekefan/afitlms-edgeserver/pkg/link"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	Verbose     bool
	Timeout     time.Duration

	Shell *ishell.Shell
	Conn  *Conn
	// OpenPort opens the serial port, replaced in tests.
	OpenPort func(link.PortConfig) (io.ReadWriteCloser, error)
}

// Conn is an open serial connection to the device.
type Conn struct {
	Device string
	Port   io.ReadWriteCloser
	Client *host.Client
}

// EnrollResult is the output of a successful enroll.
type EnrollResult struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	UID      string `json:"uid"`
}

const (
	shellKey       = "$shell"
	unopenedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	verbose    bool
	portName   = os.Getenv("ENROLL_HOST_PORT")
	baudrate   = uint(link.DefaultBaudrate)
	timeout    = host.DefaultTimeout

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
		&EnrollCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.BoolVar(&verbose, "lines", verbose, "Print every line from the device.")
	flag.StringVar(&portName, "port", portName, "Serial port to open on start.")
	flag.UintVar(&baudrate, "baud", baudrate, "Baud rate of the serial port.")
	flag.DurationVar(&timeout, "timeout", timeout, "Time to wait for a card after enroll.")
}

// New creates a new shell.
func New() *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Verbose:     verbose,
		Timeout:     timeout,
		Shell:       ishell.New(),
		OpenPort:    link.OpenPort,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unopenedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps command func requires an open port.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("port not open"))
			return
		}
		fn(c)
	}
}

// Open opens the serial port of the device.
func (s *Shell) Open(device string, baudrate uint) error {
	port, err := s.OpenPort(link.PortConfig{Device: device, Baudrate: baudrate})
	if err != nil {
		return err
	}
	client := host.NewClient(port)
	client.Timeout = s.Timeout
	if s.Verbose {
		client.OnLine = func(line string) { fmt.Println("< " + line) }
	}
	s.Close()
	s.Conn = &Conn{Device: device, Port: port, Client: client}
	s.setPrompt(fmt.Sprintf("%s > ", device))
	return nil
}

// Close closes the current port.
func (s *Shell) Close() {
	if s.Conn != nil {
		s.Conn.Port.Close()
		s.Conn = nil
		s.setPrompt(unopenedPrompt)
	}
}

func (s *Shell) setPrompt(prompt string) {
	if s.Shell != nil {
		s.Shell.SetPrompt(prompt)
	}
}

// Enroll runs an enrollment on the open port.
func (s *Shell) Enroll(userID, userName string) (*EnrollResult, error) {
	if s.Conn == nil {
		return nil, fmt.Errorf("port not open")
	}
	uid, err := s.Conn.Client.Enroll(context.Background(), userID, userName)
	if err != nil {
		return nil, err
	}
	return &EnrollResult{UserID: userID, UserName: userName, UID: uid.String()}, nil
}

// Print writes a result as text or JSON.
func (s *Shell) Print(c *ishell.Context, text string, v interface{}) {
	if !s.OutputJSON {
		c.Println(text)
		return
	}
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if portName != "" {
		if err := s.Open(portName, baudrate); err != nil {
			log.Fatalf("open %q failed: %v", portName, err)
		}
	}
	defer s.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// OpenCmd opens a serial port.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "PORT [BAUD]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("PORT required"))
				return
			}
			baud := uint(link.DefaultBaudrate)
			if len(c.Args) > 1 {
				val, err := strconv.ParseUint(c.Args[1], 10, 32)
				if err != nil {
					c.Err(fmt.Errorf("Invalid BAUD: %v", err))
					return
				}
				baud = uint(val)
			}
			if err := ShellFrom(c).Open(c.Args[0], baud); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the serial port.
	CloseCmd = ishell.Cmd{
		Name:    "close",
		Aliases: []string{"c"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// EnrollCmd requests a scan and prints the UID.
	EnrollCmd = ishell.Cmd{
		Name:    "enroll",
		Aliases: []string{"e"},
		Help:    "USER_ID NAME...",
		Func: MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("USER_ID and NAME required"))
				return
			}
			s := ShellFrom(c)
			userID, userName := c.Args[0], strings.Join(c.Args[1:], " ")
			if !s.OutputJSON {
				c.Printf("Present a card for %s (%s) ...\n", userName, userID)
			}
			res, err := s.Enroll(userID, userName)
			if err != nil {
				c.Err(err)
				return
			}
			s.Print(c, "UID "+res.UID, res)
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New().Run(flag.Args()...)
}
