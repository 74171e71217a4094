package ssh

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

const dialTimeout = 15 * time.Second

type SSHConfig struct {
	Host       string
	Port       int
	Username   string
	AuthType   string
	Password   string
	PrivateKey string
	Passphrase string
}

func (c SSHConfig) addr() string {
	port := c.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

type Client struct {
	config SSHConfig
	conn   *ssh.Client
}

type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

func NewClient(config SSHConfig) *Client {
	return &Client{
		config: config,
	}
}

func (c *Client) Connect() error {
	auth, err := c.authMethods()
	if err != nil {
		return err
	}

	config := &ssh.ClientConfig{
		User:            c.config.Username,
		Auth:            auth,
		Timeout:         dialTimeout,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // node host keys are not pinned
	}

	conn, err := ssh.Dial("tcp", c.config.addr(), config)
	if err != nil {
		return fmt.Errorf("ssh connect to %s failed: %v", c.config.addr(), err)
	}

	c.conn = conn
	return nil
}

func (c *Client) authMethods() ([]ssh.AuthMethod, error) {
	switch c.config.AuthType {
	case "password":
		return []ssh.AuthMethod{ssh.Password(c.config.Password)}, nil
	case "key":
		signer, err := parsePrivateKey(c.config.PrivateKey, c.config.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %v", err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	default:
		return nil, fmt.Errorf("unsupported auth type %q", c.config.AuthType)
	}
}

func parsePrivateKey(privateKey, passphrase string) (ssh.Signer, error) {
	if passphrase != "" {
		return ssh.ParsePrivateKeyWithPassphrase([]byte(privateKey), []byte(passphrase))
	}
	return ssh.ParsePrivateKey([]byte(privateKey))
}

func (c *Client) ExecuteCommand(cmd string) (*CommandResult, error) {
	if c.conn == nil {
		return nil, errors.New("ssh connection not established")
	}

	session, err := c.conn.NewSession()
	if err != nil {
		return nil, fmt.Errorf("create ssh session: %v", err)
	}
	defer session.Close()

	var stdoutBuf, stderrBuf strings.Builder
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	err = session.Run(cmd)

	result := &CommandResult{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}

	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitStatus()
		} else {
			result.ExitCode = 1
		}
		return result, fmt.Errorf("command %q failed: %v", cmd, err)
	}

	return result, nil
}

// Shell is an interactive login shell on a pty.
type Shell struct {
	session *ssh.Session
	Stdin   io.WriteCloser
	Stdout  io.Reader
}

// Shell starts a login shell with a pty of the given size. The pty merges the
// remote stderr into Stdout.
func (c *Client) Shell(cols, rows int) (*Shell, error) {
	if c.conn == nil {
		return nil, errors.New("ssh connection not established")
	}
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}

	session, err := c.conn.NewSession()
	if err != nil {
		return nil, fmt.Errorf("create ssh session: %v", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty("xterm-256color", rows, cols, modes); err != nil {
		session.Close()
		return nil, fmt.Errorf("request pty: %v", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, err
	}

	if err := session.Shell(); err != nil {
		session.Close()
		return nil, fmt.Errorf("start shell: %v", err)
	}

	return &Shell{
		session: session,
		Stdin:   stdin,
		Stdout:  stdout,
	}, nil
}

func (s *Shell) Resize(cols, rows int) error {
	return s.session.WindowChange(rows, cols)
}

func (s *Shell) Wait() error {
	return s.session.Wait()
}

func (s *Shell) Close() error {
	return s.session.Close()
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsPortOpen reports whether the configured host accepts TCP connections on
// its SSH port.
func (c *Client) IsPortOpen(timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", c.config.addr(), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
