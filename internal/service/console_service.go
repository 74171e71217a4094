package service

import (
	"fmt"
	"sync"
	"time"

	"kolaboree-backend/internal/model"
	"kolaboree-backend/internal/pkg/logger"
	"kolaboree-backend/internal/pkg/ssh"
)

const portCheckTimeout = 3 * time.Second

// ConsoleService opens SSH sessions to node addresses for the web console.
type ConsoleService struct {
	logger *logger.Logger
}

func NewConsoleService(logger *logger.Logger) *ConsoleService {
	return &ConsoleService{
		logger: logger,
	}
}

func sshConfig(req *model.ConsoleTestRequest) ssh.SSHConfig {
	return ssh.SSHConfig{
		Host:       req.Host,
		Port:       req.Port,
		Username:   req.Username,
		AuthType:   req.AuthType,
		Password:   req.Password,
		PrivateKey: req.PrivateKey,
		Passphrase: req.Passphrase,
	}
}

// TestConnection logs in and runs a few read-only commands on the node.
func (s *ConsoleService) TestConnection(req *model.ConsoleTestRequest) *model.ConsoleTestResponse {
	s.logger.Infof("testing ssh access to %s", req.Host)

	client := ssh.NewClient(sshConfig(req))
	if !client.IsPortOpen(portCheckTimeout) {
		return &model.ConsoleTestResponse{
			ID:      req.ID,
			Success: false,
			Message: fmt.Sprintf("%s is not accepting ssh connections", req.Host),
		}
	}

	if err := client.Connect(); err != nil {
		s.logger.Errorf("ssh connection failed for %s: %v", req.Host, err)
		return &model.ConsoleTestResponse{
			ID:      req.ID,
			Success: false,
			Message: "SSH connection test failed",
			Details: []string{err.Error()},
		}
	}
	defer client.Close()

	details := []string{"SSH connection established"}
	probes := []struct{ label, cmd string }{
		{"user", "whoami"},
		{"system", "uname -a"},
		{"memory", "free -m"},
	}
	for _, p := range probes {
		if result, err := client.ExecuteCommand(p.cmd); err == nil {
			details = append(details, fmt.Sprintf("%s: %s", p.label, result.Stdout))
		}
	}

	return &model.ConsoleTestResponse{
		ID:      req.ID,
		Success: true,
		Details: details,
	}
}

func (s *ConsoleService) BatchTestConnection(req *model.BatchConsoleTestRequest) []*model.ConsoleTestResponse {
	s.logger.Infof("testing ssh access to %d nodes", len(req.Nodes))

	results := make([]*model.ConsoleTestResponse, len(req.Nodes))
	var wg sync.WaitGroup

	for i := range req.Nodes {
		wg.Add(1)
		go func(index int, n model.ConsoleTestRequest) {
			defer wg.Done()
			results[index] = s.TestConnection(&n)
		}(i, req.Nodes[i])
	}

	wg.Wait()
	return results
}

// ConsoleSession is an interactive shell together with the connection that
// carries it.
type ConsoleSession struct {
	*ssh.Shell
	client *ssh.Client
}

func (s *ConsoleSession) Close() error {
	s.Shell.Close()
	return s.client.Close()
}

func (s *ConsoleService) OpenShell(req *model.ConsoleTestRequest, cols, rows int) (*ConsoleSession, error) {
	client := ssh.NewClient(sshConfig(req))
	if err := client.Connect(); err != nil {
		return nil, err
	}

	shell, err := client.Shell(cols, rows)
	if err != nil {
		client.Close()
		return nil, err
	}

	s.logger.Infof("console opened on %s as %s", req.Host, req.Username)
	return &ConsoleSession{Shell: shell, client: client}, nil
}
