package cloud

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	lxd "github.com/canonical/lxd/client"
	"github.com/canonical/lxd/shared/api"
	"github.com/docker/go-units"

	"kolaboree-backend/internal/model"
)

const (
	defaultLXDEndpoint = "https://localhost:8443"
	defaultLXDImage    = "ubuntu:22.04"
)

// Simplestreams remotes understood in "remote:alias" image references.
var imageRemotes = map[string]string{
	"ubuntu":       "https://cloud-images.ubuntu.com/releases",
	"ubuntu-daily": "https://cloud-images.ubuntu.com/daily",
	"images":       "https://images.linuxcontainers.org",
}

// LXDTLS names the client certificate files handed to the dialer.
type LXDTLS struct {
	CertPath string
	KeyPath  string
	Verify   bool
}

// LXDClient is the slice of the LXD API used by the adapter. State changes and
// creation block until the server-side operation finishes.
type LXDClient interface {
	Instances() ([]api.InstanceFull, error)
	Instance(name string) (*api.InstanceFull, error)
	SetState(name, action string) error
	Create(req api.InstancesPost) error
	TrustCertificate(name, token string) error
	Disconnect()
}

// LXDDialer opens a client. An empty endpoint selects the local unix socket.
type LXDDialer func(endpoint string, tls LXDTLS) (LXDClient, error)

type LXDProvider struct {
	defaultEndpoint string
	credentialDir   string
	dial            LXDDialer
}

// NewLXDProvider returns the LXD adapter. A nil dial uses the canonical LXD
// client; inline certificates are written below credentialDir.
func NewLXDProvider(defaultEndpoint, credentialDir string, dial LXDDialer) *LXDProvider {
	if defaultEndpoint == "" {
		defaultEndpoint = defaultLXDEndpoint
	}
	if dial == nil {
		dial = dialLXD
	}
	return &LXDProvider{defaultEndpoint: defaultEndpoint, credentialDir: credentialDir, dial: dial}
}

func (p *LXDProvider) Type() ProviderType { return ProviderLXD }
func (p *LXDProvider) Placeholder() bool  { return false }

// Connect accepts cert/key as file paths or inline PEM. Inline material is
// written to temp files that live as long as the session; every file created
// by a failed attempt is removed before returning.
func (p *LXDProvider) Connect(_ context.Context, connectionID string, creds Credentials, region string) (Session, error) {
	endpoint := creds.String("endpoint")
	if strings.Contains(region, "://") {
		endpoint = region
	}
	if endpoint == "" {
		endpoint = p.defaultEndpoint
	}
	certData := creds.String("cert")
	keyData := creds.String("key")
	verify := creds.Bool("verify", false)
	trustToken := creds.String("trust_token")
	if trustToken == "" {
		trustToken = creds.String("trust_password")
	}

	files := newCredFiles(p.credentialDir)
	defer files.release()

	var (
		client LXDClient
		err    error
	)
	switch {
	case certData != "" && keyData != "":
		client, err = p.dialWithCert(files, endpoint, certData, keyData, verify)
	case trustToken != "":
		client, err = p.dialWithToken(files, connectionID, endpoint, trustToken, verify)
	default:
		client, err = p.dial("", LXDTLS{})
		if err != nil {
			client, err = p.dial(endpoint, LXDTLS{Verify: verify})
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to lxd at %s: %w", endpoint, lxdAuthError(err))
	}

	if _, err := client.Instances(); err != nil {
		client.Disconnect()
		return nil, fmt.Errorf("list lxd instances: %w", lxdAuthError(err))
	}

	files.keep()
	return &lxdSession{
		client:       client,
		connectionID: connectionID,
		endpoint:     endpoint,
		files:        files,
	}, nil
}

func (p *LXDProvider) dialWithCert(files *credFiles, endpoint, certData, keyData string, verify bool) (LXDClient, error) {
	certPath, err := files.materialize(certData, ".crt")
	if err != nil {
		return nil, err
	}
	keyPath, err := files.materialize(keyData, ".key")
	if err != nil {
		return nil, err
	}
	return p.dial(endpoint, LXDTLS{CertPath: certPath, KeyPath: keyPath, Verify: verify})
}

// dialWithToken generates a client certificate and asks the server to trust
// it using the supplied trust token.
func (p *LXDProvider) dialWithToken(files *credFiles, connectionID, endpoint, token string, verify bool) (LXDClient, error) {
	name := "kolaboree-" + connectionID
	certPEM, keyPEM, err := generateClientCert(name)
	if err != nil {
		return nil, err
	}
	certPath, err := files.write(certPEM, ".crt")
	if err != nil {
		return nil, err
	}
	keyPath, err := files.write(keyPEM, ".key")
	if err != nil {
		return nil, err
	}

	client, err := p.dial(endpoint, LXDTLS{CertPath: certPath, KeyPath: keyPath, Verify: verify})
	if err != nil {
		return nil, err
	}
	if err := client.TrustCertificate(name, token); err != nil {
		client.Disconnect()
		return nil, fmt.Errorf("register client certificate: %w", err)
	}
	return client, nil
}

// lxdAuthError marks 401/403 responses with ErrAuth.
func lxdAuthError(err error) error {
	if api.StatusErrorCheck(err, http.StatusUnauthorized, http.StatusForbidden) {
		return fmt.Errorf("%w: %w", ErrAuth, err)
	}
	return err
}

type lxdSession struct {
	client       LXDClient
	connectionID string
	endpoint     string
	files        *credFiles
}

func (s *lxdSession) ListNodes(context.Context) ([]model.Node, error) {
	instances, err := s.client.Instances()
	if err != nil {
		return nil, err
	}

	nodes := make([]model.Node, 0, len(instances))
	for _, inst := range instances {
		nodes = append(nodes, lxdNode(s.connectionID, inst))
	}
	return nodes, nil
}

func (s *lxdSession) StartNode(_ context.Context, nodeID string) error {
	return s.changeState(nodeID, "start")
}

func (s *lxdSession) StopNode(_ context.Context, nodeID string) error {
	return s.changeState(nodeID, "stop")
}

func (s *lxdSession) RestartNode(_ context.Context, nodeID string) error {
	return s.changeState(nodeID, "restart")
}

func (s *lxdSession) changeState(nodeID, action string) error {
	if _, err := s.client.Instance(nodeID); err != nil {
		return err
	}
	return s.client.SetState(nodeID, action)
}

// CreateNode creates the instance, starts it and waits for both operations so
// the returned node reflects the running instance.
func (s *lxdSession) CreateNode(_ context.Context, name string, config map[string]any) (*model.Node, error) {
	image, _ := config["image"].(string)
	if image == "" {
		image = defaultLXDImage
	}

	req := api.InstancesPost{
		Name:   name,
		Source: imageSource(image),
		Type:   instanceType(config["type"]),
		InstancePut: api.InstancePut{
			Config:  stringMap(config["config"]),
			Devices: deviceMap(config["devices"]),
		},
	}

	if err := s.client.Create(req); err != nil {
		return nil, fmt.Errorf("create instance %s: %w", name, err)
	}
	if err := s.client.SetState(name, "start"); err != nil {
		return nil, fmt.Errorf("start instance %s: %w", name, err)
	}

	inst, err := s.client.Instance(name)
	if err != nil {
		return nil, fmt.Errorf("read instance %s: %w", name, err)
	}
	node := lxdNode(s.connectionID, *inst)
	return &node, nil
}

func (s *lxdSession) Close() error {
	s.client.Disconnect()
	return s.files.remove()
}

func lxdNode(connectionID string, inst api.InstanceFull) model.Node {
	node := model.Node{
		ID:           inst.Name,
		Name:         inst.Name,
		State:        strings.ToLower(inst.Status),
		ProviderType: string(ProviderLXD),
		ConnectionID: connectionID,
		IPAddresses:  lxdAddresses(inst.State),
		Extra: map[string]any{
			"type":         inst.Type,
			"architecture": inst.Architecture,
			"profiles":     inst.Profiles,
		},
	}
	if !inst.CreatedAt.IsZero() {
		created := inst.CreatedAt
		node.CreatedAt = &created
	}

	config := inst.ExpandedConfig
	if config == nil {
		config = inst.Config
	}
	if cpus, err := strconv.Atoi(config["limits.cpu"]); err == nil {
		node.CPUCount = &cpus
	}
	if mem := config["limits.memory"]; mem != "" {
		if bytes, err := units.RAMInBytes(mem); err == nil {
			mb := int(bytes / units.MiB)
			node.MemoryMB = &mb
		}
	}
	return node
}

// lxdAddresses collects inet and inet6 addresses of every interface except
// loopback, in interface name order.
func lxdAddresses(state *api.InstanceState) []string {
	ips := []string{}
	if state == nil {
		return ips
	}

	names := make([]string, 0, len(state.Network))
	for name := range state.Network {
		if name != "lo" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		for _, addr := range state.Network[name].Addresses {
			if (addr.Family == "inet" || addr.Family == "inet6") && addr.Address != "" {
				ips = append(ips, addr.Address)
			}
		}
	}
	return ips
}

func imageSource(image string) api.InstanceSource {
	if remote, alias, ok := strings.Cut(image, ":"); ok {
		if server, known := imageRemotes[remote]; known {
			return api.InstanceSource{Type: "image", Alias: alias, Server: server, Protocol: "simplestreams"}
		}
	}
	return api.InstanceSource{Type: "image", Alias: image}
}

func instanceType(v any) api.InstanceType {
	if s, _ := v.(string); s == string(api.InstanceTypeVM) {
		return api.InstanceTypeVM
	}
	return api.InstanceTypeContainer
}

func stringMap(v any) map[string]string {
	out := map[string]string{}
	switch m := v.(type) {
	case map[string]string:
		for k, val := range m {
			out[k] = val
		}
	case map[string]any:
		for k, val := range m {
			if val != nil {
				out[k] = fmt.Sprint(val)
			}
		}
	}
	return out
}

func deviceMap(v any) map[string]map[string]string {
	out := map[string]map[string]string{}
	switch m := v.(type) {
	case map[string]map[string]string:
		for k, dev := range m {
			out[k] = dev
		}
	case map[string]any:
		for k, dev := range m {
			out[k] = stringMap(dev)
		}
	}
	return out
}

type lxdServer struct {
	server lxd.InstanceServer
}

func dialLXD(endpoint string, tls LXDTLS) (LXDClient, error) {
	if endpoint == "" {
		server, err := lxd.ConnectLXDUnix("", nil)
		if err != nil {
			return nil, err
		}
		return &lxdServer{server: server}, nil
	}

	args := &lxd.ConnectionArgs{InsecureSkipVerify: !tls.Verify}
	if tls.CertPath != "" && tls.KeyPath != "" {
		cert, err := os.ReadFile(tls.CertPath)
		if err != nil {
			return nil, fmt.Errorf("read client certificate: %w", err)
		}
		key, err := os.ReadFile(tls.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("read client key: %w", err)
		}
		args.TLSClientCert = string(cert)
		args.TLSClientKey = string(key)
	}

	server, err := lxd.ConnectLXD(endpoint, args)
	if err != nil {
		return nil, err
	}
	return &lxdServer{server: server}, nil
}

func (c *lxdServer) Instances() ([]api.InstanceFull, error) {
	return c.server.GetInstancesFull(api.InstanceTypeAny)
}

func (c *lxdServer) Instance(name string) (*api.InstanceFull, error) {
	inst, _, err := c.server.GetInstanceFull(name)
	if err != nil {
		if api.StatusErrorCheck(err, http.StatusNotFound) {
			return nil, fmt.Errorf("instance %s: %w", name, ErrNotFound)
		}
		return nil, err
	}
	return inst, nil
}

func (c *lxdServer) SetState(name, action string) error {
	op, err := c.server.UpdateInstanceState(name, api.InstanceStatePut{Action: action, Timeout: -1}, "")
	if err != nil {
		return err
	}
	return op.Wait()
}

func (c *lxdServer) Create(req api.InstancesPost) error {
	op, err := c.server.CreateInstance(req)
	if err != nil {
		return err
	}
	return op.Wait()
}

func (c *lxdServer) TrustCertificate(name, token string) error {
	return c.server.CreateCertificate(api.CertificatesPost{
		Name:       name,
		Type:       api.CertificateTypeClient,
		TrustToken: token,
	})
}

func (c *lxdServer) Disconnect() {
	c.server.Disconnect()
}
