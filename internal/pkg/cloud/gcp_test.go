package cloud

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/compute/v1"
	"google.golang.org/api/googleapi"
)

const testServiceAccount = `{"type":"service_account","project_id":"demo-project","client_email":"sa@demo-project.iam.gserviceaccount.com"}`

func gceInstance() *compute.Instance {
	return &compute.Instance{
		Id:                1234567890,
		Name:              "web-1",
		Status:            "RUNNING",
		Zone:              "https://www.googleapis.com/compute/v1/projects/demo-project/zones/us-central1-a",
		MachineType:       "https://www.googleapis.com/compute/v1/projects/demo-project/zones/us-central1-a/machineTypes/e2-medium",
		CreationTimestamp: "2024-03-01T10:20:30.123-08:00",
		Labels:            map[string]string{"team": "infra"},
		Disks:             []*compute.AttachedDisk{{DeviceName: "boot", Boot: true}},
		Scheduling:        &compute.Scheduling{},
		Tags:              &compute.Tags{Items: []string{"http-server"}},
		NetworkInterfaces: []*compute.NetworkInterface{{
			NetworkIP:     "10.128.0.2",
			AccessConfigs: []*compute.AccessConfig{{NatIP: "34.1.2.3"}},
		}},
	}
}

func TestGCPConnectValidatesCredentials(t *testing.T) {
	ctx := context.Background()
	gce := &fakeGCE{}
	p := NewGCPProvider("", gce.dialer())

	_, err := p.Connect(ctx, "c1", Credentials{}, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = p.Connect(ctx, "c1", Credentials{"service_account_json": `{"client_email":"x"}`}, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	session, err := p.Connect(ctx, "c1", Credentials{"service_account_json": testServiceAccount}, "")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, []string{"demo-project"}, gce.projects)
	assert.Equal(t, []string{"us-central1-a"}, gce.zones)
	assert.Zero(t, gce.lists, "connect must not page through the zone")
}

func TestGCPConnectFailureKinds(t *testing.T) {
	ctx := context.Background()
	creds := Credentials{"service_account_json": testServiceAccount}

	denied := &fakeGCE{listErr: &googleapi.Error{Code: http.StatusForbidden, Message: "permission denied"}}
	_, err := NewGCPProvider("", denied.dialer()).Connect(ctx, "c1", creds, "")
	assert.Equal(t, KindAuth, KindOf(err))

	timeout := &fakeGCE{listErr: context.DeadlineExceeded}
	_, err = NewGCPProvider("", timeout.dialer()).Connect(ctx, "c1", creds, "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, KindProvider, KindOf(err))

	broken := NewGCPProvider("", func(context.Context, []byte) (GCEService, error) {
		return nil, errors.New("invalid private key")
	})
	_, err = broken.Connect(ctx, "c1", creds, "")
	assert.Equal(t, KindAuth, KindOf(err))
}

func TestGCPConnectAcceptsDecodedAccountAndRegion(t *testing.T) {
	gce := &fakeGCE{}
	p := NewGCPProvider("europe-west1-b", gce.dialer())

	creds := Credentials{"service_account_json": map[string]any{"project_id": "from-map"}}
	_, err := p.Connect(context.Background(), "c1", creds, "asia-east1-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"from-map"}, gce.projects)
	assert.Equal(t, []string{"asia-east1-a"}, gce.zones)
}

func TestGCPListNodes(t *testing.T) {
	ctx := context.Background()
	gce := &fakeGCE{instances: []*compute.Instance{gceInstance()}}
	m := newTestManager(t, WithProvider(NewGCPProvider("", gce.dialer())))
	require.True(t, m.Connect(ctx, "c1", "gcp", Credentials{"service_account_json": testServiceAccount}, ""))

	nodes, err := m.ListNodesResult(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	node := nodes[0]
	assert.Equal(t, "1234567890", node.ID)
	assert.Equal(t, "web-1", node.Name)
	assert.Equal(t, "running", node.State)
	assert.Equal(t, "gcp", node.ProviderType)
	assert.Equal(t, []string{"34.1.2.3", "10.128.0.2"}, node.IPAddresses)
	require.NotNil(t, node.CreatedAt)
	assert.Equal(t, 2024, node.CreatedAt.Year())

	assert.Equal(t, "us-central1-a", node.Extra["zone"])
	assert.Equal(t, "e2-medium", node.Extra["machine_type"])
	assert.Equal(t, `{"team":"infra"}`, node.Extra["labels"])
	assert.Equal(t, `["http-server"]`, node.Extra["tags"])
	assert.IsType(t, "", node.Extra["disks"])
	assert.IsType(t, "", node.Extra["scheduling"])
}

func TestGCPNodeActionsResolveByID(t *testing.T) {
	ctx := context.Background()
	gce := &fakeGCE{instances: []*compute.Instance{gceInstance()}}
	m := newTestManager(t, WithProvider(NewGCPProvider("", gce.dialer())))
	require.True(t, m.Connect(ctx, "c1", "gcp", Credentials{"service_account_json": testServiceAccount}, ""))

	assert.True(t, m.StartNode(ctx, "c1", "1234567890"))
	assert.True(t, m.StopNode(ctx, "c1", "1234567890"))
	assert.True(t, m.RestartNode(ctx, "c1", "1234567890"))
	assert.Equal(t, []string{"start web-1", "stop web-1", "reset web-1"}, gce.calls)

	assert.Equal(t, KindNotFound, KindOf(m.StartNodeResult(ctx, "c1", "web-1")))
	assert.Equal(t, KindUnsupported, KindOf(func() error {
		_, err := m.CreateNodeResult(ctx, "c1", "new", nil)
		return err
	}()))
}

func TestGCPInstanceWithoutExternalAddress(t *testing.T) {
	inst := gceInstance()
	inst.NetworkInterfaces[0].AccessConfigs = nil
	inst.CreationTimestamp = ""

	node := gceNode("c1", inst)
	assert.Equal(t, []string{"10.128.0.2"}, node.IPAddresses)
	assert.Nil(t, node.CreatedAt)
}
