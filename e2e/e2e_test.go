//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/maskalloc/app"
	"github.com/kilianp07/maskalloc/config"
	"github.com/kilianp07/maskalloc/core/factory"
	coremqtt "github.com/kilianp07/maskalloc/core/mqtt"
	"github.com/kilianp07/maskalloc/core/runlog"
	"github.com/kilianp07/maskalloc/qa/scenarios"
)

const (
	influxOrg    = "e2e_org"
	influxBucket = "e2e_bucket"
	influxToken  = "e2e-token"
)

// junitReport is a minimal representation of a JUnit XML report. The E2E
// suite writes such a report so CI systems can display the results.
type junitReport struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name    string  `xml:"name,attr"`
	Failure *string `xml:"failure,omitempty"`
	Time    float64 `xml:"time,attr"`
}

// writeJUnit writes the provided report to the given path.
func writeJUnit(path string, rep junitReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	return enc.Encode(rep)
}

// startInflux starts an InfluxDB 2.7 container initialised with the e2e
// organisation, bucket and token, and returns it along with the base URL.
func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return cont, fmt.Sprintf("http://%s:%s", host, port.Port())
}

// startMosquitto spins up a Mosquitto broker accepting anonymous clients.
func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "1883")
	return cont, fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

// subscribe collects the allocation messages published under prefix.
func subscribe(t *testing.T, broker, prefix string) (func() []coremqtt.AllocationMessage, func()) {
	t.Helper()
	var mu sync.Mutex
	var msgs []coremqtt.AllocationMessage
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("e2e-subscriber")
	cli := paho.NewClient(opts)
	tok := cli.Connect()
	require.True(t, tok.WaitTimeout(10*time.Second))
	require.NoError(t, tok.Error())
	tok = cli.Subscribe(prefix+"/pharmacy/+/allocation", 1, func(_ paho.Client, m paho.Message) {
		var msg coremqtt.AllocationMessage
		if err := json.Unmarshal(m.Payload(), &msg); err != nil {
			t.Errorf("decode allocation: %v", err)
			return
		}
		mu.Lock()
		msgs = append(msgs, msg)
		mu.Unlock()
	})
	require.True(t, tok.WaitTimeout(10*time.Second))
	require.NoError(t, tok.Error())
	get := func() []coremqtt.AllocationMessage {
		mu.Lock()
		defer mu.Unlock()
		return append([]coremqtt.AllocationMessage(nil), msgs...)
	}
	return get, func() { cli.Disconnect(250) }
}

// Test_E2E_Allocation runs the three pharmacy scenario through the service
// with the Influx sink, the MQTT publisher and the sqlite run log wired to
// real servers.
func Test_E2E_Allocation(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	start := time.Now()

	influxCont, influxURL := startInflux(ctx, t)
	defer influxCont.Terminate(ctx) //nolint:errcheck
	mqttCont, mqttURL := startMosquitto(ctx, t)
	defer mqttCont.Terminate(ctx) //nolint:errcheck
	t.Logf("InfluxDB started at %s", influxURL)
	t.Logf("Mosquitto started at %s", mqttURL)

	messages, unsubscribe := subscribe(t, mqttURL, "e2e")
	defer unsubscribe()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.RunLog = runlog.Config{Backend: "sqlite", Path: filepath.Join(dir, "runs.db")}
	cfg.Metrics.Sinks = []factory.ModuleConfig{{
		Type: "influx",
		Conf: map[string]any{"url": influxURL, "token": influxToken, "org": influxOrg, "bucket": influxBucket},
	}}
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker = mqttURL
	cfg.MQTT.TopicPrefix = "e2e"
	cfg.MQTT.QoS = 1
	cfg.MQTT.Retain = true

	sc, err := scenarios.Load("../qa/scenarios/line_three_pharmacies.yaml")
	require.NoError(t, err)
	cfg.Allocation.Coeff, cfg.Allocation.Rounds = sc.Coeff, 10

	svc, err := app.New(&cfg)
	require.NoError(t, err)
	res, err := svc.Allocate(ctx, app.Input{Pharmacies: sc.Pharmacies, Streets: sc.Streets})
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	assert.Eventually(t, func() bool { return len(messages()) == len(res.Pharmacies) }, 10*time.Second, 100*time.Millisecond)
	for _, m := range messages() {
		assert.Equal(t, res.RunID, m.RunID)
	}

	infl := NewInfluxClient(influxURL, influxOrg, influxBucket, influxToken)
	defer infl.Close()
	rounds, err := infl.CountPoints(ctx, "allocation_round", "moves")
	require.NoError(t, err)
	assert.Equal(t, 10, rounds)
	loads, err := infl.CountPoints(ctx, "pharmacy_load", "final")
	require.NoError(t, err)
	assert.Equal(t, len(res.Pharmacies), loads)

	store, err := runlog.NewSQLiteStore(cfg.RunLog.Path)
	require.NoError(t, err)
	defer store.Close()
	rec, err := store.Get(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Moves, rec.Moves)

	rep := junitReport{Name: "e2e", Tests: 1, Cases: []junitTestCase{{Name: "Test_E2E_Allocation", Time: time.Since(start).Seconds()}}}
	if t.Failed() {
		rep.Failures = 1
		msg := "see test log"
		rep.Cases[0].Failure = &msg
	}
	if err := writeJUnit(filepath.Join(dir, "e2e.xml"), rep); err != nil {
		t.Logf("write junit: %v", err)
	}
}
