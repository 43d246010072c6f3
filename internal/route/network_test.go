package route

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNetwork_PreservesOrder(t *testing.T) {
	net := mustNetwork(t, []NodeSpec{{ID: "C"}, {ID: "A"}, {ID: "B"}})
	assert.Equal(t, []string{"C", "A", "B"}, net.IDs())
	assert.Equal(t, 3, net.Len())

	_, ok := net.Node("A")
	assert.True(t, ok)
	_, ok = net.Node("Z")
	assert.False(t, ok)
}

func TestNewNetwork_DuplicateID(t *testing.T) {
	_, err := NewNetwork([]NodeSpec{{ID: "A"}, {ID: "A"}})
	assert.ErrorIs(t, err, ErrInvalidTopology)
	assert.Contains(t, err.Error(), "duplicate node id A")
}

func TestNewNetwork_AllowsUnknownNeighbor(t *testing.T) {
	net := mustNetwork(t, []NodeSpec{{ID: "A", Neighbors: map[string]float64{"ghost": 1}}})
	assert.Equal(t, 1, net.Len())
}

func TestNetwork_TablesAreSnapshots(t *testing.T) {
	net := mustNetwork(t, scenarioSpecs())
	before := net.Tables()

	a, _ := net.Node("A")
	a.Relax(DistanceVector{"B": 0, "D": 1}, "B")

	assert.False(t, before[0].Size() == a.Table().Size())
	assert.True(t, IsUnreachable(before[0].Distance("D")))
}

func TestNetwork_TopologyRoundTrip(t *testing.T) {
	net := mustNetwork(t, scenarioSpecs())
	topo := net.Topology()

	assert.Equal(t, []string{"A", "B", "C", "D"}, topo.GetAllNodes())
	cost, ok := topo.GetCost("B", "D")
	require.True(t, ok)
	assert.Equal(t, 5.0, cost)

	rebuilt, err := NetworkFromTopology(topo)
	require.NoError(t, err)
	assert.Equal(t, net.IDs(), rebuilt.IDs())
	c, _ := rebuilt.Node("C")
	assert.Equal(t, []string{"A", "B", "D"}, c.NeighborIDs())
}

func TestTopology_String(t *testing.T) {
	topo := NewTopology()
	topo.UpdateLink("A", "B", 1)
	topo.SetCost("B", "C", 2)

	want := "Topology:\n" +
		"Nodes: A, B\n" +
		"Links:\n" +
		"  A-B: cost=1\n" +
		"  B->C: cost=2\n"
	assert.Equal(t, want, topo.String())
}

func TestTextReporter(t *testing.T) {
	var buf bytes.Buffer
	rep := NewTextReporter(&buf)

	table := NewRouteTable("A")
	table.AddRoute(&Route{Destination: "B", NextHop: "B", Cost: 1})
	table.AddRoute(&Route{Destination: "A", NextHop: "A", Cost: 0})

	rep.RoundCompleted(RoundReport{Round: 1, Changed: true, Tables: []*RouteTable{table}})
	rep.Converged(&Result{Rounds: 1, Passes: 2, Mode: ModeJacobi, Tables: []*RouteTable{table}})

	want := "\nIteration 1\n" +
		"Routing Table for Node A:\n" +
		"  Destination A -> Distance 0 (via A)\n" +
		"  Destination B -> Distance 1 (via B)\n" +
		"\n" +
		"Converged after 1 rounds (2 passes, mode=jacobi)\n"
	assert.Equal(t, want, buf.String())
}

func TestTextReporter_FinalOnly(t *testing.T) {
	var buf bytes.Buffer
	rep := NewTextReporter(&buf)
	rep.Final = true

	table := NewRouteTable("A")
	table.AddRoute(&Route{Destination: "A", NextHop: "A", Cost: 0})

	rep.RoundCompleted(RoundReport{Round: 1, Tables: []*RouteTable{table}})
	assert.Empty(t, buf.String())

	rep.Converged(&Result{Passes: 1, Tables: []*RouteTable{table}})
	assert.True(t, strings.HasPrefix(buf.String(), "Converged after 0 rounds (1 passes, mode=gauss-seidel)\n"))
	assert.Contains(t, buf.String(), "Routing Table for Node A:")
}

func TestMultiReporter(t *testing.T) {
	a, b := &recordingReporter{}, &recordingReporter{}
	rep := MultiReporter(a, b, NopReporter{})

	rep.RoundCompleted(RoundReport{Round: 1})
	rep.Converged(&Result{})

	assert.Len(t, a.rounds, 1)
	assert.Len(t, b.converged, 1)
}

func TestLogReporter(t *testing.T) {
	logger, hook := test.NewNullLogger()
	rep := NewLogReporter(logger)

	rep.RoundCompleted(RoundReport{RunID: "r1", Round: 2, Changed: true, Updates: 3})
	rep.Converged(&Result{RunID: "r1", Rounds: 1, Passes: 2})

	require.Len(t, hook.AllEntries(), 2)
	first := hook.AllEntries()[0]
	assert.Equal(t, "Round completed", first.Message)
	assert.Equal(t, 2, first.Data["round"])
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "Simulation converged", hook.LastEntry().Message)
	assert.Equal(t, "gauss-seidel", hook.LastEntry().Data["mode"])
}
