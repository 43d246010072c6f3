package route

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioTopology() *Topology {
	topo := NewTopology()
	topo.UpdateLink("A", "B", 1)
	topo.UpdateLink("A", "C", 4)
	topo.UpdateLink("B", "C", 2)
	topo.UpdateLink("B", "D", 5)
	topo.UpdateLink("C", "D", 1)
	return topo
}

func TestSPFCalculator_ComputeRoutes(t *testing.T) {
	calc := NewSPFCalculator()
	rt, err := calc.ComputeRoutes("A", scenarioTopology())
	require.NoError(t, err)

	assert.Equal(t, DistanceVector{"A": 0, "B": 1, "C": 3, "D": 4}, rt.Vector())
	for dest, hop := range map[string]string{"A": "A", "B": "B", "C": "B", "D": "B"} {
		got, err := rt.GetNextHop(dest)
		require.NoError(t, err)
		assert.Equal(t, hop, got, dest)
	}
}

func TestSPFCalculator_UnknownSource(t *testing.T) {
	_, err := NewSPFCalculator().ComputeRoutes("Z", scenarioTopology())
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestSPFCalculator_InvalidCost(t *testing.T) {
	topo := NewTopology()
	topo.UpdateLink("A", "B", -1)
	_, err := NewSPFCalculator().ComputeRoutes("A", topo)
	assert.ErrorIs(t, err, ErrInvalidTopology)
}

func TestSPFCalculator_OmitsUnreachable(t *testing.T) {
	topo := NewTopology()
	topo.UpdateLink("A", "B", 1)
	topo.AddNode("C")
	// 有向边：A 无法到达 D
	topo.SetCost("D", "A", 1)

	rt, err := NewSPFCalculator().ComputeRoutes("A", topo)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, rt.Destinations())
}

func TestVerify_DetectsMismatch(t *testing.T) {
	net := mustNetwork(t, scenarioSpecs())
	res, err := NewDriver(net, WithLogger(quietLogger())).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, Verify(net, res))

	// 篡改结果
	a, ok := res.Table("A")
	require.True(t, ok)
	a.AddRoute(&Route{Destination: "D", NextHop: "B", Cost: 7})
	delete(res.Tables[1].routes, "D")

	err = Verify(net, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRouteMismatch)
	assert.Contains(t, err.Error(), "A->D")
	assert.Contains(t, err.Error(), "B->D")
}

func TestVerify_MissingTable(t *testing.T) {
	net := mustNetwork(t, scenarioSpecs())
	err := Verify(net, &Result{})
	assert.ErrorIs(t, err, ErrRouteMismatch)
}
