package route

import (
	"fmt"
	"io"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// scenarioSpecs A–B(1), A–C(4), B–C(2), B–D(5), C–D(1)
func scenarioSpecs() []NodeSpec {
	return []NodeSpec{
		{ID: "A", Neighbors: map[string]float64{"B": 1, "C": 4}},
		{ID: "B", Neighbors: map[string]float64{"A": 1, "C": 2, "D": 5}},
		{ID: "C", Neighbors: map[string]float64{"A": 4, "B": 2, "D": 1}},
		{ID: "D", Neighbors: map[string]float64{"B": 5, "C": 1}},
	}
}

func mustNetwork(t *testing.T, specs []NodeSpec) *Network {
	t.Helper()
	net, err := NewNetwork(specs)
	require.NoError(t, err)
	return net
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// randomConnectedSpecs 生成随机连通无向图：先连成随机生成树，再加额外边
func randomConnectedSpecs(r *rand.Rand, k int, extra int) []NodeSpec {
	ids := make([]string, k)
	adj := make([]map[string]float64, k)
	for i := range ids {
		ids[i] = fmt.Sprintf("n%02d", i)
		adj[i] = make(map[string]float64)
	}
	link := func(i, j int, cost float64) {
		if i == j {
			return
		}
		if _, ok := adj[i][ids[j]]; ok {
			return
		}
		adj[i][ids[j]] = cost
		adj[j][ids[i]] = cost
	}

	perm := r.Perm(k)
	for i := 1; i < k; i++ {
		link(perm[i], perm[r.Intn(i)], float64(r.Intn(10)))
	}
	for i := 0; i < extra; i++ {
		link(r.Intn(k), r.Intn(k), float64(r.Intn(10)))
	}

	specs := make([]NodeSpec, k)
	for i := range ids {
		specs[i] = NodeSpec{ID: ids[i], Neighbors: adj[i]}
	}
	return specs
}

// recordingReporter 记录每轮快照
type recordingReporter struct {
	rounds    []RoundReport
	converged []*Result
}

func (r *recordingReporter) RoundCompleted(report RoundReport) {
	r.rounds = append(r.rounds, report)
}

func (r *recordingReporter) Converged(result *Result) {
	r.converged = append(r.converged, result)
}

func vectors(tables []*RouteTable) map[string]DistanceVector {
	out := make(map[string]DistanceVector, len(tables))
	for _, t := range tables {
		out[t.SourceNode()] = t.Vector()
	}
	return out
}
