package route_test

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"dvnet/internal/route"
)

func ExampleDriver_Run() {
	net, err := route.NewNetwork([]route.NodeSpec{
		{ID: "A", Neighbors: map[string]float64{"B": 1}},
		{ID: "B", Neighbors: map[string]float64{"A": 1, "C": 2}},
		{ID: "C", Neighbors: map[string]float64{"B": 2}},
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	reporter := route.NewTextReporter(os.Stdout)
	reporter.Final = true

	_, err = route.NewDriver(net, route.WithReporter(reporter), route.WithLogger(logger)).Run(context.Background())
	if err != nil {
		fmt.Println(err)
	}
	// Output:
	// Converged after 1 rounds (2 passes, mode=gauss-seidel)
	// Routing Table for Node A:
	//   Destination A -> Distance 0 (via A)
	//   Destination B -> Distance 1 (via B)
	//   Destination C -> Distance 3 (via B)
	//
	// Routing Table for Node B:
	//   Destination A -> Distance 1 (via A)
	//   Destination B -> Distance 0 (via B)
	//   Destination C -> Distance 2 (via C)
	//
	// Routing Table for Node C:
	//   Destination A -> Distance 3 (via B)
	//   Destination B -> Distance 2 (via B)
	//   Destination C -> Distance 0 (via C)
}
