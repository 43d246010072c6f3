package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"dvnet/internal/route"
)

var (
	serverAddr = flag.String("server", "localhost:5001", "Table server address (ip:port)")
	nodeID     = flag.String("node", "", "Node ID; lists all nodes if empty")
)

func main() {
	flag.Parse()

	client, err := route.DialTableClient(*serverAddr)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if *nodeID == "" {
		nodes, err := client.ListNodes(ctx)
		if err != nil {
			log.Fatalf("ListNodes failed: %v", err)
		}
		for _, id := range nodes {
			fmt.Println(id)
		}
		return
	}

	routes, err := client.Routes(ctx, *nodeID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "GetVector failed: %v\n", err)
		os.Exit(1)
	}

	table := route.NewRouteTable(*nodeID)
	for i := range routes {
		table.AddRoute(&routes[i])
	}
	fmt.Print(table.String())
}
