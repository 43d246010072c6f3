package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dvnet/internal/route"
)

var (
	appConfig    = flag.String("app-config", "configs/app.toml", "Application config file path")
	topologyFile = flag.String("topology", "", "Topology file (.toml/.yaml); built-in demo network if empty")

	// 覆盖 app.toml 中的设置
	mode      = flag.String("mode", "", "Exchange mode: gauss-seidel or jacobi")
	transport = flag.String("transport", "", "Table transport: local or grpc")
	verify    = flag.Bool("verify", false, "Verify converged tables against SPF")

	finalOnly = flag.Bool("final", false, "Print only the converged tables")
	quiet     = flag.Bool("quiet", false, "Discard log output")
	serve     = flag.Bool("serve", false, "Keep serving routing tables over gRPC after convergence")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	// 加载运行时配置
	rtConfig, err := route.LoadRuntimeConfig(*appConfig, *topologyFile, "dv_route")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load runtime config: %v\n", err)
		return 1
	}

	simCfg := &rtConfig.AppConfig.Simulation
	if *mode != "" {
		simCfg.Mode = *mode
	}
	if *transport != "" {
		simCfg.Transport = *transport
	}
	if *verify {
		simCfg.Verify = true
	}
	if *quiet {
		rtConfig.AppConfig.Log.Output = "none"
	}

	reporter := route.NewTextReporter(os.Stdout)
	reporter.Final = *finalOnly

	sim := route.NewSimulation(rtConfig, reporter)
	defer sim.Stop()
	if err := sim.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize simulation: %v\n", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if _, err := sim.Run(ctx); err != nil {
		switch {
		case errors.Is(err, route.ErrUnknownNeighbor):
			fmt.Fprintf(os.Stderr, "Unknown neighbor: %v\n", err)
		case errors.Is(err, route.ErrRouteMismatch):
			fmt.Fprintf(os.Stderr, "Verification failed: %v\n", err)
		default:
			fmt.Fprintf(os.Stderr, "Simulation failed: %v\n", err)
		}
		return 1
	}

	if !*serve {
		return 0
	}

	if err := sim.StartTableServer(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start table server: %v\n", err)
		return 1
	}
	fmt.Printf("Serving routing tables on %s (Ctrl-C to stop)\n", sim.Addr())

	// 等待中断信号
	<-ctx.Done()
	return 0
}
