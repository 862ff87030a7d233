// Command govkernelctl is a read-only inspection CLI for a governance
// kernel running in the same process. Real deployments embed the kernel
// inside an application server and never exec this binary standalone;
// it exists to demo and smoke-test the runtime against a couple of
// sample modules installed at startup.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"govkernel/internal/api"
	"govkernel/internal/inprocloader"
	"govkernel/internal/kernel"
	"govkernel/internal/manager"
	"govkernel/internal/permission"
	"govkernel/internal/router"
	"govkernel/internal/txverify"
)

var (
	demoManager *manager.Manager
	demoKernel  *kernel.Kernel
)

func main() {
	if err := bootDemo(); err != nil {
		fmt.Fprintln(os.Stderr, "govkernelctl: failed to start demo runtime:", err)
		os.Exit(1)
	}
	Execute()
}

// bootDemo wires the reference implementations together and installs two
// sample modules so "list modules", "list instances", and "stats" have
// something real to show.
func bootDemo() error {
	api.RegisterModuleLoader(inprocloader.NewLoader())
	api.RegisterContainerFactory(inprocloader.NewFactory())
	api.RegisterPermissionService(permission.AllowAll{})
	api.RegisterTrafficRouter(router.New())
	api.RegisterTransactionVerifier(txverify.Never{})

	cfg := manager.Config{
		BulkheadCapacity:  16,
		WorkerCount:       4,
		AcquireTimeout:    2 * time.Second,
		ExecTimeout:       5 * time.Second,
		ForceCleanupDelay: 30 * time.Second,
		MaxDyingInstances: 4,
	}
	demoManager = manager.New(cfg)
	demoKernel = kernel.New(demoManager, nil)

	ctx := context.Background()
	samples := []struct {
		id         api.ModuleId
		properties map[string]string
	}{
		{id: "billing", properties: map[string]string{"region": "us-east"}},
		{id: "notifications", properties: map[string]string{"region": "eu-west"}},
	}

	for _, s := range samples {
		def := &api.ModuleDefinition{
			ID:         s.id,
			Version:    "1.0.0",
			Properties: s.properties,
		}
		source := &inprocloader.Source{
			BeansByType: map[string]any{},
		}
		if err := demoManager.InstallDev(ctx, def, source); err != nil {
			return fmt.Errorf("installing %s: %w", s.id, err)
		}
	}
	return nil
}
