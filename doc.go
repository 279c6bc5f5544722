// Package scriptbridge connects a native host to a reloadable managed
// scripting domain.
//
// The host publishes native functions to managed code, creates managed
// world objects paired with its own native counterparts, reads and writes
// their fields, drives their per-frame hooks and replaces the whole managed
// domain at runtime without restarting.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	scriptbridge/        Root package with handles, vectors, transforms and kinds
//	├── native/          Native function table and call descriptors
//	├── field/           Named field accessors and editor property strings
//	├── object/          Handle allocation and the managed object registry
//	├── domain/          Managed domain contract, type registry, format detection
//	│   ├── luadomain/   Lua domains on Shopify/go-lua
//	│   ├── wasmdomain/  WebAssembly domains on wazero
//	│   └── assembly/    Statically linked Go types
//	├── bridge/          Load/reload protocol and the object lifecycle facade
//	├── config/          YAML and environment configuration
//	├── errors/          Structured error types for debugging
//	└── cmd/bridgehost/  Demo host with batch and interactive modes
//
// # Quick Start
//
// Load a domain and spawn an object:
//
//	b := bridge.New(luadomain.NewLoader(), bridge.WithNativeProvider(world))
//	defer b.Close(ctx)
//
//	if err := b.LoadOrReloadDomain(ctx, "game.lua", "", false); err != nil {
//	    log.Fatal(err)
//	}
//
//	h := b.Instantiate("Cube", scriptbridge.IdentityTransform(), ptr)
//	b.ExecuteNamedMethod(h, "Begin")
//
//	b.SetDeltaTime(1.0 / 60)
//	b.TickAll()
//
// # Generations
//
// Every call to LoadOrReloadDomain starts a new generation. Handles, type
// descriptors and published natives of the previous generation are invalid
// as soon as the call begins, whether the load succeeds or not. Hosts keep
// their own counterpart state and re-create managed objects after a reload.
//
// # Thread Safety
//
// A Bridge is NOT thread-safe. Drive it from one simulation goroutine, the
// same one that runs managed code.
package scriptbridge
