// Package worklist is an assignment and exclusive-access coordination
// engine for shared pools of weighted work items.
//
// The engine assigns pending items to the least-loaded eligible worker,
// guards in-progress items with TTL-leased distributed locks, mirrors
// per-worker load into an ephemeral coordination store for cheap reads, and
// fans state changes out to observers in well under a second.
//
// # Architecture
//
// A Coordinator composes four durable and ephemeral stores supplied by the
// caller:
//
//   - WorkerStore and ItemStore: the durable registry and item catalog
//     (in-memory and SQLite implementations are provided under store/)
//   - AssignmentLog: the append-only assignment history that feeds
//     fairness reporting
//   - CoordinationStore: an ephemeral TTL key-value store (Redis or
//     in-memory, under kv/) backing locks, load mirrors, presence, and
//     assignment guards
//
// On top of these the Coordinator runs the fairness algorithm, the lock
// manager, and a broadcast hub; an optional NATS bridge extends event
// propagation across processes.
//
// # Quick start
//
//	cfg := worklist.DefaultConfig()
//	c, err := worklist.New(&cfg, worklist.Deps{
//	    Workers: memstore.NewWorkerStore(),
//	    Items:   memstore.NewItemStore(),
//	    Records: memstore.NewAssignmentLog(),
//	    KV:      kvmemory.New(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := c.Assign(ctx, itemID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Reason)
package worklist
