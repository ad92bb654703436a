// Package actor is a concurrency substrate for actor-based languages: actors
// that own objects and run the messages sent to them one at a time, promises
// for the results of those messages, and a fixed worker pool that multiplexes
// any number of actors.
//
// The package does not interpret anything itself. Behavior is looked up and
// run by an Invoker supplied by the host (a language interpreter, or a
// Dispatcher keyed by receiver type and selector).
//
// Objects never leave the actor that owns them. When a value crosses an actor
// boundary it goes through WrapForUse: immutable values are shared, objects
// implementing Transferable are deep-copied, promises are re-owned through a
// chained promise, and everything else is reached through a FarReference.
//
// A typical host:
//
//	rt := actor.New(invoker, actor.WithConfig(cfg))
//	if err := rt.Start(ctx, 0); err != nil {
//	    return err
//	}
//	defer rt.Shutdown(cfg.ShutdownGrace)
//
//	result, err := rt.Run(ctx, "main", app)
//	if err != nil {
//	    return err
//	}
//
//	value, err := result.Await(ctx)
package actor
