// Package relay implements the web-command relay engine.
//
// A Supervisor keeps one child process running on a pseudo-terminal,
// restarting it after a fixed wait whenever its output ends. Everything
// the process prints goes through the Broadcaster, which appends it to a
// bounded ReplayBuffer and fans it out to every Client in the Registry.
// An InputRelay feeds local standard input either into the process or,
// in passthrough mode (no command), straight into the broadcast stream.
//
// Ordering:
//   - Send appends to the buffer and enqueues to clients under one lock
//   - Join registers a client and queues its catch-up under the same lock,
//     so a client sees the buffer snapshot followed by every later Send,
//     with nothing duplicated and nothing missed
//   - A client whose Send fails is dropped without delaying the others
//
// Example Usage:
//
//	r := relay.New(relay.Options{
//		Command:    []string{"htop"},
//		WaitTime:   5 * time.Second,
//		BufferSize: relay.DefaultBufferSize,
//		Output:     os.Stdout,
//		Input:      os.Stdin,
//	}, relay.DefaultSpawn, logger, metrics)
//	r.Start(ctx)
//	defer r.Stop()
//
//	// transport layer, per connection:
//	r.Broadcaster().Join(client)
//	defer r.Broadcaster().Leave(client)
package relay
