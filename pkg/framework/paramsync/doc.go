// Package paramsync keeps host parameters and embedded-engine parameters in
// agreement without locks on the audio thread.
//
// Two goroutines take part:
//
//   - The audio thread calls Synchronizer.UpdateFromAudioThread once per
//     block. It compares both sides against the last values it saw, writes
//     host changes straight into the engine, and stages engine changes in a
//     one-slot-per-parameter deferred channel. It never blocks or allocates.
//   - The control plane (timer, UI or message goroutine) calls
//     Synchronizer.PushQueuedUpdates at a low rate. It drains the deferred
//     channel and is the only caller of host-notifying APIs.
//
// When both sides move in the same block the host value wins and the engine
// change is dropped. Engine churn between drains is coalesced: only the
// latest staged value reaches the host.
//
// Every shared field is an atomic with exactly one writing goroutine, except
// the hand-off of lastHost after a drain, which uses compare-and-swap so a
// concurrent host-wins write is never overwritten.
package paramsync
