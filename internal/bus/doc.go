// Package bus adapts a raw, ordered process channel into a topic-addressed
// event bus.
//
// A Bus sits between a channel.Channel and an emitter.Emitter:
//   - Send encodes a call into exactly one wire message. When the first
//     argument is a transferable handle the message carries the bare topic
//     plus that handle and any further arguments are dropped; otherwise the
//     topic and all arguments travel as one ordered sequence.
//   - Inbound messages are decoded back into (topic, args...) and emitted.
//   - The channel's exit notification detaches the bus: both channel
//     listeners are removed, the channel reference is released and a single
//     "exit" event carries the exit code. Detaching is idempotent.
//
// An "error" listener that does nothing is registered at construction, so a
// forwarded peer error never goes unhandled.
//
// Lifecycle:
//
//	Adapt ──► Attached ──(channel exit / Detach)──► Detached
//
// There is no way back to Attached; adapt a new channel instead.
package bus
