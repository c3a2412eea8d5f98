// Package nextion provides the serial protocol engine for Nextion touch displays.
//
// The host and the display share a single byte stream without message
// boundaries or flow control. Three kinds of traffic travel on it:
//
//   - outbound commands, ASCII text terminated by FF FF FF;
//   - solicited replies to "get" queries, 0x70 (text) or 0x71 (number)
//     followed by a payload and FF FF FF;
//   - unsolicited event frames, '#' <len> <group> [len-1 bytes].
//
// Synchronization relies only on marker bytes, terminators, the event
// length field and bounded waits. Failed reads never panic or return
// partial data: ReadNumber and ReadStr return ErrorNumber and ErrorText.
//
// The engine is single-consumer and cooperative. Callers must invoke
// Listen on every iteration of their own loop so event frames arriving
// at any time are dispatched, and must not call into a Nex from more
// than one goroutine at a time.
package nextion
