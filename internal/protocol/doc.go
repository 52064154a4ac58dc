// Package protocol implements the Message Codec.
//
// Outbound commands are JSON objects with no type discriminator:
//   - control keys are sent as {"key": "<token>"}
//   - the session configuration is sent as a bare object
//
// Inbound frames are classified by field presence. An object carrying a
// "snake" field is a state snapshot; any other object is a generic message.
// Anything else is a protocol error and is dropped by the caller.
package protocol
