// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the socket protocol shared by the helpdesk
// attachment service and its clients.
//
// The protocol is CBOR request-response over a Unix domain socket.
// Each connection carries exactly one cycle: the client writes a
// single CBOR map containing an "action" field plus action-specific
// parameters, the server writes a single [Response] envelope, and the
// connection closes. CBOR is self-delimiting, so no length prefix or
// framing layer is needed.
//
//   - [SocketServer] listens on the socket, routes requests to
//     handlers registered per action, and shuts down gracefully:
//     cancellation stops the accept loop while in-flight handlers run
//     to completion.
//   - [ServiceClient] opens a fresh connection per call, injects the
//     action field, and converts ok=false envelopes into typed
//     [ServiceError] values carrying the server's message and code.
//   - [NewLogger] builds the JSON slog logger every helpdesk binary
//     starts from.
//
// Access control is the socket file itself: the service runs with the
// socket in a directory whose permissions decide who can ask it for
// attachments. There is no token or credential layer in the protocol.
package service
