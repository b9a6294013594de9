// Package server provides the HTTP plumbing for the one-shot OAuth callback listener.
//
// # Router Infrastructure
//
// [Middleware] runs in the order it is added: the first added is the outermost wrapper.
// [RequestLogger] is the only middleware installed.
//
// [BasicRouter] uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback
//
// [CallbackHandler] validates the authorization redirect: an error parameter, a state mismatch or a missing code
// each produce a failure page and an error. It only processes one callback.
//
// [AwaitCallback] runs an [http.Server] on a caller-supplied listener, blocks until the handler reports, the
// optional timeout fires or the context is cancelled, and always shuts the listener down before returning.
// Token exchange is left to the caller.
package server
