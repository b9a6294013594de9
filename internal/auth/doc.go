// Package auth obtains and maintains the Spotify OAuth credential.
//
// [Manager.Authenticate] runs once per process start and walks a small state machine:
//
//	NoCredential -> AwaitingUserAuthorization -> HaveValidCredential | Failed
//	HaveExpiredOrMissingCredential -> HaveValidCredential (refresh) | NoCredential
//	HaveValidCredential (loaded credential valid for more than a minute)
//
// The credential lives in a JSON file written atomically with mode 0600 ([TokenStore]). Refresh failures are never
// surfaced: they downgrade to a full PKCE authorization-code flow, which opens the browser and waits for exactly one
// redirect on the configured redirect URI. Failures of that flow are returned as authorization errors and nothing is
// persisted.
//
// [Manager.Client] returns an HTTP client that refreshes the access token on demand and writes every new token back
// to the store.
package auth
