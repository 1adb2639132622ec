// Package auth implements the session authentication layer:
//   - bcrypt password hashing with fail-closed verification
//   - HS256 JWT issue/verify carrying the caller's identity and role
//   - the HttpOnly session cookie that carries the token between requests
//   - the authorisation guard that turns a request into "who is calling"
//     and decides allow/deny against a role allow-list
//
// Token and cookie failures never surface as errors to guard callers: they
// collapse into "no current user" and the 401/403 decision is made by the
// route layer.
package auth
