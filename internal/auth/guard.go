package auth

import (
	"net/http"

	"github.com/arunakai/care-home-saas/internal/models"
)

// Guard resolves the calling user from a request and makes role decisions.
type Guard struct {
	cookies *CookieManager
	tokens  *TokenIssuer
}

func NewGuard(cookies *CookieManager, tokens *TokenIssuer) *Guard {
	return &Guard{cookies: cookies, tokens: tokens}
}

// CurrentUser returns the caller identified by the session cookie, or nil
// when the cookie is absent or its token does not verify. It has no side
// effects on the request.
func (g *Guard) CurrentUser(r *http.Request) *models.User {
	token, ok := g.cookies.Extract(r)
	if !ok {
		return nil
	}
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil
	}
	return claims.User()
}

// Authorize reports whether u may proceed. A nil user is always denied; an
// empty allow-list admits any authenticated role.
func Authorize(u *models.User, allowed ...models.Role) bool {
	if u == nil {
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	return u.HasRole(allowed...)
}

// View is what a rendering collaborator should show for a guarded page.
type View int

const (
	ViewLoading View = iota
	ViewLoginRequired
	ViewFallback
	ViewContent
)

func (v View) String() string {
	switch v {
	case ViewLoading:
		return "loading"
	case ViewLoginRequired:
		return "login_required"
	case ViewFallback:
		return "fallback"
	case ViewContent:
		return "content"
	}
	return "unknown"
}

// Present applies the guard to page rendering: while the user is still
// being resolved show a loading state, then require a login, then fall back
// when the role is not admitted.
func Present(u *models.User, loading bool, allowed ...models.Role) View {
	switch {
	case loading:
		return ViewLoading
	case u == nil:
		return ViewLoginRequired
	case !Authorize(u, allowed...):
		return ViewFallback
	}
	return ViewContent
}
