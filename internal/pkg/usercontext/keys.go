package usercontext

// Shared Locals keys used across controllers and middlewares
const (
	LocalsKey        = "USER_CONTEXT"
	KeyIsAdmin       = "isAdmin"
	KeyFromProtected = "from_protected"
	KeyAccessClaims  = "access_claims"
)
