// Package auth turns an inbound request into an explicit Principal.
package auth

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/sessions"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleBrand   Role = "BRAND"
	RoleCreator Role = "CREATOR"
)

const (
	WorkerSecretHeader = "X-Worker-Secret"
	SessionName        = "session"

	sessionUserKey = "user_id"
	sessionRoleKey = "role"
)

// Principal is the caller an operation runs on behalf of.
// The zero value is an anonymous caller.
type Principal struct {
	UserID string
	Role   Role
	Worker bool
}

// WorkerPrincipal is the trusted internal caller used by the AI-check worker.
func WorkerPrincipal() Principal {
	return Principal{Worker: true}
}

func (p Principal) IsAnonymous() bool { return !p.Worker && p.UserID == "" }
func (p Principal) IsAdmin() bool     { return p.UserID != "" && p.Role == RoleAdmin }
func (p Principal) IsBrand() bool     { return p.UserID != "" && p.Role == RoleBrand }
func (p Principal) IsCreator() bool   { return p.UserID != "" && p.Role == RoleCreator }

// CanTriggerAICheck holds for the internal worker and for admins.
func (p Principal) CanTriggerAICheck() bool {
	return p.Worker || p.IsAdmin()
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal stored by Resolver.Middleware, or an anonymous one.
func FromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(ctxKey{}).(Principal)
	return p
}

// NewCookieStore builds the session store shared by the web front end.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Resolver identifies callers by worker secret header first, then by session cookie.
type Resolver struct {
	WorkerSecret string
	Store        sessions.Store
}

func NewResolver(workerSecret string, store sessions.Store) *Resolver {
	return &Resolver{WorkerSecret: workerSecret, Store: store}
}

func (r *Resolver) Resolve(req *http.Request) Principal {
	p, _ := r.resolve(req)
	return p
}

// resolve also reports whether the principal came from a session cookie.
func (r *Resolver) resolve(req *http.Request) (Principal, bool) {
	if r.isWorker(req.Header.Get(WorkerSecretHeader)) {
		return WorkerPrincipal(), false
	}
	if r.Store == nil {
		return Principal{}, false
	}

	session, err := r.Store.Get(req, SessionName)
	if err != nil || session.IsNew {
		return Principal{}, false
	}
	userID, _ := session.Values[sessionUserKey].(string)
	role, _ := session.Values[sessionRoleKey].(string)
	if userID == "" {
		return Principal{}, false
	}
	return Principal{UserID: userID, Role: Role(role)}, true
}

func (r *Resolver) isWorker(provided string) bool {
	if r.WorkerSecret == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(r.WorkerSecret)) == 1
}

// Middleware stores the resolved principal in the request context. A session-backed
// request gets its cookie re-issued so the expiry slides with activity.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		p, fromSession := r.resolve(req)
		if fromSession {
			_ = SaveSession(w, req, r.Store, p)
		}
		next.ServeHTTP(w, req.WithContext(WithPrincipal(req.Context(), p)))
	})
}

// SaveSession writes the principal into the session cookie. Login itself lives outside this service.
func SaveSession(w http.ResponseWriter, req *http.Request, store sessions.Store, p Principal) error {
	session, err := store.New(req, SessionName)
	if err != nil && session == nil {
		return err
	}
	session.Values[sessionUserKey] = p.UserID
	session.Values[sessionRoleKey] = string(p.Role)
	return session.Save(req, w)
}
