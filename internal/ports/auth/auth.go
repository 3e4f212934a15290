package auth

import "context"

// Claims representa al profesional autenticado (extraído del token o del header de dev).
type Claims struct {
	UserID string
	Email  string
	Role   string // p.ej. "nurse", "physician"
}

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// VerifierFunc permite usar una función como AuthVerifier (tests, stubs locales).
type VerifierFunc func(ctx context.Context, token string) (Claims, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (Claims, error) {
	return f(ctx, token)
}
