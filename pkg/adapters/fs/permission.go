package fs

import (
	"context"
	"sync"
)

// Permission decides whether the microphone may be used.
type Permission interface {
	Request(ctx context.Context) (bool, error)
}

// PermissionFunc adapts a function to Permission.
type PermissionFunc func(ctx context.Context) (bool, error)

// Request implements Permission.
func (f PermissionFunc) Request(ctx context.Context) (bool, error) {
	return f(ctx)
}

// AlwaysGrant grants every request.
func AlwaysGrant() Permission {
	return PermissionFunc(func(context.Context) (bool, error) { return true, nil })
}

// Deny refuses every request.
func Deny() Permission {
	return PermissionFunc(func(context.Context) (bool, error) { return false, nil })
}

// Remember asks p until access is granted once, then grants without asking.
// A denial is not remembered, so the user is asked again next time.
func Remember(p Permission) Permission {
	var (
		mu      sync.Mutex
		granted bool
	)
	return PermissionFunc(func(ctx context.Context) (bool, error) {
		mu.Lock()
		defer mu.Unlock()
		if granted {
			return true, nil
		}
		ok, err := p.Request(ctx)
		if err != nil {
			return false, err
		}
		granted = ok
		return ok, nil
	})
}
