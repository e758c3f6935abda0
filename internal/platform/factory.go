package platform

import (
	"github.com/fabianshop/storefront/pkg/core"
)

// New opens the catalog store and wraps it in the mutation service.
//
//	svc, err := platform.New("./catalog", platform.WithSecret(key), platform.WithVersioning(false))
//
// The URI argument is adapter-specific (a directory for "fs", "owner/repo" for "github").
func New(uri string, opts ...Option) (*core.Service, error) {
	store, err := Open(uri, opts...)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return core.NewService(store, core.SharedSecret(o.secret), o.logger), nil
}
