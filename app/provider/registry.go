package provider

import (
	"errors"
	"fmt"
	"sort"
)

var ErrProviderNotSupported = errors.New("provider is not supported")

// Registry resolves the gateway a payment was opened with from its stored
// provider code.
type Registry struct {
	providers map[int32]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	items := make(map[int32]Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			continue
		}
		items[p.Code()] = p
	}
	return &Registry{providers: items}
}

func (r *Registry) Get(code int32) (Provider, error) {
	if r == nil {
		return nil, ErrProviderNotSupported
	}
	p, ok := r.providers[code]
	if !ok {
		return nil, fmt.Errorf("%w: code %d", ErrProviderNotSupported, code)
	}
	return p, nil
}

// Codes lists the registered provider codes in ascending order.
func (r *Registry) Codes() []int32 {
	if r == nil {
		return nil
	}
	codes := make([]int32, 0, len(r.providers))
	for code := range r.providers {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
