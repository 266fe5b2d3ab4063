package helpers

import "github.com/devinmiller/Identity/internal/domain/repository"

// RestrictProviders filtra providers a los esquemas de allow.
// allow vacío = sin restricción (no "denegar todo"). Conserva el orden de entrada.
func RestrictProviders(providers []repository.ProviderDescriptor, allow []string) []repository.ProviderDescriptor {
	if len(allow) == 0 {
		return providers
	}
	set := make(map[string]struct{}, len(allow))
	for _, a := range allow {
		set[a] = struct{}{}
	}
	out := make([]repository.ProviderDescriptor, 0, len(providers))
	for _, p := range providers {
		if _, ok := set[p.Scheme]; ok {
			out = append(out, p)
		}
	}
	return out
}
