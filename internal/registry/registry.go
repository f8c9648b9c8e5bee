package registry

import (
	"net/http"
	"sort"
	"sync"

	"github.com/hattiebot/conduit/internal/config"
	"github.com/hattiebot/conduit/internal/core"
)

// ClientFactory builds a model provider client from its settings.
type ClientFactory func(cfg config.Provider, hc *http.Client) (core.LLMClient, error)

var (
	mu         sync.RWMutex
	LLMClients = make(map[string]ClientFactory)
)

// RegisterClient makes a provider available under name. Provider packages
// call it from init.
func RegisterClient(name string, f ClientFactory) {
	mu.Lock()
	defer mu.Unlock()
	LLMClients[name] = f
}

func GetClientFactory(name string) (ClientFactory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := LLMClients[name]
	return f, ok
}

// ClientNames lists the registered providers, sorted.
func ClientNames() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(LLMClients))
	for n := range LLMClients {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
