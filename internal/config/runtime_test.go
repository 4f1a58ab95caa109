package config_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modelmux/modelmux/internal/config"
)

func TestRuntimeGetStore(t *testing.T) {
	t.Parallel()

	initial := &config.Config{Server: config.ServerConfig{Listen: ":8080"}}
	rt := config.NewRuntime(initial)
	assert.Same(t, initial, rt.Get())

	updated := &config.Config{Server: config.ServerConfig{Listen: ":9090"}}
	rt.Store(updated)
	assert.Same(t, updated, rt.Get())
}

func TestRuntimeConcurrentAccess(t *testing.T) {
	t.Parallel()

	rt := config.NewRuntime(&config.Config{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				rt.Store(&config.Config{})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				assert.NotNil(t, rt.Get())
			}
		}()
	}
	wg.Wait()
}
