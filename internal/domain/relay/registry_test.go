package relay

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryKeepsJoinOrder(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"c", "a", "b"} {
		require.True(t, reg.Add(newClient(id)))
	}

	var ids []string
	for _, c := range reg.Snapshot() {
		ids = append(ids, c.ID())
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	assert.True(t, reg.Add(newClient("a")))
	assert.False(t, reg.Add(newClient("a")))
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryRemove(t *testing.T) {
	reg := NewRegistry()
	reg.Add(newClient("a"))
	reg.Add(newClient("b"))

	c, ok := reg.Remove("a")
	require.True(t, ok)
	assert.Equal(t, "a", c.ID())

	_, ok = reg.Remove("a")
	assert.False(t, ok)

	_, ok = reg.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistrySnapshotIsStable(t *testing.T) {
	reg := NewRegistry()
	reg.Add(newClient("a"))
	snap := reg.Snapshot()

	reg.Add(newClient("b"))
	reg.Remove("a")
	assert.Len(t, snap, 1)
	assert.Equal(t, "a", snap[0].ID())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("client-%d", i)
			reg.Add(newClient(id))
			_ = reg.Snapshot()
			if i%2 == 0 {
				reg.Remove(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, reg.Len())
	assert.Len(t, reg.Clear(), 25)
	assert.Zero(t, reg.Len())
}
