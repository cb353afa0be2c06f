/*
Copyright 2025 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"k8s.io/minion-scheduler/pkg/minion/types"
)

func key(name string) types.ContainerKey {
	return types.ContainerKey{PodUID: "pod-1", Name: name}
}

func TestFIFOOrder(t *testing.T) {
	q := NewPendingQueue()
	base := time.Now()
	require.True(t, q.Enqueue(key("first"), base))
	require.True(t, q.Enqueue(key("second"), base.Add(time.Second)))
	require.True(t, q.Enqueue(key("third"), base.Add(2*time.Second)))
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"first", "second", "third"} {
		got, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.Name)
	}
	_, ok := q.Dequeue()
	assert.False(t, ok)
}

func TestTieBreakByIdentity(t *testing.T) {
	// All entries carry the same timestamp, as happens under a frozen
	// test clock. Order must fall back to container identity.
	q := NewPendingQueue()
	now := time.Now()
	require.True(t, q.Enqueue(key("zeta"), now))
	require.True(t, q.Enqueue(key("alpha"), now))
	require.True(t, q.Enqueue(key("mid"), now))

	var got []string
	for {
		k, ok := q.Dequeue()
		if !ok {
			break
		}
		got = append(got, k.Name)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, got)
}

func TestDoubleEnqueueIgnored(t *testing.T) {
	q := NewPendingQueue()
	now := time.Now()
	require.True(t, q.Enqueue(key("app"), now))
	assert.False(t, q.Enqueue(key("app"), now.Add(time.Hour)))
	assert.Equal(t, 1, q.Len())

	k, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "app", k.Name)
	assert.Equal(t, 0, q.Len())
}

func TestRemove(t *testing.T) {
	q := NewPendingQueue()
	base := time.Now()
	q.Enqueue(key("a"), base)
	q.Enqueue(key("b"), base.Add(time.Second))
	q.Enqueue(key("c"), base.Add(2*time.Second))

	assert.True(t, q.Remove(key("b")))
	assert.False(t, q.Remove(key("b")))
	assert.False(t, q.Has(key("b")))
	assert.True(t, q.Has(key("a")))

	k, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "a", k.Name)
	k, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "c", k.Name)
	assert.Equal(t, 0, q.Len())
}
