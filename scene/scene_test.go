// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gviegas/seascene/texture"
)

func TestNew(t *testing.T) {
	s := New()
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Background())
	assert.Nil(t, s.Environment())
}

func TestSceneCount(t *testing.T) {
	s := New()
	s.Add(NewNode("light", NewAmbientLight(0.25, 0.25, 0.25, 1)))
	s.Add(NewNode("water", waterStub{}))
	model := NewNode("model", nil)
	model.Insert(NewNode("hull", &Mesh{Primitives: 1}))
	model.Insert(NewNode("mast", &Mesh{Primitives: 2}))
	s.Add(model)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 1, s.Count(KindAmbientLight))
	assert.Equal(t, 1, s.Count(KindWater))
	assert.Equal(t, 2, s.Count(KindMesh))
	assert.Equal(t, 1, s.Count(KindGroup))

	require.True(t, s.Remove(model))
	assert.False(t, s.Remove(model))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 0, s.Count(KindMesh))
}

func TestSceneConcurrentAdd(t *testing.T) {
	s := New()
	tex := &texture.Texture{Width: 1, Height: 1, Pix: []float32{1, 1, 1}}
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(NewNode("n", nil))
			if i%2 == 0 {
				s.SetBackground(tex)
				s.SetEnvironment(tex)
			}
			_ = s.Count(KindGroup)
		}()
	}
	wg.Wait()
	assert.Equal(t, 32, s.Len())
	assert.Same(t, tex, s.Background())
	assert.Same(t, tex, s.Environment())
}

func TestAmbientLight(t *testing.T) {
	l := NewAmbientLight(2, 0.5, -1, -3)
	r, g, b := l.Color()
	assert.Equal(t, [3]float32{1, 0.5, 0}, [3]float32{r, g, b})
	assert.Zero(t, l.Intensity())
	l.SetIntensity(2)
	assert.Equal(t, float32(1), l.Radiance()[1])
}

func TestMeshBounds(t *testing.T) {
	var m Mesh
	m.Extend([3]float32{1, 2, 3})
	m.Extend([3]float32{-1, 5, 0})
	assert.True(t, m.Bounded)
	assert.Equal(t, [3]float32{-1, 2, 0}, [3]float32(m.Min))
	assert.Equal(t, [3]float32{1, 5, 3}, [3]float32(m.Max))
	c := m.Corners()
	assert.Equal(t, m.Min, c[0])
	assert.Equal(t, m.Max, c[7])
}

type waterStub struct{}

func (waterStub) Kind() Kind { return KindWater }
