package filter

import (
	"math"
	"sync"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-sector/common"
	"github.com/Carmen-Shannon/oxy-sector/engine/geometry"
)

// One triangle spanning [0,1]^3, addressed by direct element offsets 0, 3 and 6.
var (
	unitVertices = []float32{0, 0, 0, 1, 0, 0, 0, 1, 1}
	unitIndices  = []uint32{0, 3, 6}
)

func boxPtr(min, max [3]float32) *common.Box3 {
	b := common.NewBox3(min, max)
	return &b
}

func placements(translations ...[3]float32) geometry.MeshInstance {
	mi := geometry.MeshInstance{TriangleOffset: 0, TriangleCount: 1}
	for i, t := range translations {
		m := mgl32.Translate3D(t[0], t[1], t[2])
		mi.InstanceMatrices = append(mi.InstanceMatrices, m[:]...)
		mi.Colors = append(mi.Colors, uint8(i), uint8(i+1), uint8(i+2), 255)
		mi.TreeIndices = append(mi.TreeIndices, uint32(100+i))
	}
	return mi
}

func TestFilterWithoutClipReturnsInput(t *testing.T) {
	f := NewSpatialFilter()
	mi := placements([3]float32{1, 1, 1}, [3]float32{50, 50, 50})

	out, err := f.FilterInstances(unitVertices, unitIndices, mi, nil)
	require.NoError(t, err)
	require.Equal(t, mi, out)
	require.True(t, out.SharesStorageWith(mi))
}

func TestFilterAllInsideReturnsInput(t *testing.T) {
	f := NewSpatialFilter()
	mi := placements([3]float32{1, 1, 1}, [3]float32{2, 2, 2}, [3]float32{3, 3, 3})

	out, err := f.FilterInstances(unitVertices, unitIndices, mi, boxPtr([3]float32{-10, -10, -10}, [3]float32{10, 10, 10}))
	require.NoError(t, err)
	require.Equal(t, mi.Count(), out.Count())
	require.True(t, out.SharesStorageWith(mi))
}

func TestFilterKeepsInstanceInsideClip(t *testing.T) {
	f := NewSpatialFilter()
	mi := placements([3]float32{1, 1, 1}, [3]float32{7, 7, 7})

	out, err := f.FilterInstances(unitVertices, unitIndices, mi, boxPtr([3]float32{0, 0, 0}, [3]float32{5, 5, 5}))
	require.NoError(t, err)
	require.Equal(t, 1, out.Count())
	require.False(t, out.SharesStorageWith(mi))

	require.Equal(t, mi.Matrix(0), out.Matrix(0))
	require.Equal(t, mi.Color(0), out.Color(0))
	require.Equal(t, []uint32{100}, out.TreeIndices)
	require.Len(t, out.InstanceMatrices, 16)
	require.Len(t, out.Colors, 4)
	require.Equal(t, 16, cap(out.InstanceMatrices))
	require.Equal(t, mi.TriangleOffset, out.TriangleOffset)
	require.Equal(t, mi.TriangleCount, out.TriangleCount)
}

func TestFilterPreservesRelativeOrder(t *testing.T) {
	f := NewSpatialFilter()
	mi := placements([3]float32{1, 1, 1}, [3]float32{40, 0, 0}, [3]float32{3, 3, 3}, [3]float32{2, 0, 0})

	out, err := f.FilterInstances(unitVertices, unitIndices, mi, boxPtr([3]float32{0, 0, 0}, [3]float32{5, 5, 5}))
	require.NoError(t, err)
	require.Equal(t, []uint32{100, 102, 103}, out.TreeIndices)
	require.Equal(t, mi.Matrix(2), out.Matrix(1))
	require.Equal(t, mi.Color(3), out.Color(2))
}

func TestFilterKeepsSurvivorsAcrossBitsetWords(t *testing.T) {
	f := NewSpatialFilter()
	translations := make([][3]float32, 150)
	for i := range translations {
		translations[i] = [3]float32{float32(i % 3 * 20), 0, 0}
	}
	mi := placements(translations...)

	out, err := f.FilterInstances(unitVertices, unitIndices, mi, boxPtr([3]float32{0, 0, 0}, [3]float32{5, 5, 5}))
	require.NoError(t, err)
	require.Equal(t, 50, out.Count())
	require.Equal(t, 50*16, cap(out.InstanceMatrices))
	for i, tree := range out.TreeIndices {
		require.Equal(t, uint32(100+3*i), tree)
		require.Equal(t, mi.Matrix(3*i), out.Matrix(i))
	}
}

func TestBaseBoundsRejectsOverflowingRange(t *testing.T) {
	_, err := BaseBounds(unitVertices, unitIndices, math.MaxInt/3+1, 1)
	require.Error(t, err)
	require.True(t, errors.IsType(err, ErrTypeMalformedBuffer))
}

func TestFilterDisjointClipDiscardsEverything(t *testing.T) {
	f := NewSpatialFilter()
	mi := placements([3]float32{1, 1, 1}, [3]float32{2, 2, 2})

	out, err := f.FilterInstances(unitVertices, unitIndices, mi, boxPtr([3]float32{100, 100, 100}, [3]float32{101, 101, 101}))
	require.NoError(t, err)
	require.Equal(t, 0, out.Count())
	require.Empty(t, out.InstanceMatrices)
	require.Empty(t, out.Colors)
	require.False(t, out.SharesStorageWith(mi))
}

func TestFilterTouchingBoundsSurvive(t *testing.T) {
	f := NewSpatialFilter()
	// translated to [5,6]^3, touching the clip face at 5
	mi := placements([3]float32{5, 5, 5})

	out, err := f.FilterInstances(unitVertices, unitIndices, mi, boxPtr([3]float32{0, 0, 0}, [3]float32{5, 5, 5}))
	require.NoError(t, err)
	require.Equal(t, 1, out.Count())
}

func TestFilterUsesTransformedBounds(t *testing.T) {
	f := NewSpatialFilter()

	// Scale by 4, turn 90 degrees about Z and shift by -2 on X: the box lands on x in [-6,-2],
	// y and z in [0,4], which the untransformed box never reaches.
	rot := mgl32.Translate3D(-2, 0, 0).Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(90))).Mul4(mgl32.Scale3D(4, 4, 4))
	mi := geometry.MeshInstance{
		TriangleOffset:   0,
		TriangleCount:    1,
		InstanceMatrices: append([]float32(nil), rot[:]...),
		Colors:           []uint8{1, 2, 3, 4},
		TreeIndices:      []uint32{9},
	}

	out, err := f.FilterInstances(unitVertices, unitIndices, mi, boxPtr([3]float32{-7, 1, 1}, [3]float32{-5, 3, 3}))
	require.NoError(t, err)
	require.Equal(t, 1, out.Count())

	out, err = f.FilterInstances(unitVertices, unitIndices, mi, boxPtr([3]float32{0.5, 0, 0}, [3]float32{1, 1, 1}))
	require.NoError(t, err)
	require.Equal(t, 0, out.Count())
}

func TestBaseBoundsUsesDirectElementOffsets(t *testing.T) {
	// Offset 4 starts mid "vertex": a stride-multiplied reading would index past the buffer.
	vertices := []float32{100, 100, 100, 100, 7, 8, 9}
	bounds, err := BaseBounds(vertices, []uint32{4, 4, 4}, 0, 1)
	require.NoError(t, err)
	require.Equal(t, common.NewBox3([3]float32{7, 8, 9}, [3]float32{7, 8, 9}), bounds)
}

func TestBaseBoundsHonoursTriangleRange(t *testing.T) {
	vertices := []float32{0, 0, 0, 1, 1, 1, 10, 10, 10}
	indices := []uint32{0, 0, 3, 6, 6, 6}

	bounds, err := BaseBounds(vertices, indices, 0, 1)
	require.NoError(t, err)
	require.Equal(t, [3]float32{1, 1, 1}, bounds.Max)

	bounds, err = BaseBounds(vertices, indices, 1, 1)
	require.NoError(t, err)
	require.Equal(t, [3]float32{10, 10, 10}, bounds.Min)

	bounds, err = BaseBounds(vertices, indices, 2, 0)
	require.NoError(t, err)
	require.True(t, bounds.IsEmpty())
}

func TestFilterEmptyTriangleRangeDiscardsUnderClip(t *testing.T) {
	f := NewSpatialFilter()
	mi := placements([3]float32{1, 1, 1})
	mi.TriangleCount = 0

	out, err := f.FilterInstances(unitVertices, unitIndices, mi, boxPtr([3]float32{-10, -10, -10}, [3]float32{10, 10, 10}))
	require.NoError(t, err)
	require.Equal(t, 0, out.Count())
}

func TestFilterRejectsMalformedBuffers(t *testing.T) {
	f := NewSpatialFilter()
	clip := boxPtr([3]float32{0, 0, 0}, [3]float32{5, 5, 5})

	tests := []struct {
		name     string
		vertices []float32
		indices  []uint32
		mutate   func(*geometry.MeshInstance)
	}{
		{
			name:     "matrix count mismatch",
			vertices: unitVertices,
			indices:  unitIndices,
			mutate:   func(mi *geometry.MeshInstance) { mi.InstanceMatrices = mi.InstanceMatrices[:15] },
		},
		{
			name:     "color count mismatch",
			vertices: unitVertices,
			indices:  unitIndices,
			mutate:   func(mi *geometry.MeshInstance) { mi.Colors = append(mi.Colors, 0) },
		},
		{
			name:     "triangle range past index buffer",
			vertices: unitVertices,
			indices:  unitIndices,
			mutate:   func(mi *geometry.MeshInstance) { mi.TriangleOffset = 1 },
		},
		{
			name:     "negative triangle count",
			vertices: unitVertices,
			indices:  unitIndices,
			mutate:   func(mi *geometry.MeshInstance) { mi.TriangleCount = -1 },
		},
		{
			name:     "triangle offset overflowing the index count",
			vertices: unitVertices,
			indices:  unitIndices,
			mutate:   func(mi *geometry.MeshInstance) { mi.TriangleOffset = math.MaxInt/3 + 1 },
		},
		{
			name:     "triangle count overflowing the index count",
			vertices: unitVertices,
			indices:  unitIndices,
			mutate:   func(mi *geometry.MeshInstance) { mi.TriangleCount = math.MaxInt },
		},
		{
			name:     "index past vertex buffer",
			vertices: unitVertices,
			indices:  []uint32{0, 3, 7},
			mutate:   func(*geometry.MeshInstance) {},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			mi := placements([3]float32{1, 1, 1})
			test.mutate(&mi)

			_, err := f.FilterInstances(test.vertices, test.indices, mi, clip)
			require.Error(t, err)
			require.True(t, errors.IsType(err, ErrTypeMalformedBuffer), err.Error())
		})
	}
}

func TestFilterStats(t *testing.T) {
	var stats Stats
	f := NewSpatialFilter(WithStats(&stats))
	mi := placements([3]float32{1, 1, 1}, [3]float32{70, 0, 0}, [3]float32{2, 2, 2})

	_, err := f.FilterInstances(unitVertices, unitIndices, mi, boxPtr([3]float32{0, 0, 0}, [3]float32{5, 5, 5}))
	require.NoError(t, err)
	_, err = f.FilterInstances(unitVertices, unitIndices, mi, nil)
	require.NoError(t, err)

	require.Equal(t, int64(3), stats.Evaluated.Load())
	require.Equal(t, int64(2), stats.Kept.Load())
}

func TestFilterConcurrentUse(t *testing.T) {
	f := NewSpatialFilter()
	mi := placements([3]float32{1, 1, 1}, [3]float32{9, 9, 9}, [3]float32{2, 3, 4}, [3]float32{-8, 0, 0})
	clip := boxPtr([3]float32{0, 0, 0}, [3]float32{5, 5, 5})

	want, err := f.FilterInstances(unitVertices, unitIndices, mi, clip)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]geometry.MeshInstance, 32)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.FilterInstances(unitVertices, unitIndices, mi, clip)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		require.Equal(t, want, results[i])
	}
}

func BenchmarkFilterInstances(b *testing.B) {
	f := NewSpatialFilter()
	translations := make([][3]float32, 1024)
	for i := range translations {
		translations[i] = [3]float32{float32(i % 32), float32(i / 32), 0}
	}
	mi := placements(translations...)
	clip := boxPtr([3]float32{0, 0, -1}, [3]float32{16, 16, 1})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.FilterInstances(unitVertices, unitIndices, mi, clip); err != nil {
			b.Fatal(err)
		}
	}
}
