package geometry

import (
	"math"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestTriangleRangeFits(t *testing.T) {
	tests := []struct {
		name       string
		offset     int
		count      int
		indexCount int
		fits       bool
	}{
		{name: "whole buffer", offset: 0, count: 2, indexCount: 6, fits: true},
		{name: "empty range at end", offset: 2, count: 0, indexCount: 6, fits: true},
		{name: "one past end", offset: 1, count: 2, indexCount: 6},
		{name: "partial trailing triangle", offset: 0, count: 2, indexCount: 5},
		{name: "negative offset", offset: -1, count: 1, indexCount: 6},
		{name: "negative count", offset: 0, count: -1, indexCount: 6},
		{name: "offset overflowing when tripled", offset: math.MaxInt/3 + 1, count: 1, indexCount: 3},
		{name: "sum overflowing", offset: 1, count: math.MaxInt, indexCount: 3},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.fits, TriangleRangeFits(test.offset, test.count, test.indexCount))
		})
	}
}

func TestMeshInstanceValidateRejectsOverflowingRange(t *testing.T) {
	mi := MeshInstance{
		TriangleOffset:   math.MaxInt/3 + 1,
		TriangleCount:    1,
		InstanceMatrices: make([]float32, 16),
		Colors:           make([]uint8, 4),
		TreeIndices:      []uint32{1},
	}

	err := mi.Validate(3)
	require.Error(t, err)
	require.True(t, errors.IsType(err, ErrTypeMalformedBuffer))

	file := InstancedMeshFile{FileID: 2, Indices: make([]uint32, 3), Instances: []MeshInstance{mi}}
	require.True(t, errors.IsType(file.Validate(), ErrTypeMalformedBuffer))
}

func TestSharesStorageWithRequiresPlacements(t *testing.T) {
	require.False(t, MeshInstance{}.SharesStorageWith(MeshInstance{}))

	mi := MeshInstance{
		InstanceMatrices: make([]float32, 16),
		Colors:           make([]uint8, 4),
		TreeIndices:      []uint32{1},
	}
	require.True(t, mi.SharesStorageWith(mi))

	clone := mi
	clone.TreeIndices = []uint32{1}
	require.False(t, mi.SharesStorageWith(clone))
}
