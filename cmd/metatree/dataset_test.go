package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataset(t *testing.T) {
	in := strings.NewReader("x0,x1,c0,y\n1.5,2.0,0,10\n-0.5,3.5,1,20\n")
	ds, err := parseDataset(in, 2, 1, true)
	require.NoError(t, err)

	assert.Equal(t, 2, ds.n)
	assert.InDelta(t, 1.5, ds.xc.At(0, 0), 1e-12)
	assert.InDelta(t, 3.5, ds.xc.At(1, 1), 1e-12)
	assert.Equal(t, [][]int{{0}, {1}}, ds.xcat)
	assert.Equal(t, []float64{10, 20}, ds.y)
}

func TestParseDatasetWithoutHeader(t *testing.T) {
	in := strings.NewReader("1,2\n3,4\n")
	ds, err := parseDataset(in, 1, 0, true)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.n)
	assert.Equal(t, []float64{2, 4}, ds.y)
}

func TestParseDatasetWithoutTarget(t *testing.T) {
	in := strings.NewReader("1.0,2.0\n")
	ds, err := parseDataset(in, 2, 0, false)
	require.NoError(t, err)
	assert.Nil(t, ds.y)
	assert.InDelta(t, 2.0, ds.xc.At(0, 1), 1e-12)
}

func TestParseDatasetCategoricalOnly(t *testing.T) {
	in := strings.NewReader("0,1,5\n1,0,6\n")
	ds, err := parseDataset(in, 0, 2, true)
	require.NoError(t, err)
	assert.Nil(t, ds.xc)
	assert.Equal(t, [][]int{{0, 1}, {1, 0}}, ds.xcat)
}

func TestParseDatasetErrors(t *testing.T) {
	t.Run("wrong column count", func(t *testing.T) {
		_, err := parseDataset(strings.NewReader("1,2,3\n"), 1, 0, true)
		assert.Error(t, err)
	})
	t.Run("header only", func(t *testing.T) {
		_, err := parseDataset(strings.NewReader("x,y\n"), 1, 0, true)
		assert.Error(t, err)
	})
	t.Run("bad categorical value", func(t *testing.T) {
		_, err := parseDataset(strings.NewReader("1.0,1.5,3\n"), 1, 1, true)
		assert.Error(t, err)
	})
}
