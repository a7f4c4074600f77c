package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonFiniteValuesEncodeAsNull(t *testing.T) {
	path := Path{Handle: 2, Index: 7, Levels: Values{100.5, math.NaN(), math.Inf(-1), -99}}

	data, err := json.Marshal(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"handle":2,"index":7,"levels":[100.5,null,null,-99]}`, string(data))
}

func TestNilValuesEncodeAsNull(t *testing.T) {
	data, err := json.Marshal(MatrixResponse{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"factor":null}`, string(data))

	data, err = json.Marshal(MatrixResponse{Factor: []Values{{}, {1}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"factor":[[],[1]]}`, string(data))
}

func TestFloatEncoding(t *testing.T) {
	for _, tc := range []struct {
		in   float64
		want string
	}{
		{0.25, `{"value":0.25}`},
		{1e21, `{"value":1e+21}`},
		{math.NaN(), `{"value":null}`},
		{math.Inf(1), `{"value":null}`},
	} {
		data, err := json.Marshal(ValueResponse{Value: Float(tc.in)})
		require.NoError(t, err)
		assert.JSONEq(t, tc.want, string(data))
	}
}
