package payload

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateMissingKeyListsPresentKeys(t *testing.T) {
	obj, err := Decode([]byte(`{
		"Meta Data": {},
		"Information": "please subscribe to a premium plan"
	}`))
	require.NoError(t, err)

	err = Validate(obj, Shape{
		Required: []string{"Time Series (Daily)"},
		Message:  []string{"Note", "Information"},
	})
	require.Error(t, err)

	var shape *ShapeError
	require.ErrorAs(t, err, &shape)
	require.Equal(t, []string{"Time Series (Daily)"}, shape.Missing)
	require.Equal(t, []string{"Information", "Meta Data"}, shape.Present)
	require.Contains(t, err.Error(), "Information")
	require.Contains(t, err.Error(), "Meta Data")
	require.Contains(t, err.Error(), "please subscribe to a premium plan")
}

func TestValidateOk(t *testing.T) {
	obj, err := Decode([]byte(`{"data": [1, 2, 3]}`))
	require.NoError(t, err)
	require.NoError(t, Validate(obj, Shape{Required: []string{"data"}}))
}

func TestDecodeNonObject(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	require.Error(t, err)
}

func TestCoerce(t *testing.T) {
	f, ok := Float("181.42")
	require.True(t, ok)
	require.Equal(t, 181.42, f)

	_, ok = Float("n/a")
	require.False(t, ok)

	n, ok := Int("1714608000")
	require.True(t, ok)
	require.Equal(t, int64(1714608000), n)

	d, ok := Day("2024-01-02")
	require.True(t, ok)
	require.Equal(t, 2, d.Day())

	_, ok = Day("01/02/2024")
	require.False(t, ok)
}
