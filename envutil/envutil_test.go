package envutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetenvDefault(t *testing.T) {
	require.NoError(t, os.Unsetenv("CB_TEST_UNSET"))
	assert.Equal(t, "fallback", GetenvDefault("CB_TEST_UNSET", "fallback"))

	require.NoError(t, os.Setenv("CB_TEST_SET", "value"))
	defer os.Unsetenv("CB_TEST_SET")
	assert.Equal(t, "value", GetenvDefault("CB_TEST_SET", "fallback"))
}

func TestGetenvDefaultInt64(t *testing.T) {
	require.NoError(t, os.Unsetenv("CB_TEST_UNSET"))
	assert.EqualValues(t, 42, GetenvDefaultInt64("CB_TEST_UNSET", 42))

	require.NoError(t, os.Setenv("CB_TEST_SEED", "1980"))
	defer os.Unsetenv("CB_TEST_SEED")
	assert.EqualValues(t, 1980, GetenvDefaultInt64("CB_TEST_SEED", 42))
}

func TestGetenvList(t *testing.T) {
	require.NoError(t, os.Unsetenv("CB_TEST_UNSET"))
	assert.Nil(t, GetenvList("CB_TEST_UNSET"))

	require.NoError(t, os.Setenv("CB_TEST_LIST", "GunPoint, Coffee,,Wafer"))
	defer os.Unsetenv("CB_TEST_LIST")
	assert.Equal(t, []string{"GunPoint", "Coffee", "Wafer"}, GetenvList("CB_TEST_LIST"))
}
