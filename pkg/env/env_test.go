package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTrimsAndFallsBack(t *testing.T) {
	t.Setenv("BAKERY_TEST_VALUE", "  console ")
	assert.Equal(t, "console", Get("BAKERY_TEST_VALUE", "json"))

	t.Setenv("BAKERY_TEST_VALUE", "   ")
	assert.Equal(t, "json", Get("BAKERY_TEST_VALUE", "json"))
}

func TestFirstSkipsBlankKeys(t *testing.T) {
	t.Setenv("BAKERY_TEST_A", "")
	t.Setenv("BAKERY_TEST_B", "web.1")
	assert.Equal(t, "web.1", First("BAKERY_TEST_A", "BAKERY_TEST_B"))
	assert.Empty(t, First("BAKERY_TEST_A"))
}

func TestBool(t *testing.T) {
	t.Setenv("BAKERY_TEST_FLAG", "true")
	assert.True(t, Bool("BAKERY_TEST_FLAG", false))

	t.Setenv("BAKERY_TEST_FLAG", "nope")
	assert.True(t, Bool("BAKERY_TEST_FLAG", true))

	t.Setenv("BAKERY_TEST_FLAG", "")
	assert.False(t, Bool("BAKERY_TEST_FLAG", false))
}
