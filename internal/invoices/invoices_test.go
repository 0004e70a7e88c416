package invoices

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumberIsStablePerOrder(t *testing.T) {
	orderID := "9f86d081-8842-4c7e-9b5a-0a1b2c3d4e5f"
	assert.Equal(t, Number(orderID), Number(orderID))
}

func TestNumberShape(t *testing.T) {
	n := Number("9f86d081-8842-4c7e-9b5a-0a1b2c3d4e5f")
	assert.Len(t, n, 14)
	assert.Equal(t, "NF-9F86D081884", n)
}

func TestNumbersDifferAcrossOrders(t *testing.T) {
	a := Number("9f86d081-8842-4c7e-9b5a-0a1b2c3d4e5f")
	b := Number("1c3d4e5f-0a1b-4c7e-9b5a-9f86d0818842")
	assert.NotEqual(t, a, b)
}
