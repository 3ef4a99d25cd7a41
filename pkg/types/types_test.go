package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippingAddressRoundTrip(t *testing.T) {
	addr := ShippingAddress{Name: "Ada", Line1: "1 Loop Rd", City: "Austin", PostalCode: "78701", Country: "US"}
	require.NoError(t, addr.Validate())

	value, err := addr.Value()
	require.NoError(t, err)

	var decoded ShippingAddress
	require.NoError(t, decoded.Scan([]byte(value.(string))))
	assert.Equal(t, addr, decoded)
}

func TestShippingAddressValidateReportsMissingField(t *testing.T) {
	err := ShippingAddress{Line1: "1 Loop Rd", City: "Austin", Country: "US"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postal_code")
}

func TestJSONObjectNilAndScan(t *testing.T) {
	var empty JSONObject
	value, err := empty.Value()
	require.NoError(t, err)
	assert.Nil(t, value)

	var decoded JSONObject
	require.NoError(t, decoded.Scan(`{"status":"PAID","count":2}`))
	assert.Equal(t, "PAID", decoded["status"])
	assert.EqualValues(t, 2, decoded["count"])

	require.Error(t, decoded.Scan(42))
}
