package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "credo/pkg/domain-errors"
)

// Reference vectors from EIP-55.
var checksummed = []string{
	"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
	"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
	"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
}

func TestParseAddress_Checksum(t *testing.T) {
	for _, s := range checksummed {
		t.Run(s, func(t *testing.T) {
			a, err := ParseAddress(s)
			require.NoError(t, err)
			assert.Equal(t, s, a.String())
		})
	}

	t.Run("accepts all lowercase without checksum", func(t *testing.T) {
		a, err := ParseAddress(strings.ToLower(checksummed[0]))
		require.NoError(t, err)
		assert.Equal(t, checksummed[0], a.String())
	})

	t.Run("accepts all uppercase hex without checksum", func(t *testing.T) {
		a, err := ParseAddress("0x" + strings.ToUpper(checksummed[1][2:]))
		require.NoError(t, err)
		assert.Equal(t, checksummed[1], a.String())
	})

	t.Run("rejects a mixed-case address with a bad checksum", func(t *testing.T) {
		bad := "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
		_, err := ParseAddress(bad)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestParseAddress_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"missing prefix": "5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"too short":      "0x5aaeb6053f",
		"too long":       "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed00",
		"non hex":        "0xzzaeb6053f3e94c9b9a09f33669435e7ef1beaed",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAddress(input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestAddress_ZeroAndHex(t *testing.T) {
	assert.True(t, ZeroAddress.IsZero())
	assert.Equal(t, "0x0000000000000000000000000000000000000000", ZeroAddress.Hex())

	zero, err := ParseAddress("0x0000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	a := MustParseAddress(checksummed[2])
	assert.False(t, a.IsZero())
	assert.Equal(t, strings.ToLower(checksummed[2]), a.Hex())
}

func TestAddress_JSON(t *testing.T) {
	type payload struct {
		Subject Address `json:"subject"`
	}
	in := payload{Subject: MustParseAddress(checksummed[3])}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"subject":"`+checksummed[3]+`"}`, string(raw))

	var out payload
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)

	err = json.Unmarshal([]byte(`{"subject":"nope"}`), &out)
	require.Error(t, err)
}

func TestAddressFromBytes(t *testing.T) {
	a := MustParseAddress(checksummed[0])

	got, err := AddressFromBytes(a.Bytes())
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = AddressFromBytes([]byte{1, 2, 3})
	require.Error(t, err)
}
