package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata_KeepsUnknownFields(t *testing.T) {
	input := `{
		"contract": "0xabc",
		"name": "Snappy",
		"description": "demo",
		"image": "https://img.example.com/a.png",
		"website": "https://snappy.example.com",
		"network": "mainnet",
		"abi": [{"type": "function", "name": "mint"}],
		"chain_id": 1
	}`

	var m Metadata
	require.NoError(t, json.Unmarshal([]byte(input), &m))
	assert.Equal(t, "0xabc", m.Contract)
	assert.Equal(t, "mainnet", m.Network)
	assert.JSONEq(t, `[{"type": "function", "name": "mint"}]`, string(m.ABI))
	require.Contains(t, m.Extra, "chain_id")
	assert.JSONEq(t, `1`, string(m.Extra["chain_id"]))

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
}

func TestMetadata_NoExtra(t *testing.T) {
	var m Metadata
	require.NoError(t, json.Unmarshal([]byte(`{"name": "x"}`), &m))
	assert.Nil(t, m.Extra)
	assert.Empty(t, m.ABI)
}

func TestMetadata_CloneSharesNothing(t *testing.T) {
	var m Metadata
	require.NoError(t, json.Unmarshal([]byte(`{"name": "x", "abi": [1], "chain": "base"}`), &m))

	cp := m.Clone()
	cp.ABI[1] = '2'
	cp.Extra["chain"][1] = 'B'
	cp.Extra["added"] = json.RawMessage(`true`)

	assert.JSONEq(t, `[1]`, string(m.ABI))
	assert.JSONEq(t, `"base"`, string(m.Extra["chain"]))
	assert.NotContains(t, m.Extra, "added")
	assert.Equal(t, "x", cp.Name)
}

func TestMetadata_CloneKeepsNilFields(t *testing.T) {
	cp := (&Metadata{Name: "x"}).Clone()
	assert.Nil(t, cp.ABI)
	assert.Nil(t, cp.Extra)
}

func TestTweetMatch_ElementNotSerialized(t *testing.T) {
	out, err := json.Marshal(TweetMatch{MatchedDomain: "trusted.io", URL: "https://trusted.io/x"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "Element")
	assert.Contains(t, string(out), `"matched_domain":"trusted.io"`)
}
