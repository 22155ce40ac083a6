package discovery

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePipedInstances(t *testing.T) {
	body := `[
		{"name":"stale","api_url":"https://stale.example/","up_to_date":false,"cdn":false,"registered":1},
		{"name":"blank","api_url":"   ","up_to_date":true},
		{"name":"one","api_url":"https://one.example","up_to_date":true,"locations":"DE","version":"2024"},
		{"name":"no flag","api_url":"https://noflag.example"},
		{"name":"dup","api_url":"https://one.example/","up_to_date":true},
		{"name":"stale two","api_url":"https://stale-two.example","up_to_date":false}
	]`

	urls, err := ParsePipedInstances([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://one.example",
		"https://noflag.example",
		"https://stale.example",
		"https://stale-two.example",
	}, urls)
}

func TestParsePipedInstances_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `[{"api_url": "https://x"`},
		{"not an array", `{"api_url":"https://x"}`},
		{"html error page", `<html>bad gateway</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePipedInstances([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, IsParseFailure(err))
		})
	}
}

func TestParsePipedInstances_Empty(t *testing.T) {
	urls, err := ParsePipedInstances([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestParseInvidiousInstances(t *testing.T) {
	body := `[
		["yewtu.be", {"type":"https","api":true}],
		"not-a-pair",
		[42, {}],
		["inv.nadeko.net", {"type":"https"}],
		["example.onion"],
		[]
	]`

	urls, err := ParseInvidiousInstances([]byte(body), 15)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://yewtu.be", "https://inv.nadeko.net", "https://example.onion"}, urls)
}

func TestParseInvidiousInstances_CapsResult(t *testing.T) {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < 40; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `["inv-%d.example", {}]`, i)
	}
	b.WriteString("]")

	urls, err := ParseInvidiousInstances([]byte(b.String()), 15)
	require.NoError(t, err)
	require.Len(t, urls, 15)
	assert.Equal(t, "https://inv-0.example", urls[0])
	assert.Equal(t, "https://inv-14.example", urls[14])
}

func TestParseInvidiousInstances_Errors(t *testing.T) {
	for _, body := range []string{`[["yewtu.be", {}`, `{"yewtu.be": {}}`, ``} {
		_, err := ParseInvidiousInstances([]byte(body), 15)
		assert.Error(t, err, body)
		assert.True(t, IsParseFailure(err), body)
	}
}
