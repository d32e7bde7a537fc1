package dispatch

import (
	"encoding/json"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestResponseKeepsZeroRelevanceScore(t *testing.T) {
	data, err := json.Marshal(Response{
		Success:      true,
		FunctionName: "sysinfo.get_cpu_usage",
	})
	require.NoError(t, err)

	// A perfect-threshold miss still reports its score instead of
	// dropping the field from the payload.
	require.Contains(t, string(data), `"relevance_score":0`)
}

func TestTruncateRunesKeepsMultibyteIntact(t *testing.T) {
	s := "температура процессора выше нормы, проверьте вентилятор и радиатор, затем перезапустите мониторинг нагрузки"
	require.Greater(t, len(s), 100)

	out := truncateRunes(s, 100)
	require.NotEqual(t, s, out)
	require.True(t, utf8.ValidString(out))
	require.LessOrEqual(t, len([]rune(out)), 100)

	short := "cpu at 12%"
	require.Equal(t, short, truncateRunes(short, 100))
}
