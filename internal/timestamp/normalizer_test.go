package timestamp

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saoPaulo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	return loc
}

func TestFromFormatted(t *testing.T) {
	n := NewNormalizer(time.UTC)

	tests := []struct {
		name    string
		input   string
		want    Key
		wantErr bool
	}{
		{name: "with offset", input: "12/Mar/2023:14:22:30 +0000", want: Key{2023, 3, 12, 14}},
		{name: "offset ignored", input: "01/Jan/2024:23:59:59 -0300", want: Key{2024, 1, 1, 23}},
		{name: "without offset", input: "21/Feb/2024:07:00:01", want: Key{2024, 2, 21, 7}},
		{name: "bad month", input: "12/Foo/2023:14:22:30 +0000", wantErr: true},
		{name: "day out of range", input: "31/Feb/2023:14:22:30 +0000", wantErr: true},
		{name: "hour out of range", input: "12/Mar/2023:25:22:30 +0000", wantErr: true},
		{name: "iso format", input: "2023-03-12T14:22:30Z", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.FromFormatted(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrDateParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromEpoch(t *testing.T) {
	n := NewNormalizer(saoPaulo(t))

	got, err := n.FromEpoch("1755473648")
	require.NoError(t, err)
	assert.Equal(t, Key{2025, 8, 17, 20}, got)

	assert.Equal(t, Key{2025, 8, 17, 20}, n.FromEpochSeconds(1755473648))

	utc := NewNormalizer(time.UTC)
	got, err = utc.FromEpoch(" 1755473648 ")
	require.NoError(t, err)
	assert.Equal(t, Key{2025, 8, 17, 23}, got)
}

func TestFromEpoch_Invalid(t *testing.T) {
	n := NewNormalizer(time.UTC)

	for _, input := range []string{"", "abc", "17554736.48", "1755473648x"} {
		_, err := n.FromEpoch(input)
		assert.ErrorIs(t, err, ErrInvalidTimestamp, "input %q", input)
	}
}

func TestNilNormalizerUsesLocal(t *testing.T) {
	var n *Normalizer
	want := KeyOf(time.Unix(0, 0).In(time.Local))
	assert.Equal(t, want, n.FromEpochSeconds(0))
}

func TestKeyText(t *testing.T) {
	k := Key{2024, 2, 21, 7}
	assert.Equal(t, "2024-02-21T07", k.String())
	assert.Equal(t, Date{2024, 2, 21}, k.Date())

	data, err := json.Marshal(map[Key]int{k: 3, {2024, 2, 20, 23}: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024-02-20T23":1,"2024-02-21T07":3}`, string(data))
}

func TestKeyBefore(t *testing.T) {
	assert.True(t, Key{2024, 2, 20, 23}.Before(Key{2024, 2, 21, 0}))
	assert.True(t, Key{2024, 2, 21, 0}.Before(Key{2024, 2, 21, 1}))
	assert.False(t, Key{2024, 2, 21, 1}.Before(Key{2024, 2, 21, 1}))
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2023-01-01")
	require.NoError(t, err)
	assert.Equal(t, Date{2023, 1, 1}, d)
	assert.Equal(t, Date{2022, 12, 27}, d.AddDays(-5))
	assert.Equal(t, Date{2023, 1, 6}, d.AddDays(5))
	assert.True(t, d.Before(Date{2023, 1, 2}))

	_, err = ParseDate("2023/01/01")
	assert.ErrorIs(t, err, ErrDateParse)
}
