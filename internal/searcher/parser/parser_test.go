package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

func newParser(t *testing.T, stop string) *Parser {
	t.Helper()
	p, err := NewFromText(stop)
	require.NoError(t, err)
	return p
}

func TestNewSkipsEmptyStopWords(t *testing.T) {
	p, err := New([]string{"", "and", "", "in"})
	require.NoError(t, err)
	assert.Equal(t, []string{"and", "in"}, p.StopWords())
	assert.False(t, p.IsStopWord(""))
}

func TestNewRejectsControlCharacters(t *testing.T) {
	_, err := New([]string{"and", "b\x02d"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)
}

func TestParse(t *testing.T) {
	p := newParser(t, "and in on")

	tests := []struct {
		name  string
		raw   string
		plus  []string
		minus []string
	}{
		{"empty", "", nil, nil},
		{"plus only", "fat cat", []string{"cat", "fat"}, nil},
		{"dedup and sort", "rat cat rat bat cat", []string{"bat", "cat", "rat"}, nil},
		{"minus", "cat -dog -dog", []string{"cat"}, []string{"dog"}},
		{"stop words dropped", "cat and dog in", []string{"cat", "dog"}, nil},
		{"minus stop word dropped", "cat -in", []string{"cat"}, nil},
		{"same word both lists", "cat -cat", []string{"cat"}, []string{"cat"}},
		{"inner hyphen is plain", "well-groomed", []string{"well-groomed"}, nil},
		{"trailing hyphen is plain", "dog-", []string{"dog-"}, nil},
		{"minus only", "-dog", nil, []string{"dog"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := p.Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.plus, q.Plus)
			assert.Equal(t, tt.minus, q.Minus)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	p := newParser(t, "and")
	for _, raw := range []string{
		"cat -",
		"--cat",
		"cat --dog",
		"ca\x12t",
		"-do\x01g",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := p.Parse(raw)
			assert.ErrorIs(t, err, apperrors.ErrInvalidQuery)
		})
	}
}

func TestContentWords(t *testing.T) {
	p := newParser(t, "in the")

	words, err := p.ContentWords("cat in the city cat")
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "city", "cat"}, words)

	words, err = p.ContentWords("in the")
	require.NoError(t, err)
	assert.Empty(t, words)

	_, err = p.ContentWords("good b\x1fad")
	assert.ErrorIs(t, err, apperrors.ErrInvalidWord)
}

func TestValidWord(t *testing.T) {
	assert.True(t, ValidWord("hello"))
	assert.True(t, ValidWord("héllo"))
	assert.True(t, ValidWord(""))
	assert.False(t, ValidWord("a\x00"))
	assert.False(t, ValidWord("\x1f"))
	assert.True(t, ValidWord("\x7f"))
}

func BenchmarkParse(b *testing.B) {
	p, _ := NewFromText("and in on with the of")
	raw := "funny pet and nasty rat -curly -hair with fancy collar"
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = p.Parse(raw)
	}
}
