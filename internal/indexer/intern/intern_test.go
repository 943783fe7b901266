package intern

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternReturnsCanonicalStorage(t *testing.T) {
	p := New()
	text := "cat in the city cat"

	first := p.Intern(text[:3])
	second := p.Intern(text[16:])

	assert.Equal(t, "cat", first)
	assert.Same(t, unsafe.StringData(first), unsafe.StringData(second))
	assert.NotSame(t, unsafe.StringData(text), unsafe.StringData(first))
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, 3, p.Bytes())
}

func TestDistinctTermsAreStoredSeparately(t *testing.T) {
	p := New()
	cat := p.Intern("cat")
	dog := p.Intern("dog")
	again := p.Intern(string([]byte("cat")))

	assert.NotSame(t, unsafe.StringData(cat), unsafe.StringData(dog))
	assert.Same(t, unsafe.StringData(cat), unsafe.StringData(again))
	assert.Equal(t, 6, p.Bytes())
}

func TestLookup(t *testing.T) {
	p := New()
	_, ok := p.Lookup("dog")
	assert.False(t, ok)

	p.Intern("dog")
	term, ok := p.Lookup("dog")
	require.True(t, ok)
	assert.Equal(t, "dog", term)
}

func TestPoolIsAppendOnly(t *testing.T) {
	p := New()
	for _, w := range []string{"a", "b", "a", "c", "b"} {
		p.Intern(w)
	}
	assert.Equal(t, 3, p.Len())
}
