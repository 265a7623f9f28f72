package localization

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguages(t *testing.T) {
	require.Len(t, Languages, 15)
	assert.Equal(t, "English", Languages[0].Name)
	assert.Equal(t, "Bhojpuri", Languages[len(Languages)-1].Name)

	seen := make(map[string]bool)
	for _, l := range Languages {
		assert.False(t, seen[l.Code], "duplicate code %s", l.Code)
		seen[l.Code] = true
	}
}

func TestLookup(t *testing.T) {
	l, ok := Lookup("hindi")
	require.True(t, ok)
	assert.Equal(t, "hi", l.Code)

	l, ok = Lookup(" TA ")
	require.True(t, ok)
	assert.Equal(t, "Tamil", l.Name)

	_, ok = Lookup("Klingon")
	assert.False(t, ok)
}

func TestLocalizer_Fallbacks(t *testing.T) {
	l, err := NewLocalizer(fstest.MapFS{
		"en.json":   {Data: []byte(`{"greet":"Hello","bye":"Bye"}`)},
		"hi.json":   {Data: []byte(`{"greet":"नमस्ते"}`)},
		"notes.txt": {Data: []byte("ignored")},
	})
	require.NoError(t, err)

	assert.Equal(t, "नमस्ते", l.GetString("hi", "greet"))
	assert.Equal(t, "नमस्ते", l.GetString("Hindi", "greet"))
	assert.Equal(t, "Bye", l.GetString("hi", "bye"))
	assert.Equal(t, "Hello", l.GetString("Tamil", "greet"))
	assert.Equal(t, "Hello", l.GetString("", "greet"))
	assert.Equal(t, "missing", l.GetString("en", "missing"))
}

func TestLocalizer_BadJSON(t *testing.T) {
	_, err := NewLocalizer(fstest.MapFS{"en.json": {Data: []byte(`{`)}})
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)

	assert.NotEqual(t, "welcome", l.GetString("en", "welcome"))
	assert.Equal(t, "Language updated to Hindi.", l.Format("English", "language_changed", "Hindi"))
	// Keys without a Hindi translation come from English.
	assert.Equal(t, l.GetString("en", "feed_line"), l.GetString("hi", "feed_line"))
}
