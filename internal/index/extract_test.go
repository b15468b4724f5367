package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEntries(t *testing.T) {
	body := []byte(`<h1 id="containers">Containers</h1>
<p>Intro</p>
<h2 id="smallvector">The <code>SmallVector</code>   class</h2>
<h3>No id</h3>
<h4 id="deep">Too deep</h4>
<pre class="m-code"><span class="mh">0x3bd267</span></pre>`)

	entries, err := ExtractEntries("api/containers.html", "Containers", body, []string{"array", "list"})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, Entry{
		Page: "api/containers.html", Title: "Containers", URL: "api/containers.html",
		Kind: KindPage, Keywords: "array list",
	}, entries[0])
	assert.Equal(t, "api/containers.html#containers", entries[1].URL)
	assert.Equal(t, "The SmallVector class", entries[2].Title)
	assert.Equal(t, KindSection, entries[2].Kind)
}

func TestFirstHeading(t *testing.T) {
	assert.Equal(t, "Getting started", FirstHeading([]byte("<p>x</p><h1 id=\"a\">Getting <em>started</em></h1>")))
	assert.Equal(t, "", FirstHeading([]byte("<p>none</p>")))
}
