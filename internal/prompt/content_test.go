package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const directoryPage = `<!DOCTYPE html>
<html>
<head><title>Investigadores</title><style>body { color: red; }</style></head>
<body>
  <nav><a href="/home">Inicio</a></nav>
  <script>window.tracker = "abc";</script>
  <table>
    <tr><td><a href="/cris/rp/rp00123">Pérez   Santana,	  María</a></td><td>Departamento de Física</td></tr>
    <tr><td><a href="https://other.example/p/9">López, Juan</a></td></tr>
  </table>
  <footer>© Universidad</footer>
</body>
</html>`

func TestParseContentMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ContentMode
		wantErr bool
	}{
		{"", ContentRaw, false},
		{"raw", ContentRaw, false},
		{" Text ", ContentText, false},
		{"markdown", ContentMarkdown, false},
		{"ARTICLE", ContentArticle, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseContentMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestPrepare_Raw(t *testing.T) {
	got, err := Prepare(ContentRaw, directoryPage, "")
	require.NoError(t, err)
	assert.Equal(t, directoryPage, got)
}

func TestPrepare_Text(t *testing.T) {
	got, err := Prepare(ContentText, directoryPage, "https://d.example/simple-search?start=0")
	require.NoError(t, err)

	assert.Contains(t, got, "Pérez Santana, María (https://d.example/cris/rp/rp00123)")
	assert.Contains(t, got, "López, Juan (https://other.example/p/9)")
	assert.Contains(t, got, "Departamento de Física")
	assert.NotContains(t, got, "tracker")
	assert.NotContains(t, got, "color: red")
	assert.NotContains(t, got, "Inicio")
	assert.NotContains(t, got, "Universidad")
	for _, line := range strings.Split(got, "\n") {
		assert.NotEmpty(t, line)
		assert.Equal(t, strings.TrimSpace(line), line)
	}
}

func TestPrepare_TextWithoutBaseKeepsRelativeLinks(t *testing.T) {
	got, err := Prepare(ContentText, `<p><a href="/cris/rp/1">Ana</a></p>`, "")
	require.NoError(t, err)
	assert.Equal(t, "Ana (/cris/rp/1)", got)
}

func TestPrepare_Markdown(t *testing.T) {
	page := `<html><body><h1>Investigadores</h1><p><a href="/cris/rp/1">Ana</a></p></body></html>`

	got, err := Prepare(ContentMarkdown, page, "https://d.example/search")
	require.NoError(t, err)
	assert.Contains(t, got, "# Investigadores")
	assert.Contains(t, got, "[Ana](https://d.example/cris/rp/1)")
}

func TestPrepare_Article(t *testing.T) {
	body := strings.Repeat("<p>La investigadora María Pérez trabaja en física de materiales y publica con regularidad en revistas internacionales.</p>", 8)
	page := `<html><head><title>Perfil</title></head><body><nav>menu</nav><article>` + body + `</article></body></html>`

	got, err := Prepare(ContentArticle, page, "https://d.example/cris/rp/1")
	require.NoError(t, err)
	assert.Contains(t, got, "María Pérez")
	assert.NotContains(t, got, "<p>")
}

func TestPrepare_UnknownMode(t *testing.T) {
	_, err := Prepare("pdf", directoryPage, "")
	assert.Error(t, err)
}

func TestCollapseLines(t *testing.T) {
	assert.Equal(t, "a b\nc", collapseLines("  a \t  b \n\n   \n c  "))
	assert.Equal(t, "", collapseLines(""))
}
