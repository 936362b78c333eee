package mail

import (
	"bytes"
	"html/template"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedTemplatesRender(t *testing.T) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	require.NoError(t, err)

	data := templateData{Username: "alice", Link: "http://localhost:8000/api/auth/confirmed_email/tok"}

	for _, name := range []string{"verify_email.html", "reset_password.html"} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tmpl.ExecuteTemplate(&buf, name, data))
			assert.Contains(t, buf.String(), "alice")
			assert.Contains(t, buf.String(), data.Link)
		})
	}
}

func TestTemplatesEscapeUserContent(t *testing.T) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, "verify_email.html", templateData{
		Username: "<script>alert(1)</script>",
		Link:     "http://localhost:8000/x",
	}))
	assert.NotContains(t, buf.String(), "<script>")
}
