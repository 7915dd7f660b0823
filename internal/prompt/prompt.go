// Package prompt builds the extraction prompt sent to the model for one page.
package prompt

import (
	"fmt"

	"go.uber.org/zap"
)

// MaxContentChars caps how much page content reaches the model.
const MaxContentChars = 5000

const extractionTemplate = `
Analiza el siguiente contenido HTML y extrae los datos solicitados en el siguiente formato JSON.

Devuelve exclusivamente un JSON estructurado, como este ejemplo:
[
    {
        "Nombre": "string",
        "URL del perfil": "string",
        "Perfil": {
            "Email": "string"
        },
        "Publicaciones": [
            {
                "Título": "string",
                "Autores/as": "string",
                "Fecha de publicación": "string",
                "Resumen": "string"
            }
        ],
        "Proyectos": [],
        "Tesis": [],
        "Patentes": []
    }
]

No incluyas ningún texto adicional, ni explicaciones, ni comentarios, ni código, únicamente un JSON válido. Si no puedes extraer información relevante, devuelve exactamente esto: [].

Contenido HTML (limitado a %d caracteres):
%s
`

// Format truncates content to MaxContentChars and places it in the fixed
// extraction template.
func Format(content string) string {
	return fmt.Sprintf(extractionTemplate, MaxContentChars, Truncate(content, MaxContentChars))
}

// Truncate returns at most n characters of s without splitting a UTF-8
// sequence.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Builder prepares page content according to Mode and formats the prompt.
type Builder struct {
	Mode ContentMode
}

// Build returns the prompt for a page. pageURL is used to resolve relative
// links in the non-raw modes. If preparation fails the raw content is used.
func (b Builder) Build(content, pageURL string) string {
	prepared, err := Prepare(b.Mode, content, pageURL)
	if err != nil {
		zap.L().Warn("prompt: content preparation failed, using raw page",
			zap.String("mode", string(b.Mode)),
			zap.String("url", pageURL),
			zap.Error(err),
		)
		prepared = content
	}
	return Format(prepared)
}
