package email

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// elementos que cortan línea al abrir y al cerrar.
var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Table: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Blockquote: true, atom.Hr: true,
}

// elementos cuyo contenido no es texto visible.
var hiddenTags = map[atom.Atom]bool{
	atom.Head: true, atom.Title: true, atom.Style: true, atom.Script: true,
}

// HTMLToText deriva la versión texto plano de un cuerpo HTML: descarta tags,
// decodifica entidades y conserva los saltos de bloque. Los links se
// anotan con su URL. La salida nunca contiene '<' ni '>'.
func HTMLToText(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var b strings.Builder

	hidden := 0
	href, linkStart := "", 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return tidy(b.String())

		case html.TextToken:
			if hidden > 0 {
				continue
			}
			b.WriteString(collapseSpaces(string(z.Text())))

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := atom.Lookup(name)
			switch {
			case hiddenTags[tag]:
				if tt == html.StartTagToken {
					hidden++
				}
			case tag == atom.Br:
				b.WriteByte('\n')
			case tag == atom.Td || tag == atom.Th:
				b.WriteByte(' ')
			case tag == atom.Li:
				b.WriteString("\n- ")
			case tag == atom.A:
				href, linkStart = attr(z, "href", hasAttr), b.Len()
			case blockTags[tag]:
				b.WriteByte('\n')
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := atom.Lookup(name)
			switch {
			case hiddenTags[tag]:
				if hidden > 0 {
					hidden--
				}
			case tag == atom.A:
				label := strings.TrimSpace(b.String()[linkStart:])
				if href != "" && !strings.HasPrefix(href, "#") && label != href {
					b.WriteString(" (" + href + ")")
				}
				href = ""
			case blockTags[tag]:
				b.WriteByte('\n')
			}
		}
	}
}

func attr(z *html.Tokenizer, key string, more bool) string {
	for more {
		var k, v []byte
		k, v, more = z.TagAttr()
		if string(k) == key {
			return strings.TrimSpace(string(v))
		}
	}
	return ""
}

// colapsa espacios internos pero conserva uno al borde para no pegar
// palabras entre tokens (ej: "Hola <b>mundo</b>").
func collapseSpaces(s string) string {
	if s == "" {
		return ""
	}
	f := strings.Join(strings.Fields(s), " ")
	if f == "" {
		return " "
	}
	if isSpace(s[0]) {
		f = " " + f
	}
	if isSpace(s[len(s)-1]) {
		f += " "
	}
	return f
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func tidy(s string) string {
	s = strings.NewReplacer("<", "", ">", "").Replace(s)

	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
