package resume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name, contentType string
		want              Format
	}{
		{"cv.TXT", "", FormatText},
		{"cv.pdf", "application/octet-stream", FormatPDF},
		{"cv.docx", "", FormatDOCX},
		{"cv.html", "", FormatHTML},
		{"upload", "text/html; charset=utf-8", FormatHTML},
		{"upload", mimeDOCX, FormatDOCX},
	}
	for _, tc := range cases {
		got, err := DetectFormat(tc.name, tc.contentType)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}

	_, err := DetectFormat("photo.png", "image/png")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestExtract_PlainText(t *testing.T) {
	text, err := Extract("cv.txt", "", []byte("  Jane   Doe \r\n\r\nSeeking:  Senior PM roles\n"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nSeeking: Senior PM roles", text)

	_, err = Extract("cv.txt", "", []byte{0xff, 0xfe, 0x00})
	assert.Error(t, err)
}

func TestExtract_HTML(t *testing.T) {
	page := `<html><head><title>CV</title><style>p{}</style></head>
<body><h1>Jane Doe</h1><script>track()</script><p>Agile &amp; Scrum</p><p>Seeking: PM roles</p></body></html>`

	text, err := Extract("cv.html", "", []byte(page))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nAgile & Scrum\nSeeking: PM roles", text)
}

func TestExtract_BrokenPDF(t *testing.T) {
	_, err := Extract("cv.pdf", "", []byte("definitely not a pdf"))
	assert.Error(t, err)
}

func TestWordXMLText(t *testing.T) {
	xml := `<w:document><w:body><w:p><w:r><w:t>Jane</w:t></w:r><w:r><w:tab/><w:t>Doe</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>R&amp;D lead</w:t></w:r></w:p></w:body></w:document>`
	assert.Equal(t, "Jane Doe\nR&D lead", Normalize(wordXMLText(xml)))
}
