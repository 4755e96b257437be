package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailmate/internal/model"
)

func TestHTMLToText(t *testing.T) {
	in := `<html><head><style>p{color:red}</style><title>x</title></head>
<body><h1>Weekly update</h1>
<p>Hello   Ada,</p><p>Items:</p>
<ul><li>one</li><li>two</li></ul>
<p>Line one<br>Line two</p>
<script>alert(1)</script>
<p>See <a href="https://example.com/r">the report</a>.&nbsp;Thanks&#8203;!</p>
</body></html>`

	got, err := HTMLToText(in)
	require.NoError(t, err)
	assert.Equal(t, "Weekly update\n\nHello Ada,\n\nItems:\n\n- one\n- two\n\nLine one\nLine two\n\nSee the report (https://example.com/r). Thanks!", got)
	assert.NotContains(t, got, "alert")
	assert.NotContains(t, got, "color")
}

func TestHTMLToTextLinkTargetStaysLiteral(t *testing.T) {
	got, err := HTMLToText(`<p><a href="https://example.com/?q=1&amp;x=a&lt;b&gt;c">search</a></p>`)
	require.NoError(t, err)
	assert.Equal(t, "search (https://example.com/?q=1&x=a<b>c)", got)
}

func TestHTMLToTextEmpty(t *testing.T) {
	got, err := HTMLToText("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBody(t *testing.T) {
	assert.True(t, LooksLikeHTML(`<div>hi</div>`))
	assert.False(t, LooksLikeHTML("a < b and c > d"))

	assert.Equal(t, "plain\n\ntext", Body(model.EmailContent{Body: "  plain \n\n\n\n text  "}))
	assert.Equal(t, "hi", Body(model.EmailContent{Body: "<p>hi</p>"}))
}

func TestEmail(t *testing.T) {
	got := Email(model.EmailContent{From: "a@example.com", Subject: "Hi", Body: "<p>hey</p>"})
	assert.Equal(t, "From:    a@example.com\nSubject: Hi\n\nhey", got)
}

func TestSender(t *testing.T) {
	tests := []struct {
		in, name, addr string
	}{
		{`Ada Lovelace <Ada@Example.COM>`, "Ada Lovelace", "ada@example.com"},
		{`"Name" <user+news@Example.com>`, "Name", "user+news@example.com"},
		{`user@EXAMPLE.com`, "user@example.com", "user@example.com"},
		{`"A" <not-an-email> , "B" <c@D.com>`, "B", "c@d.com"},
		{`Unknown Sender`, "Unknown Sender", ""},
		{``, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.name, SenderName(tt.in))
			assert.Equal(t, tt.addr, SenderAddress(tt.in))
		})
	}
}
