package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectEmailWireForm(t *testing.T) {
	c, err := SelectEmail("abc123", ActionDelete)
	require.NoError(t, err)
	assert.Equal(t, "email_id:abc123 action_type:delete", c.String())
}

func TestWireForms(t *testing.T) {
	cat, err := Category("CATEGORY_PROMOTIONS")
	require.NoError(t, err)
	assert.Equal(t, "category:CATEGORY_PROMOTIONS", cat.String())

	reply, err := ReplyText("x", "Thanks, will do.")
	require.NoError(t, err)
	assert.Equal(t, "reply_text:x:Thanks, will do.", reply.String())

	assert.Equal(t, "Summarize Emails", Text("Summarize Emails").String())
}

func TestConstructorsRejectBadIDs(t *testing.T) {
	_, err := SelectEmail("abc 123", ActionRead)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = SelectEmail("abc123", "re-ad")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = Category("")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = ReplyText("a:b", "hi")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"email_id:abc123 action_type:delete", Command{Kind: KindSelectEmail, EmailID: "abc123", ActionType: "delete"}},
		{"email_id:18c2f_a-9", Command{Kind: KindSelectEmail, EmailID: "18c2f_a-9"}},
		{"category:SPAM", Command{Kind: KindCategory, CategoryID: "SPAM"}},
		{"reply_text:x:Thanks,\nwill do. ", Command{Kind: KindReplyText, EmailID: "x", Body: "Thanks,\nwill do."}},
		{"Daily Digest", Command{Kind: KindText, Text: "Daily Digest"}},
		{"reply_text:x:", Command{Kind: KindText, Text: "reply_text:x:"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	sel, _ := SelectEmail("m1", ActionSummarize)
	cat, _ := Category("IMPORTANT")
	rep, _ := ReplyText("m2", "See you at 5")
	for _, c := range []Command{sel, cat, rep, Text("hello")} {
		assert.Equal(t, c, Parse(c.String()))
	}
}
