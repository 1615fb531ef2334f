package bot

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser("DailyPickBot")

	cases := []struct {
		text string
		cmd  string
		args []string
		ok   bool
	}{
		{"/pidor", "pidor", nil, true},
		{"  !PIDOR  ", "pidor", nil, true},
		{".pidorsend @bob 100", "pidorsend", []string{"@bob", "100"}, true},
		{"/pidor@DailyPickBot", "pidor", nil, true},
		{"/pidor@dailypickbot now", "pidor", []string{"now"}, true},
		{"/pidor@OtherBot", "", nil, false},
		{"pidor", "", nil, false},
		{"/", "", nil, false},
		{"/@DailyPickBot", "", nil, false},
		{"", "", nil, false},
	}
	for _, c := range cases {
		cmd, args, ok := p.ParseCommand(c.text)
		assert.Equal(t, c.ok, ok, c.text)
		assert.Equal(t, c.cmd, cmd, c.text)
		assert.Equal(t, c.args, args, c.text)
	}
}

func TestParseCommandWithoutBotName(t *testing.T) {
	p := NewCommandParser("")
	cmd, _, ok := p.ParseCommand("/pidorstats@AnyBot")
	assert.T(t, ok)
	assert.Equal(t, "pidorstats", cmd)
}
