package console

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatterPlain(t *testing.T) {
	f := Formatter{}
	assert.Equal(t, "TASK [setup]", f.Format(LevelInfo, "TASK [setup]"))
}

func TestFormatterColor(t *testing.T) {
	f := Formatter{Color: true}
	out := f.Format(LevelFail, "TASK [red]")

	assert.True(t, strings.HasPrefix(out, "\033[31m"), "%q", out)
	assert.Contains(t, out, "TASK [red]")
	assert.True(t, strings.HasSuffix(out, "\033[0m"), "%q", out)
}

func TestConsolePrefix(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, false).WithPrefix("Failover")
	c.Info("Start %s operation", "failover")
	c.Line(LevelPlain, "raw line")

	assert.Equal(t, "[Failover] Start failover operation\nraw line\n", buf.String())
}

func TestConsoleSerializesWrites(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, false)
	other := c.WithPrefix("x")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); c.Line(LevelPlain, "aaaaaaaaaa") }()
		go func() { defer wg.Done(); other.Line(LevelPlain, "bbbbbbbbbb") }()
	}
	wg.Wait()

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Contains(t, []string{"aaaaaaaaaa", "bbbbbbbbbb"}, line)
	}
}

func TestReaderPrompter(t *testing.T) {
	var out bytes.Buffer
	p := NewReaderPrompter(New(&out, false), strings.NewReader("\nengine.example.com\nhunter2\nYes\nnope\n"))

	answer, err := p.Ask("Site (default): ", "http://localhost:8080/ovirt-engine/api")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/ovirt-engine/api", answer)

	answer, err = p.Ask("Site: ", "")
	require.NoError(t, err)
	assert.Equal(t, "engine.example.com", answer)

	secret, err := p.AskSecret("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", secret)

	ok, err := p.Confirm("Delete? ")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Confirm("Delete? ")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = p.Ask("More? ", "")
	assert.Error(t, err)
}

func TestNonInteractive(t *testing.T) {
	var p Prompter = NonInteractive{}
	_, err := p.Ask("Site: ", "default")
	assert.ErrorIs(t, err, ErrNonInteractive)
	_, err = p.Confirm("Delete? ")
	assert.ErrorIs(t, err, ErrNonInteractive)
}

func TestIsYes(t *testing.T) {
	for _, a := range []string{"yes", "Y", "ye", " YES "} {
		assert.True(t, IsYes(a), a)
	}
	for _, a := range []string{"", "no", "n", "sure"} {
		assert.False(t, IsYes(a), a)
	}
}
