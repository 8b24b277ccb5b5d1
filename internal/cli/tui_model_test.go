package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/glorpus-work/tempfetch/pkg/errors"
	"github.com/glorpus-work/tempfetch/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newTestTUI(t *testing.T, initialURL, output string) (tuiModel, string) {
	t.Helper()
	cfg := testConfig(t)
	sink := newEventSink(true)
	t.Cleanup(sink.Close)
	sess, err := newSession(cfg, sink.Send)
	require.NoError(t, err)
	return newTUIModel(context.Background(), sess, sink.Events(), initialURL, output), cfg.Settings.DownloadDir
}

func TestTUI_InvalidURL(t *testing.T) {
	m, _ := newTestTUI(t, "not a url", "")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	model := next.(tuiModel)
	require.Error(t, model.err)
	assert.Contains(t, model.View(), "invalid URL format")
}

func TestTUI_DownloadDeliverCollect(t *testing.T) {
	payload := make([]byte, 100*1024)
	srv := testutil.NewTestServer(t, map[string]testutil.File{"/file.bin": {Data: payload}})
	dest := t.TempDir()

	m, dir := newTestTUI(t, srv.URL+"/file.bin", dest)
	tempPath := filepath.Join(dir, "file.bin")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m = next.(tuiModel)
	assert.True(t, m.state.Downloading)
	assert.False(t, m.input.Focused())

	next, _ = m.Update(cmd())
	m = next.(tuiModel)
	require.NotNil(t, m.state.Artifact)
	assert.Equal(t, tempPath, m.state.Artifact.Path)
	assert.Contains(t, m.View(), "Download completed successfully!")
	assert.Contains(t, m.View(), "100 KiB")

	next, cmd = m.Update(runeKey('d'))
	m = next.(tuiModel)
	require.NotNil(t, cmd)
	assert.True(t, m.delivering)

	next, cmd = m.Update(cmd())
	m = next.(tuiModel)
	require.NoError(t, m.err)
	assert.True(t, m.state.PendingDeletion)
	assert.FileExists(t, tempPath, "deletion waits for the next cycle")
	assert.FileExists(t, filepath.Join(dest, "file.bin"))

	next, _ = m.Update(cmd())
	m = next.(tuiModel)
	assert.NoFileExists(t, tempPath)
	assert.Nil(t, m.state.Artifact)
	assert.Contains(t, m.View(), "Temporary file deleted after download.")
}

func TestTUI_DeliverWithoutOutput(t *testing.T) {
	payload := []byte("small")
	srv := testutil.NewTestServer(t, map[string]testutil.File{"/f.txt": {Data: payload}})

	m, dir := newTestTUI(t, srv.URL+"/f.txt", "")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next, _ = next.Update(cmd())
	m = next.(tuiModel)

	next, cmd = m.Update(runeKey('d'))
	assert.Nil(t, cmd)
	assert.Contains(t, next.(tuiModel).err.Error(), "no destination")

	_, err := os.Stat(filepath.Join(dir, "f.txt"))
	assert.NoError(t, err)
}

func TestTUI_StopWhenIdle(t *testing.T) {
	m, _ := newTestTUI(t, "", "")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(tuiModel)
	assert.False(t, m.input.Focused())

	next, _ = m.Update(runeKey('s'))
	require.Error(t, next.(tuiModel).err)

	_, cmd := next.Update(runeKey('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestTUI_TypingIntoInput(t *testing.T) {
	m, _ := newTestTUI(t, "", "")

	for _, r := range "http://a.b/q" {
		next, _ := m.Update(runeKey(r))
		m = next.(tuiModel)
	}
	assert.Equal(t, "http://a.b/q", m.input.Value(), "letters bound to actions are typed while editing")
}

func TestTUI_StartRefusedWhileDelivering(t *testing.T) {
	srv := testutil.NewTestServer(t, map[string]testutil.File{
		"/a.bin": {Data: []byte("first")},
		"/b.bin": {Data: []byte("second")},
	})
	dest := t.TempDir()

	m, dir := newTestTUI(t, srv.URL+"/a.bin", dest)
	aPath := filepath.Join(dir, "a.bin")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next, _ = next.Update(cmd())
	m = next.(tuiModel)

	next, deliver := m.Update(runeKey('d'))
	m = next.(tuiModel)
	require.NotNil(t, deliver)
	require.True(t, m.delivering)

	// the hand-off of a.bin is still running
	m.input.SetValue(srv.URL + "/b.bin")
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(tuiModel)
	assert.Nil(t, cmd)
	assert.False(t, m.state.Downloading)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(tuiModel)
	assert.False(t, m.input.Focused())

	next, collect := m.Update(deliver())
	m = next.(tuiModel)
	require.NoError(t, m.err)
	next, _ = m.Update(collect())
	m = next.(tuiModel)

	assert.FileExists(t, filepath.Join(dest, "a.bin"))
	assert.NoFileExists(t, aPath)
	assert.NoFileExists(t, filepath.Join(dir, "b.bin"))
}

func TestTUI_LateDeliveryKeepsNewArtifact(t *testing.T) {
	srv := testutil.NewTestServer(t, map[string]testutil.File{
		"/a.bin": {Data: []byte("first")},
		"/b.bin": {Data: []byte("second")},
	})

	m, dir := newTestTUI(t, srv.URL+"/a.bin", t.TempDir())
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next, _ = next.Update(cmd())
	m = next.(tuiModel)

	m.input.SetValue(srv.URL + "/b.bin")
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	next, _ = next.Update(cmd())
	m = next.(tuiModel)
	bPath := filepath.Join(dir, "b.bin")
	require.NotNil(t, m.state.Artifact)
	require.Equal(t, bPath, m.state.Artifact.Path)

	// a delivery result for an artifact the session no longer holds
	next, cmd = m.Update(deliveredMsg{path: filepath.Join(dir, "a.bin"), bytes: 5})
	m = next.(tuiModel)
	assert.Nil(t, cmd)
	assert.ErrorIs(t, m.err, errors.ErrNoArtifact)
	assert.False(t, m.state.PendingDeletion)
	assert.FileExists(t, bPath)
}
