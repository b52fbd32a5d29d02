package shutdown

import (
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"mindmap-server/internal/assets"
	"mindmap-server/internal/pkg/logger"
	"mindmap-server/internal/registry"
	"mindmap-server/internal/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSaver struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSaver) SaveMindmap() registry.SaveReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return registry.SaveReport{Saved: 1}
}

func TestWaitPersistsOnceAndExits(t *testing.T) {
	saver := &countingSaver{}
	signals := make(chan os.Signal, 2)
	exits := make(chan int, 2)
	hooked := 0

	w := NewWatcher(saver, logger.NewNopLogger(),
		WithSignals(signals),
		WithExit(func(code int) { exits <- code }),
		WithHook(func() { hooked++ }),
	)

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()

	signals <- syscall.SIGINT
	select {
	case code := <-exits:
		assert.Equal(t, ExitCode, code)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not exit")
	}
	<-done

	w.Shutdown(syscall.SIGTERM)
	assert.Equal(t, 1, saver.calls)
	assert.Equal(t, 1, hooked)
	assert.Equal(t, ExitCode, <-exits)
}

func TestShutdownWritesDirtyMaps(t *testing.T) {
	out := t.TempDir()
	renderer := render.NewRenderer(assets.Page, "", "", "127.0.0.1:8081", "en")
	reg := registry.New(out, renderer, logger.NewNopLogger())
	label := "Foo"
	reg.UpdateLoadedMindmap("x", `{"nodeData":{"id":"r","topic":"hi"}}`, nil)
	reg.UpdateLoadedMindmap("y", `{}`, &label)

	var code int
	w := NewWatcher(reg, logger.NewNopLogger(), WithSignals(make(chan os.Signal)), WithExit(func(c int) { code = c }))
	w.Shutdown(os.Interrupt)

	assert.Equal(t, 1, code)
	for _, f := range []string{"x/x.json", "x/x.html", "y/y.json", "y/y.html", "y/y.txt"} {
		assert.FileExists(t, filepath.Join(out, filepath.FromSlash(f)))
	}
	data, err := os.ReadFile(filepath.Join(out, "y", "y.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Foo", string(data))
	assert.NoFileExists(t, filepath.Join(out, "x", "x.txt"))
}

func TestSignalsCoverInterruptAndTerminate(t *testing.T) {
	assert.Contains(t, Signals, os.Interrupt)
	assert.Contains(t, Signals, os.Signal(syscall.SIGTERM))
}
