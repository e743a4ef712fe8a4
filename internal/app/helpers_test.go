package app_test

import (
	"errors"
	"sync"

	"github.com/okris/Parley/internal/core"
	"github.com/okris/Parley/internal/domain"
)

// fakeUsers is a stub core.UserStore.
type fakeUsers map[domain.UserID]string

func (f fakeUsers) Exists(id domain.UserID) bool { _, ok := f[id]; return ok }
func (f fakeUsers) DisplayName(id domain.UserID) (string, bool) {
	name, ok := f[id]
	return name, ok
}

// fakeConn records delivered frames; set fail to simulate backpressure.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	fail   bool
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("backpressure")
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {}

func (f *fakeConn) Frames() []core.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Frame, len(f.frames))
	copy(out, f.frames)
	return out
}
