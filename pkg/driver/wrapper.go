package driver

import (
	"sync"

	"github.com/google/uuid"
	"github.com/reportscan/capture/pkg/io/video"
	"github.com/reportscan/capture/pkg/prop"
)

func wrapAdapter(a Adapter, info Info) Driver {
	if _, ok := a.(VideoRecorder); !ok {
		return nil
	}

	return &videoAdapterWrapper{
		adapterWrapper: &adapterWrapper{
			Adapter: a,
			id:      uuid.NewString(),
			info:    info,
			state:   StateClosed,
		},
	}
}

type adapterWrapper struct {
	Adapter
	id    string
	info  Info
	state State
	mu    sync.Mutex
}

func (w *adapterWrapper) ID() string {
	return w.id
}

func (w *adapterWrapper) Info() Info {
	return w.info
}

func (w *adapterWrapper) Status() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *adapterWrapper) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Update(StateOpened, w.Adapter.Open)
}

func (w *adapterWrapper) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		return nil
	}
	return w.state.Update(StateClosed, w.Adapter.Close)
}

// Properties returns nil until the driver is opened. Every property is stamped
// with the driver ID, and with the driver facing if the adapter doesn't know it.
func (w *adapterWrapper) Properties() []prop.Media {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		return nil
	}

	props := w.Adapter.Properties()
	for i := range props {
		props[i].DeviceID = w.id
		if props[i].FacingMode == prop.FacingModeUnknown {
			props[i].FacingMode = w.info.Facing
		}
	}
	return props
}

type videoAdapterWrapper struct {
	*adapterWrapper
}

// VideoRecord starts the adapter. On failure the adapter is closed so that the
// device isn't left claimed.
func (w *videoAdapterWrapper) VideoRecord(p prop.Media) (r video.Reader, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	err = w.state.Update(StateRunning, func() error {
		r, err = w.Adapter.(VideoRecorder).VideoRecord(p)
		return err
	})
	if err != nil && w.state != StateClosed {
		w.state.Update(StateClosed, w.Adapter.Close)
	}
	return
}
