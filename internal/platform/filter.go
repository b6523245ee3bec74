package platform

// IgnoreFunc reports whether a window should be excluded from enumeration.
type IgnoreFunc func(process, class string) bool

// FilteredBackend wraps a backend and drops windows the ignore function
// rejects. Topology and MoveResize pass through untouched, so a restore can
// still move a window that was saved before it was added to the ignore list.
type FilteredBackend struct {
	Backend
	ignore IgnoreFunc
}

// NewFilteredBackend wraps backend with an ignore filter. A nil ignore
// function returns the backend unchanged.
func NewFilteredBackend(backend Backend, ignore IgnoreFunc) Backend {
	if ignore == nil {
		return backend
	}
	return &FilteredBackend{Backend: backend, ignore: ignore}
}

func (f *FilteredBackend) ListWindows() ([]Window, error) {
	windows, err := f.Backend.ListWindows()
	if err != nil {
		return nil, err
	}
	kept := make([]Window, 0, len(windows))
	for _, w := range windows {
		if f.ignore(w.Process, w.Class) {
			continue
		}
		kept = append(kept, w)
	}
	return kept, nil
}
