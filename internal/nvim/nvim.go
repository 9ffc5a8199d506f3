package nvim

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neovim/go-client/nvim"
)

// ErrNoInstance is returned when no running Neovim can be located.
var ErrNoInstance = errors.New("no running neovim instance (NVIM_LISTEN_ADDRESS is not set)")

// Manager handles the connection and interaction with a Neovim instance.
type Manager struct {
	nvim *nvim.Nvim
}

// New connects to the Neovim listening on addr, or on $NVIM_LISTEN_ADDRESS when addr is empty.
// Unlike an editor integration it never starts an instance of its own: reloading is
// only useful for buffers someone is looking at.
func New(addr string) (*Manager, error) {
	if addr == "" {
		addr = os.Getenv("NVIM_LISTEN_ADDRESS")
	}
	if addr == "" {
		return nil, ErrNoInstance
	}
	v, err := nvim.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to neovim at %s: %w", addr, err)
	}
	return &Manager{nvim: v}, nil
}

// Close disconnects from Neovim.
func (m *Manager) Close() {
	if m.nvim != nil {
		m.nvim.Close()
	}
}

// processSequentially is a generic helper function to run a set of jobs sequentially.
func processSequentially[T any](
	items []T,
	processFn func(item T) (path string, success bool),
) (succeeded, failed []string) {
	for _, item := range items {
		path, success := processFn(item)
		if success {
			succeeded = append(succeeded, path)
		} else {
			failed = append(failed, path)
		}
	}
	return succeeded, failed
}

// ReloadBuffers runs :checktime on every loaded buffer showing one of paths so
// the editor picks up the new contents. Paths with no buffer are reported as skipped.
func (m *Manager) ReloadBuffers(paths []string) (reloaded, skipped []string) {
	return processSequentially(paths, func(path string) (string, bool) {
		return path, m.reloadBuffer(path)
	})
}

func (m *Manager) reloadBuffer(filePath string) bool {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return false
	}

	var bufnr int
	if err := m.nvim.Call("bufnr", &bufnr, absPath); err != nil || bufnr < 0 {
		return false
	}
	var loaded int
	if err := m.nvim.Call("bufloaded", &loaded, bufnr); err != nil || loaded == 0 {
		return false
	}
	return m.nvim.Command(fmt.Sprintf("checktime %d", bufnr)) == nil
}
