package vfs

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Aman-CERP/typemap/internal/errors"
)

// Registry resolves locators against an ordered list of drivers.
type Registry struct {
	mu      sync.RWMutex
	drivers []Driver
	logger  *slog.Logger
}

// NewRegistry creates a registry trying drivers in the given order.
func NewRegistry(drivers ...Driver) *Registry {
	return &Registry{drivers: append([]Driver(nil), drivers...)}
}

// WithLogger sets the logger used for skipped drivers.
func (r *Registry) WithLogger(l *slog.Logger) *Registry {
	r.logger = l
	return r
}

// Prepend puts drivers in front of the existing ones.
func (r *Registry) Prepend(drivers ...Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers = append(append([]Driver(nil), drivers...), r.drivers...)
}

// Append adds drivers after the existing ones.
func (r *Registry) Append(drivers ...Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers = append(r.drivers, drivers...)
}

// Drivers returns a copy of the driver list.
func (r *Registry) Drivers() []Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Driver(nil), r.drivers...)
}

// Open returns the container produced by the first driver that matches
// locator and opens it without error.
func (r *Registry) Open(locator string) (Container, error) {
	locator = NormalizeLocator(locator)
	logger := r.logger
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for _, d := range r.Drivers() {
		if !d.Matches(locator) {
			continue
		}
		c, err := d.Open(locator)
		if err != nil {
			logger.Debug("driver could not open locator",
				slog.String("driver", d.Name()),
				slog.String("locator", locator),
				slog.String("error", err.Error()))
			lastErr = err
			continue
		}
		if c != nil {
			return c, nil
		}
	}

	return nil, errors.New(errors.ErrCodeNoMatchingDriver,
		fmt.Sprintf("could not create container from %s", locator), lastErr).
		WithDetail("locator", locator).
		WithSuggestion("register a driver for this locator with vfs.AddDefaultDriver")
}

var (
	defaultMu      sync.RWMutex
	defaultDrivers = builtinDrivers()
)

func builtinDrivers() []Driver {
	return []Driver{
		NewNestedDriver(),
		NewZipDriver(),
		NewTarDriver(),
		NewDirDriver(DirOptions{}),
	}
}

// IsBuiltin reports whether d is one of the drivers this package ships.
func IsBuiltin(d Driver) bool {
	switch d.(type) {
	case *NestedDriver, *ZipDriver, *TarDriver, *DirDriver:
		return true
	}
	return false
}

// DefaultDrivers returns a copy of the process-wide driver list.
func DefaultDrivers() []Driver {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return append([]Driver(nil), defaultDrivers...)
}

// SetDefaultDrivers replaces the process-wide driver list. A nil list
// restores the built-in drivers.
func SetDefaultDrivers(drivers []Driver) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if drivers == nil {
		defaultDrivers = builtinDrivers()
		return
	}
	defaultDrivers = append([]Driver(nil), drivers...)
}

// AddDefaultDriver puts d in front of the process-wide list so it takes
// precedence over the built-in drivers.
func AddDefaultDriver(d Driver) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultDrivers = append([]Driver{d}, defaultDrivers...)
}

// DefaultRegistry returns a registry over a snapshot of the default list.
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultDrivers()...)
}
