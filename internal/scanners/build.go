package scanners

import (
	"github.com/Aman-CERP/typemap/internal/config"
	"github.com/Aman-CERP/typemap/internal/errors"
	"github.com/Aman-CERP/typemap/internal/metadata"
)

// ByName creates the scanner registered under a configuration name.
func ByName(name string, ex metadata.Extractor, excludeObject bool) (Scanner, error) {
	switch name {
	case config.ScannerSubTypes:
		return NewSubTypesScanner(ex, excludeObject), nil
	case config.ScannerTypeTags:
		return NewTypeTagsScanner(ex), nil
	case config.ScannerMethodTags:
		return NewMethodTagsScanner(ex), nil
	case config.ScannerFieldTags:
		return NewFieldTagsScanner(ex), nil
	case config.ScannerMethodParams:
		return NewMethodParameterScanner(ex), nil
	case config.ScannerTypeKinds:
		return NewTypeKindsScanner(ex), nil
	case config.ScannerResources:
		return NewResourcesScanner(ex), nil
	}
	return nil, errors.ConfigError("unknown scanner "+name, nil).WithDetail("scanner", name)
}

// FromConfig creates the scanners enabled in cfg, sharing one extractor.
func FromConfig(cfg *config.Config, ex metadata.Extractor) ([]Scanner, error) {
	if ex == nil {
		ex = metadata.Default()
	}
	out := make([]Scanner, 0, len(cfg.Scanners))
	for _, name := range cfg.Scanners {
		s, err := ByName(name, ex, cfg.SubTypes.ExcludeObject)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
