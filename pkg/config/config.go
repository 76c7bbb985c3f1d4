// Package config loads env-tagged structs with github.com/caarlos0/env.
//
// A .env file in the working directory is applied once, before the first
// load, through github.com/joho/godotenv; real environment variables win.
// Each struct type is parsed at most once per process and cached, so
// packages can call Load for their own Config without coordinating.
// Types implementing Validator are checked after parsing.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	ErrParsingConfig = errors.New("failed to parse environment variables into config")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrNilPointer    = errors.New("nil pointer provided to config loader")
)

// Validator is implemented by configs with cross-field rules.
type Validator interface {
	Validate() error
}

type entry struct {
	once  sync.Once
	value any
	err   error
}

var (
	cache         sync.Map // reflect.Type -> *entry
	dotenvApplied sync.Once
)

// Load fills v from the environment. Subsequent calls for the same type
// return the cached result, including a cached error.
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	dotenvApplied.Do(func() {
		// A missing .env file is fine.
		_ = godotenv.Load()
	})

	key := reflect.TypeFor[T]()
	actual, _ := cache.LoadOrStore(key, &entry{})
	e := actual.(*entry)

	e.once.Do(func() {
		var cfg T
		cfg, e.err = Parse[T]()
		e.value = cfg
	})
	if e.err != nil {
		return e.err
	}
	*v = e.value.(T)
	return nil
}

// MustLoad works like Load but panics on failure. Use it in main only.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// Parse reads T from the environment without caching.
func Parse[T any]() (T, error) {
	var cfg T
	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Join(ErrParsingConfig, err)
	}
	if val, ok := any(&cfg).(Validator); ok {
		if err := val.Validate(); err != nil {
			return cfg, errors.Join(ErrInvalidConfig, err)
		}
	}
	return cfg, nil
}
