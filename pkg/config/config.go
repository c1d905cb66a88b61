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
	// ErrParsing is returned when environment variables cannot be
	// parsed into the config struct.
	ErrParsing = errors.New("config.errors.parsing_failed")
	// ErrNilPointer is returned when Load receives a nil pointer.
	ErrNilPointer = errors.New("config.errors.nil_pointer")
)

var (
	mu     sync.Mutex
	cache  = make(map[string]any)
	dotenv sync.Once
)

// Load parses environment variables into v based on its env tags. The
// first call loads the .env file if one exists; each config type is
// parsed once per process and cached, so packages can call Load for
// their own config without coordinating.
//
//	type BreakerConfig struct {
//		Threshold int `env:"BREAKER_THRESHOLD" envDefault:"5"`
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	dotenv.Do(func() {
		// Missing .env is fine, real environments set variables directly.
		_ = godotenv.Load()
	})

	key := typeName[T]()

	mu.Lock()
	defer mu.Unlock()
	if cached, ok := cache[key]; ok {
		*v = cached.(T)
		return nil
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsing, err)
	}
	cache[key] = *v
	return nil
}

// MustLoad works like Load but panics on failure. For configuration
// the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: load %s: %v", typeName[T](), err))
	}
}

func typeName[T any]() string {
	var zero T
	if t := reflect.TypeOf(zero); t != nil {
		return t.String()
	}
	return fmt.Sprintf("%T", *new(T))
}
