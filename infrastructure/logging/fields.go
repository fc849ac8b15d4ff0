package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for request and extraction logging.

// RequestID adds a request ID field.
func RequestID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("request_id", id)
	}
}

// ClientIP adds a client IP field.
func ClientIP(ip string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("client_ip", ip)
	}
}

// Path adds a request path field.
func Path(p string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("path", p)
	}
}

// Status adds an HTTP status code field.
func Status(code int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("status", code)
	}
}

// CacheKey adds an abbreviated content-hash field. Only a prefix is logged;
// the full hash adds noise without aiding correlation.
func CacheKey(key string) Field {
	return func(e *bolt.Event) *bolt.Event {
		if len(key) > 8 {
			key = key[:8]
		}
		return e.Str("cache_key", key)
	}
}

// Cached adds a cached field.
func Cached(cached bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("cached", cached)
	}
}

// Remaining adds a remaining-quota field.
func Remaining(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("remaining", n)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// TextLength adds an extracted-text length field.
func TextLength(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("text_length", n)
	}
}

// Confidence adds a confidence field.
func Confidence(c float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Float64("confidence", c)
	}
}

// EngineName adds an OCR engine name field.
func EngineName(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("engine", name)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

// Int adds an int field with custom key.
func Int(key string, value int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, value)
	}
}
