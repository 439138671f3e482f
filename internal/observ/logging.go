package observ

import (
	"encoding/json"
	"fmt"
	"time"
)

// Log emits a single structured JSON line to stdout. Callers pass the event
// name plus any key/value context; timestamp and event are always present.
func Log(event string, kv map[string]any) {
	if kv == nil {
		kv = map[string]any{}
	}
	kv["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	kv["event"] = event
	b, _ := json.Marshal(kv)
	fmt.Println(string(b))
}

// Warn logs an event at warning level. Used for per-unit degradations that
// the caller absorbs instead of propagating.
func Warn(event string, kv map[string]any) {
	if kv == nil {
		kv = map[string]any{}
	}
	kv["level"] = "warn"
	Log(event, kv)
}
