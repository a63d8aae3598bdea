package logger

// reset discards the logger so the next Init rebuilds it.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
}
