package lock

// Held exposes the live key count to lock_test.
func (k *KeyedMutex) Held() int { return k.held() }
