package execution

import (
	"bytes"
	"sync"
)

// concurrentBuffer collects output written from the stdout and stderr copy
// goroutines of a command.
type concurrentBuffer struct {
	mutex sync.Mutex
	buf   bytes.Buffer
}

func (b *concurrentBuffer) Write(p []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.Write(p)
}

func (b *concurrentBuffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.String()
}
