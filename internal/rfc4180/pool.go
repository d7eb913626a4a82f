package rfc4180

import "sync"

// enginePool recycles engines between one-shot parses. The field buffer is
// the only allocation worth keeping; records are always handed to the caller.
var enginePool = sync.Pool{
	New: func() interface{} {
		return NewEngine(nil)
	},
}

// maxPooledField bounds the field buffer kept by a pooled engine, so one
// huge field does not pin memory forever.
const maxPooledField = 4096

// Acquire returns a reset engine from the pool configured with classifier c
// (nil selects DefaultClassifier).
func Acquire(c *Classifier) *Engine {
	e := enginePool.Get().(*Engine)
	e.Reset()
	if c == nil {
		c = defaultClassifier
	}
	e.class = c
	return e
}

// Release returns e to the pool. Records obtained from e remain valid, but e
// itself must not be used afterwards.
func Release(e *Engine) {
	if e == nil || cap(e.field) > maxPooledField {
		return
	}
	e.records = nil
	e.starts = nil
	enginePool.Put(e)
}

// ParseString parses a complete document held in memory with classifier c.
func ParseString(s string, c *Classifier) ([][]string, error) {
	e := Acquire(c)
	defer Release(e)

	if err := e.ProcessString(s); err != nil {
		return nil, err
	}
	if err := e.Finish(); err != nil {
		return nil, err
	}
	return e.Records(), nil
}

// ParseRunes parses a complete document given as characters.
func ParseRunes(src []rune, c *Classifier) ([][]string, error) {
	e := Acquire(c)
	defer Release(e)

	if err := e.Process(src); err != nil {
		return nil, err
	}
	if err := e.Finish(); err != nil {
		return nil, err
	}
	return e.Records(), nil
}
