package chunker

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter measures text in model tokens. The token strategy sizes
// chunks with it instead of character counts.
type TokenCounter interface {
	Count(text string) int
}

const defaultEncoding = "cl100k_base"

var (
	encoderMu    sync.Mutex
	encoderCache = map[string]*tiktoken.Tiktoken{}
)

// getEncoder returns a cached tiktoken encoding, falling back to
// cl100k_base when the named encoding is unknown.
func getEncoder(name string) (*tiktoken.Tiktoken, error) {
	if name == "" {
		name = defaultEncoding
	}
	encoderMu.Lock()
	defer encoderMu.Unlock()
	if enc, ok := encoderCache[name]; ok {
		return enc, nil
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil && name != defaultEncoding {
		name = defaultEncoding
		if cached, ok := encoderCache[name]; ok {
			return cached, nil
		}
		enc, err = tiktoken.GetEncoding(name)
	}
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", name, err)
	}
	encoderCache[name] = enc
	return enc, nil
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func newTiktokenCounter(encoding string) (*tiktokenCounter, error) {
	enc, err := getEncoder(encoding)
	if err != nil {
		return nil, err
	}
	return &tiktokenCounter{enc: enc}, nil
}

func (t *tiktokenCounter) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}
