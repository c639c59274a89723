package memory

import (
	"math"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// EntryOverhead is the per-entry token cost added on top of the text,
// approximating chat message framing.
const EntryOverhead = 4

// Counter estimates the token cost of a text.
type Counter interface {
	Count(text string) int
}

// EstimateCounter is the fallback when no tokenizer is available: a
// quarter token per ASCII rune and one token per other rune, rounded up.
type EstimateCounter struct{}

// Count estimates the tokens in text.
func (EstimateCounter) Count(text string) int {
	var ascii, other int
	for _, r := range text {
		if r < 128 {
			ascii++
		} else {
			other++
		}
	}
	return other + int(math.Ceil(float64(ascii)/4))
}

// TiktokenCounter counts with a BPE encoding.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// Count returns the number of BPE tokens in text.
func (c *TiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

var loaderOnce sync.Once

// NewCounter returns a tiktoken counter for encoding, using the embedded
// offline BPE ranks so no network access is needed. If the encoding cannot
// be loaded it returns EstimateCounter and the load error.
func NewCounter(encoding string) (Counter, error) {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return EstimateCounter{}, err
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Cost returns the budgeted cost of one entry.
func Cost(c Counter, e Entry) int {
	return c.Count(e.Text) + EntryOverhead
}
