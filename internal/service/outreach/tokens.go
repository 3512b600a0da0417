package outreach

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

func encoding() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		enc, _ = tiktoken.GetEncoding("cl100k_base")
	})
	return enc
}

// truncateToBudget cuts a prompt to at most budget tokens. Without a usable
// encoder it falls back to the four-bytes-per-token rule of thumb.
func truncateToBudget(s string, budget int) string {
	if budget <= 0 {
		return s
	}
	e := encoding()
	if e == nil {
		max := budget * 4
		if len(s) <= max {
			return s
		}
		return s[:max]
	}
	tokens := e.Encode(s, nil, nil)
	if len(tokens) <= budget {
		return s
	}
	return e.Decode(tokens[:budget])
}
