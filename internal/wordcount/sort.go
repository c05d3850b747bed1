package wordcount

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

type WordCount struct {
	Word  string
	Count int
}

// SortedWordCounts is ordered by Count descending, then Word ascending.
// It encodes as a JSON object whose keys keep the slice order.
type SortedWordCounts []WordCount

func Sort(counts WordCounts) SortedWordCounts {
	sorted := make(SortedWordCounts, 0, len(counts))
	for word, n := range counts {
		sorted = append(sorted, WordCount{Word: word, Count: n})
	}

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Word < sorted[j].Word
	})

	return sorted
}

// Top returns the n most frequent entries. A non-positive n returns everything.
func (s SortedWordCounts) Top(n int) SortedWordCounts {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[:n]
}

// Counts converts back into an unordered mapping.
func (s SortedWordCounts) Counts() WordCounts {
	counts := make(WordCounts, len(s))
	for _, wc := range s {
		counts[wc.Word] = wc.Count
	}
	return counts
}

func (s SortedWordCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, wc := range s {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(wc.Word)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(wc.Count))
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object in document order, keeping the key order
// a plain map would lose.
func (s *SortedWordCounts) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("word counts: expected object, got %v", tok)
	}

	out := SortedWordCounts{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}

		word, ok := tok.(string)
		if !ok {
			return fmt.Errorf("word counts: expected string key, got %v", tok)
		}

		var n int
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("word counts: value for %q: %w", word, err)
		}

		out = append(out, WordCount{Word: word, Count: n})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}
