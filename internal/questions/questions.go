package questions

import (
	"math/rand/v2"
)

// Question is a single interview prompt.
type Question struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

var bank = []Question{
	{ID: 1, Text: "Explain how a HashMap works."},
	{ID: 2, Text: "What is the difference between TCP and UDP?"},
	{ID: 3, Text: "Explain the concept of React Hooks."},
	{ID: 4, Text: "What happens when you type a URL into a browser?"},
	{ID: 5, Text: "Describe the difference between a Process and a Thread."},
	{ID: 6, Text: "What is the difference between '==' and '===' in JavaScript?"},
	{ID: 7, Text: "Explain the concept of RESTful APIs."},
	{ID: 8, Text: "What is the Virtual DOM in React?"},
	{ID: 9, Text: "Explain the concept of Closures in JavaScript."},
	{ID: 10, Text: "What is ACID property in Databases?"},
}

// All returns a copy of the question bank in id order.
func All() []Question {
	return append([]Question(nil), bank...)
}

// Len reports the size of the bank.
func Len() int { return len(bank) }

// ByID looks up a question by its identifier.
func ByID(id int) (Question, bool) {
	for _, q := range bank {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Picker draws questions uniformly at random with replacement, so the same
// question may come up twice in a row.
type Picker struct {
	items []Question
	intn  func(n int) int
}

// NewPicker returns a Picker over the built-in bank backed by the global
// random source.
func NewPicker() *Picker {
	return &Picker{items: bank, intn: rand.IntN}
}

// NewSeededPicker returns a deterministic Picker over the built-in bank.
func NewSeededPicker(seed uint64) *Picker {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return &Picker{items: bank, intn: r.IntN}
}

// NewListPicker picks from items, falling back to the built-in bank when
// items is empty.
func NewListPicker(items []Question) *Picker {
	if len(items) == 0 {
		return NewPicker()
	}
	return &Picker{items: append([]Question(nil), items...), intn: rand.IntN}
}

// Next returns a uniformly random question. Repeats are allowed.
func (p *Picker) Next() Question {
	return p.items[p.intn(len(p.items))]
}
