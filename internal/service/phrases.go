package service

import "math/rand"

// PhrasePicker chooses one of several equivalent phrasings
type PhrasePicker interface {
	Pick(variants ...string) string
}

// RandomPicker picks a variant at random
type RandomPicker struct{}

// Pick implements PhrasePicker
func (RandomPicker) Pick(variants ...string) string {
	if len(variants) == 0 {
		return ""
	}
	return variants[rand.Intn(len(variants))]
}

// FirstPicker always picks the first variant
type FirstPicker struct{}

// Pick implements PhrasePicker
func (FirstPicker) Pick(variants ...string) string {
	if len(variants) == 0 {
		return ""
	}
	return variants[0]
}
