// Package conversation drives a customer through the booking flow one inbound
// message at a time.
package conversation

import (
	"strconv"
	"strings"
)

// Step is a position in the booking flow.
type Step string

const (
	StepGreeting         Step = "greeting"
	StepMainMenu         Step = "main_menu"
	StepDataCollection   Step = "data_collection"
	StepCancelSearch     Step = "cancel_search"
	StepCancelSelect     Step = "cancel_select"
	StepStaffSelection   Step = "staff_selection"
	StepDateSelection    Step = "date_selection"
	StepTimeSelection    Step = "time_selection"
	StepServiceSelection Step = "service_selection"
	StepConfirmation     Step = "confirmation"
	StepModifyMenu       Step = "modify_menu"
)

// Steps lists every step the engine must be able to dispatch.
var Steps = []Step{
	StepGreeting,
	StepMainMenu,
	StepDataCollection,
	StepCancelSearch,
	StepCancelSelect,
	StepStaffSelection,
	StepDateSelection,
	StepTimeSelection,
	StepServiceSelection,
	StepConfirmation,
	StepModifyMenu,
}

// restartKeywords reset the conversation from any step.
var restartKeywords = map[string]struct{}{
	"hola":      {},
	"menu":      {},
	"menú":      {},
	"inicio":    {},
	"reiniciar": {},
}

// input is one inbound text as seen by a step handler.
type input struct {
	// raw is the trimmed text with its original casing, used for free text.
	raw string
	// normalized is raw lower-cased, used for keyword and option matching.
	normalized string
}

func newInput(text string) input {
	raw := strings.TrimSpace(text)
	return input{raw: raw, normalized: strings.ToLower(raw)}
}

func (in input) isRestart() bool {
	_, ok := restartKeywords[in.normalized]
	return ok
}

// choice is the result of reading input as a 1-based option number.
type choice struct {
	index int // 0-based
	valid bool
}

// choose parses the input as an option among n. Anything that is not an integer in
// [1, n] is invalid.
func (in input) choose(n int) choice {
	v, err := strconv.Atoi(strings.TrimSuffix(in.normalized, "."))
	if err != nil || v < 1 || v > n {
		return choice{}
	}
	return choice{index: v - 1, valid: true}
}
