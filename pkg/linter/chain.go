package linter

// Resolved is the outcome of advancing a command chain: the next command
// to run and the policies resolved for it.
type Resolved struct {
	// Command is the non-empty command for the step that was selected.
	Command string

	// Stream is the output-stream policy in effect for the step.
	Stream StreamPolicy

	// Read is the document read policy in effect for the step.
	Read ReadPolicy

	// Next is the chain index to resume from when this step's process
	// exits. Equal to len(Steps()) on the final step.
	Next int
}

// ResolveStep advances the linter's chain starting at index start.
//
// Each step's command function is evaluated with the given input. A
// non-empty command stops the scan and is returned along with the
// resolved policies and the index of the following step. An empty
// command skips the step: the scan advances with empty input, since the
// skipped step consumed (and discarded) it. When the chain is exhausted
// the second return value is false and the round is a no-op.
//
// Policy resolution: the step's Stream override, else the linter's
// default. The step's Read override, else the linter's Read policy on
// the final step and ReadNone on every earlier step.
func ResolveStep(l *Linter, start int, input []string, doc Document) (Resolved, bool) {
	steps := l.Steps()

	for i := start; i < len(steps); i++ {
		cmd := ""
		if steps[i].Command != nil {
			cmd = steps[i].Command(doc, input)
		}
		if cmd == "" {
			input = nil
			continue
		}

		stream := l.Stream
		if steps[i].Stream != nil {
			stream = *steps[i].Stream
		}

		read := ReadNone
		if i == len(steps)-1 {
			read = l.Read
		}
		if steps[i].Read != nil {
			read = *steps[i].Read
		}

		return Resolved{
			Command: cmd,
			Stream:  stream,
			Read:    read,
			Next:    i + 1,
		}, true
	}

	return Resolved{}, false
}
