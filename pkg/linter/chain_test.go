package linter

import "testing"

func staticCmd(cmd string) CommandFunc {
	return func(Document, []string) string { return cmd }
}

func TestResolveStep_SkipsEmptySteps(t *testing.T) {
	var sawInput []string
	l := &Linter{
		Name: "chained",
		Chain: []ChainStep{
			{Command: staticCmd("")},
			{Command: func(doc Document, input []string) string {
				sawInput = input
				return "cmd2"
			}},
			{Command: staticCmd("cmd3")},
		},
	}

	res, ok := ResolveStep(l, 0, []string{"seed"}, Document{})
	if !ok {
		t.Fatal("expected a resolved step")
	}
	if res.Command != "cmd2" {
		t.Fatalf("command: got %q want cmd2", res.Command)
	}
	if res.Next != 2 {
		t.Fatalf("next index: got %d want 2", res.Next)
	}
	if sawInput != nil {
		t.Fatalf("input must reset to empty after a skipped step, got %v", sawInput)
	}
}

func TestResolveStep_ExhaustedChain(t *testing.T) {
	l := &Linter{
		Chain: []ChainStep{
			{Command: staticCmd("")},
			{Command: staticCmd("")},
		},
	}

	if _, ok := ResolveStep(l, 0, nil, Document{}); ok {
		t.Fatal("all-empty chain should resolve to no command")
	}
}

func TestResolveStep_OnlyFinalStepReadsDocument(t *testing.T) {
	l := &Linter{
		Read: ReadStdin,
		Chain: []ChainStep{
			{Command: staticCmd("first")},
			{Command: staticCmd("last")},
		},
	}

	first, ok := ResolveStep(l, 0, nil, Document{})
	if !ok || first.Read != ReadNone {
		t.Fatalf("non-final step should not read the document, got %v", first.Read)
	}

	last, ok := ResolveStep(l, 1, []string{"out"}, Document{})
	if !ok || last.Read != ReadStdin {
		t.Fatalf("final step should use the linter read policy, got %v", last.Read)
	}
}

func TestResolveStep_StepOverrides(t *testing.T) {
	stderrOnly := StreamStderr
	readNone := ReadNone
	l := &Linter{
		Stream: StreamStdout,
		Read:   ReadStdin,
		Chain: []ChainStep{
			{Command: staticCmd("only"), Stream: &stderrOnly, Read: &readNone},
		},
	}

	res, ok := ResolveStep(l, 0, nil, Document{})
	if !ok {
		t.Fatal("expected a resolved step")
	}
	if res.Stream != StreamStderr {
		t.Fatalf("stream override lost: %v", res.Stream)
	}
	if res.Read != ReadNone {
		t.Fatalf("read override lost: %v", res.Read)
	}
}

func TestResolveStep_SingleCommandIsOneStepChain(t *testing.T) {
	l := &Linter{
		Command: staticCmd("%e --check"),
		Stream:  StreamStdout,
		Read:    ReadTempFile,
	}

	res, ok := ResolveStep(l, 0, nil, Document{})
	if !ok {
		t.Fatal("expected a resolved step")
	}
	if res.Command != "%e --check" || res.Next != 1 {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	if res.Read != ReadTempFile || res.Stream != StreamStdout {
		t.Fatalf("policies not carried: %+v", res)
	}
}
