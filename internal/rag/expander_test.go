package rag

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

const processQuery = "What is a process in an operating system?"

func TestExpandJSON(t *testing.T) {
	p := (&scriptedProvider{}).on("rephrasings", `{"queries": [
		"Define a process in OS terms.",
		"How does an operating system represent a running program?",
		"What distinguishes a process from a program?"
	]}`)

	got, err := NewExpander(p, "fast").Expand(context.Background(), processQuery, 3)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 4 || got[0] != processQuery {
		t.Fatalf("expected original plus 3 paraphrases, got %v", got)
	}
	if got[1] != "Define a process in OS terms." {
		t.Errorf("paraphrase order not preserved: %v", got)
	}
	if !strings.Contains(p.calls[0].Messages[0].Content, "Write 3 distinct rephrasings") {
		t.Error("prompt does not ask for the requested count")
	}
}

func TestExpandFallbackLines(t *testing.T) {
	reply := "Here you go:\n\n1. First rewrite\n- Second rewrite\n\n\"Third rewrite\"\n"
	p := (&scriptedProvider{}).on("rephrasings", reply)

	got, err := NewExpander(p, "fast").Expand(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := []string{"q", "Here you go:", "First rewrite", "Second rewrite", "Third rewrite"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExpandDedupPreservesOrder(t *testing.T) {
	got := dedupQueries("q", []string{"b", "q", "a", "b", "  ", "c", "d"}, 3)
	if want := []string{"q", "b", "a", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExpandBound(t *testing.T) {
	replies := []string{
		`{"queries": []}`,
		`{"queries": ["q", "q", "q"]}`,
		`{"queries": ["a", "b", "c", "d", "e", "f", "g"]}`,
		"a\nb\na\nq\n",
		"",
	}
	for _, reply := range replies {
		for count := 0; count <= 4; count++ {
			p := (&scriptedProvider{}).on("rephrasings", reply)
			got, err := NewExpander(p, "fast").Expand(context.Background(), "q", count)
			if err != nil {
				t.Fatalf("Expand: %v", err)
			}
			if len(got) < 1 || len(got) > count+1 {
				t.Errorf("reply %q count %d: %d entries", reply, count, len(got))
			}
			n := 0
			for _, g := range got {
				if g == "q" {
					n++
				}
			}
			if got[0] != "q" || n != 1 {
				t.Errorf("reply %q count %d: original must appear once and first, got %v", reply, count, got)
			}
		}
	}
}

func TestExpandZeroCountSkipsModel(t *testing.T) {
	p := &scriptedProvider{}
	got, err := NewExpander(p, "fast").Expand(context.Background(), "q", 0)
	if err != nil || !reflect.DeepEqual(got, []string{"q"}) {
		t.Fatalf("got %v, %v", got, err)
	}
	if len(p.calls) != 0 {
		t.Errorf("expected no model call, got %d", len(p.calls))
	}
}

func TestExpandErrorDegrades(t *testing.T) {
	p := (&scriptedProvider{}).fail("rephrasings", fmt.Errorf("connection refused"))
	got, err := NewExpander(p, "fast").Expand(context.Background(), "q", 3)
	if !errors.Is(err, ErrExpansion) {
		t.Fatalf("expected ErrExpansion, got %v", err)
	}
	if !reflect.DeepEqual(got, []string{"q"}) {
		t.Errorf("expected the original query alone, got %v", got)
	}
}
