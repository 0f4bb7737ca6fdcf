package docs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func TestTopics(t *testing.T) {
	index, err := Index()
	if err != nil {
		t.Fatalf("Index() error: %v", err)
	}
	var listed []string
	for _, topic := range index {
		listed = append(listed, topic.Name)
		if topic.Summary == "" {
			t.Errorf("topic %q has no summary in readme.md", topic.Name)
		}
		if _, err := GetTopic(topic.Name); err != nil {
			t.Errorf("GetTopic(%q) error: %v", topic.Name, err)
		}
	}

	// every file on disk is listed by the readme.
	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatal(err)
	}
	var onDisk []string
	for _, f := range files {
		if name := strings.TrimSuffix(f, ".md"); name != Readme {
			onDisk = append(onDisk, name)
		}
	}
	slices.Sort(listed)
	if diff := cmp.Diff(onDisk, listed); diff != "" {
		t.Errorf("readme.md index mismatch (-disk +readme):\n%s", diff)
	}

	all, err := GetAllTopics()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(onDisk, all); diff != "" {
		t.Errorf("GetAllTopics() mismatch (-want +got):\n%s", diff)
	}
}

func TestGetTopicNotFound(t *testing.T) {
	for _, topic := range []string{"", "nope", "../go", "readme.md"} {
		if _, err := GetTopic(topic); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("GetTopic(%q) error = %v, want fs.ErrNotExist", topic, err)
		}
	}
}

func TestGetTopicsStar(t *testing.T) {
	got, err := GetTopics("*")
	if err != nil {
		t.Fatal(err)
	}
	for _, title := range []string{"# Trading rules", "# Dividend strategy", "# Data sources", "# Dividend import"} {
		if !strings.Contains(got, title) {
			t.Errorf("GetTopics(*) is missing %q", title)
		}
	}
	if strings.Contains(got, "# PSW rulebook") {
		t.Error("GetTopics(*) includes the readme")
	}
}

// Every topic starts with a single level 1 heading.
func TestTopicHeadings(t *testing.T) {
	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatal(err)
	}
	for _, file := range files {
		t.Run(file, func(t *testing.T) {
			content, err := os.ReadFile(file)
			if err != nil {
				t.Fatal(err)
			}
			root := goldmark.DefaultParser().Parse(text.NewReader(content))
			var titles int
			first := true
			err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
				h, ok := n.(*ast.Heading)
				if !entering || !ok {
					return ast.WalkContinue, nil
				}
				if first && h.Level != 1 {
					t.Errorf("first heading is level %d, want 1", h.Level)
				}
				first = false
				if h.Level == 1 {
					titles++
				}
				return ast.WalkSkipChildren, nil
			})
			if err != nil {
				t.Fatal(err)
			}
			if titles != 1 {
				t.Errorf("got %d level 1 headings, want 1", titles)
			}
		})
	}
}

func TestHTML(t *testing.T) {
	got, err := HTML("trading-rules")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<h1>Trading rules</h1>", "<table>", "<code>BUY</code>"} {
		if !strings.Contains(string(got), want) {
			t.Errorf("HTML(trading-rules) is missing %q", want)
		}
	}
}
