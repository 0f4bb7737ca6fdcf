// Package docs embeds the rulebook topics.
package docs

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed *.md
var docs embed.FS

// Readme is the topic listing every other topic.
const Readme = "readme"

// Topic is an entry of the rulebook index.
type Topic struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

var indexLine = regexp.MustCompile(`^\*\s+([^:]+):\s*(.*)$`)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// GetTopic returns the markdown of a topic. "*" returns every topic.
func GetTopic(topic string) (string, error) {
	if topic == "*" {
		topics, err := GetAllTopics()
		if err != nil {
			return "", err
		}
		return GetTopics(topics...)
	}
	if topic == "" || strings.ContainsAny(topic, "/\\.") {
		return "", fmt.Errorf("topic %q not found: %w", topic, fs.ErrNotExist)
	}
	content, err := docs.ReadFile(topic + ".md")
	if err != nil {
		return "", fmt.Errorf("topic %q not found: %w", topic, err)
	}
	return string(content), nil
}

// GetTopics concatenates topics, expanding "*".
func GetTopics(topics ...string) (string, error) {
	var b bytes.Buffer
	for _, topic := range topics {
		content, err := GetTopic(topic)
		if err != nil {
			return "", err
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// GetAllTopics returns the sorted names of every topic but the readme.
func GetAllTopics() ([]string, error) {
	entries, err := fs.ReadDir(docs, ".")
	if err != nil {
		return nil, err
	}
	var topics []string
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".md" {
			continue
		}
		if name := strings.TrimSuffix(e.Name(), ".md"); name != Readme {
			topics = append(topics, name)
		}
	}
	slices.Sort(topics)
	return topics, nil
}

// Index returns the topics listed by the readme, in order.
func Index() ([]Topic, error) {
	content, err := GetTopic(Readme)
	if err != nil {
		return nil, err
	}
	var index []Topic
	sc := bufio.NewScanner(strings.NewReader(content))
	for sc.Scan() {
		if m := indexLine.FindStringSubmatch(sc.Text()); m != nil {
			index = append(index, Topic{Name: strings.TrimSpace(m[1]), Summary: strings.TrimSpace(m[2])})
		}
	}
	return index, sc.Err()
}

// HTML renders a topic to an HTML fragment.
func HTML(topic string) ([]byte, error) {
	content, err := GetTopic(topic)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	if err := markdown.Convert([]byte(content), &b); err != nil {
		return nil, fmt.Errorf("rendering topic %q: %w", topic, err)
	}
	return b.Bytes(), nil
}
