// Package docs embeds the help topics of mcpt.
package docs

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed *.md
var docs embed.FS

// readme is the index topic, shown when no topic is requested.
const readme = "readme"

// GetTopic returns the markdown content of a topic. "*" returns all topics.
func GetTopic(topic string) (string, error) {
	if topic == "*" {
		return GetTopics("*")
	}
	content, err := docs.ReadFile(topic + ".md")
	if err != nil {
		topics, _ := GetAllTopics()
		return "", fmt.Errorf("topic %q not found, want one of %s", topic, strings.Join(topics, ", "))
	}
	return string(content), nil
}

// GetTopics returns the content of several topics, one after the other. "*"
// expands to every topic.
func GetTopics(topics ...string) (string, error) {
	var expanded []string
	for _, t := range topics {
		if t != "*" {
			expanded = append(expanded, t)
			continue
		}
		all, err := GetAllTopics()
		if err != nil {
			return "", err
		}
		expanded = append(expanded, all...)
	}

	var b strings.Builder
	for _, t := range expanded {
		content, err := GetTopic(t)
		if err != nil {
			return "", err
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// GetReadme returns the index topic.
func GetReadme() string {
	content, _ := docs.ReadFile(readme + ".md")
	return string(content)
}

// GetAllTopics returns the sorted names of all topics but the index.
func GetAllTopics() ([]string, error) {
	entries, err := fs.ReadDir(docs, ".")
	if err != nil {
		return nil, err
	}
	var topics []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		base := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		if base == readme {
			continue
		}
		topics = append(topics, base)
	}
	slices.Sort(topics)
	return topics, nil
}
