package redo

import (
	"fmt"
	"strings"
)

// Tab is a content category with its own run counter.
type Tab string

const (
	TabResearch Tab = "research"
	TabScripts  Tab = "scripts"
	TabBroll    Tab = "broll"
	TabPrompts  Tab = "prompts"
	TabArticle  Tab = "article"
	TabSimplify Tab = "simplify"
)

var allTabs = []Tab{TabResearch, TabScripts, TabBroll, TabPrompts, TabArticle, TabSimplify}

// Tabs returns every known tab.
func Tabs() []Tab {
	out := make([]Tab, len(allTabs))
	copy(out, allTabs)
	return out
}

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	switch t {
	case TabResearch, TabScripts, TabBroll, TabPrompts, TabArticle, TabSimplify:
		return true
	}
	return false
}

// ParseTab maps an external tab name onto a Tab.
func ParseTab(s string) (Tab, error) {
	t := Tab(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
	}
	return t, nil
}

// UnmarshalText accepts the names ParseTab accepts.
func (t *Tab) UnmarshalText(b []byte) error {
	v, err := ParseTab(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
