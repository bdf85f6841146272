package adb

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"regexp"
	"strconv"
	"strings"
)

// ErrNodeNotFound is returned when no node in the UI tree matches
var ErrNodeNotFound = errors.New("ui node not found")

const uiDumpRemote = "/data/local/tmp/window_dump.xml"

var boundsPattern = regexp.MustCompile(`\[(-?\d+),(-?\d+)\]\[(-?\d+),(-?\d+)\]`)

// UINode is one element of a uiautomator dump
type UINode struct {
	Text        string   `xml:"text,attr"`
	ResourceID  string   `xml:"resource-id,attr"`
	Class       string   `xml:"class,attr"`
	Package     string   `xml:"package,attr"`
	ContentDesc string   `xml:"content-desc,attr"`
	Clickable   bool     `xml:"clickable,attr"`
	Bounds      string   `xml:"bounds,attr"`
	Nodes       []UINode `xml:"node"`
}

type uiHierarchy struct {
	XMLName xml.Name `xml:"hierarchy"`
	Nodes   []UINode `xml:"node"`
}

// Rect parses the "[x1,y1][x2,y2]" bounds attribute
func (n *UINode) Rect() (image.Rectangle, bool) {
	m := boundsPattern.FindStringSubmatch(n.Bounds)
	if m == nil {
		return image.Rectangle{}, false
	}
	v := make([]int, 4)
	for i := range v {
		v[i], _ = strconv.Atoi(m[i+1])
	}
	return image.Rect(v[0], v[1], v[2], v[3]), true
}

// Center returns the middle of the node's bounds
func (n *UINode) Center() (image.Point, bool) {
	r, ok := n.Rect()
	if !ok {
		return image.Point{}, false
	}
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2), true
}

// Query selects nodes by attribute
type Query struct {
	Text        string // exact text
	Contains    string // substring of text or content-desc
	ResourceID  string // full id or the part after ":id/"
	ContentDesc string
	Class       string
}

func (q Query) matches(n *UINode) bool {
	if q.Text != "" && n.Text != q.Text {
		return false
	}
	if q.Contains != "" && !strings.Contains(n.Text, q.Contains) && !strings.Contains(n.ContentDesc, q.Contains) {
		return false
	}
	if q.ResourceID != "" && n.ResourceID != q.ResourceID && !strings.HasSuffix(n.ResourceID, ":id/"+q.ResourceID) {
		return false
	}
	if q.ContentDesc != "" && n.ContentDesc != q.ContentDesc {
		return false
	}
	if q.Class != "" && n.Class != q.Class {
		return false
	}
	return q != Query{}
}

// Find walks the tree depth-first and returns the first matching node
func (n *UINode) Find(q Query) (*UINode, bool) {
	if q.matches(n) {
		return n, true
	}
	for i := range n.Nodes {
		if found, ok := n.Nodes[i].Find(q); ok {
			return found, true
		}
	}
	return nil, false
}

// ParseUIDump parses uiautomator XML, tolerating noise around the document
func ParseUIDump(raw string) (*UINode, error) {
	if start := strings.Index(raw, "<?xml"); start > 0 {
		raw = raw[start:]
	} else if start := strings.Index(raw, "<hierarchy"); start > 0 {
		raw = raw[start:]
	}
	if end := strings.LastIndex(raw, ">"); end != -1 {
		raw = raw[:end+1]
	}

	var h uiHierarchy
	if err := xml.Unmarshal([]byte(raw), &h); err != nil {
		return nil, fmt.Errorf("failed to parse UI dump: %w", err)
	}
	if len(h.Nodes) == 1 {
		return &h.Nodes[0], nil
	}
	return &UINode{Class: "hierarchy", Nodes: h.Nodes}, nil
}

// DumpUI runs uiautomator and parses the resulting tree
func (c *Controller) DumpUI(ctx context.Context) (*UINode, error) {
	output, err := c.Shell(ctx, fmt.Sprintf("uiautomator dump %s && cat %s", uiDumpRemote, uiDumpRemote))
	if err != nil {
		return nil, fmt.Errorf("ui dump failed: %w", err)
	}
	return ParseUIDump(output)
}

// FindNode dumps the UI and returns the first node matching q
func (c *Controller) FindNode(ctx context.Context, q Query) (*UINode, error) {
	root, err := c.DumpUI(ctx)
	if err != nil {
		return nil, err
	}
	node, ok := root.Find(q)
	if !ok {
		return nil, ErrNodeNotFound
	}
	return node, nil
}
