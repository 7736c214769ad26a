package catalog

import (
	"errors"
	"strings"
)

var (
	ErrInvalidResourceID = errors.New("resource ID cannot be empty")
	ErrEmptyTitle        = errors.New("resource title cannot be empty")
)

// Resource is a catalog entry owning an ordered collection of copies and
// one request queue. Copy numbers are assigned sequentially from 1.
type Resource struct {
	id     string
	title  string
	author string
	copies []*Copy
	queue  *RequestQueue
}

func NewResource(id, title, author string) (*Resource, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidResourceID
	}
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}
	return &Resource{
		id:     id,
		title:  title,
		author: author,
		queue:  NewRequestQueue(),
	}, nil
}

// ReconstructResource rebuilds a resource from its persisted form.
func ReconstructResource(id, title, author string, copies []*Copy, queue *RequestQueue) *Resource {
	if queue == nil {
		queue = NewRequestQueue()
	}
	r := &Resource{id: id, title: title, author: author, queue: queue}
	r.copies = append(r.copies, copies...)
	return r
}

func (r *Resource) ID() string     { return r.id }
func (r *Resource) Title() string  { return r.title }
func (r *Resource) Author() string { return r.author }

func (r *Resource) Queue() *RequestQueue {
	return r.queue
}

// AddCopy appends a new copy with the next sequential number.
func (r *Resource) AddCopy() *Copy {
	c := NewCopy(CopyKey{ResourceID: r.id, Number: len(r.copies) + 1})
	r.copies = append(r.copies, c)
	return c
}

func (r *Resource) Copy(number int) (*Copy, bool) {
	if number < 1 || number > len(r.copies) {
		return nil, false
	}
	return r.copies[number-1], true
}

func (r *Resource) Copies() []*Copy {
	out := make([]*Copy, len(r.copies))
	copy(out, r.copies)
	return out
}

// FreeCopy returns the lowest-numbered available copy.
func (r *Resource) FreeCopy() (*Copy, bool) {
	for _, c := range r.copies {
		if c.IsAvailable() {
			return c, true
		}
	}
	return nil, false
}
