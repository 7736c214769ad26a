package catalog

// RequestQueue is the FIFO of users waiting for the next free copy of a
// resource. Membership is unique: enqueueing a user already in the queue
// is a no-op.
type RequestQueue struct {
	waiting []string
}

func NewRequestQueue() *RequestQueue {
	return &RequestQueue{}
}

func ReconstructRequestQueue(waiting []string) *RequestQueue {
	q := &RequestQueue{}
	for _, u := range waiting {
		q.Enqueue(u)
	}
	return q
}

// Enqueue appends the user unless already present. Reports whether the
// queue changed.
func (q *RequestQueue) Enqueue(username string) bool {
	if q.Contains(username) {
		return false
	}
	q.waiting = append(q.waiting, username)
	return true
}

// Remove deletes the user wherever they sit in the queue. Reports
// whether the queue changed.
func (q *RequestQueue) Remove(username string) bool {
	for i, u := range q.waiting {
		if u == username {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			return true
		}
	}
	return false
}

// Pop removes and returns the front user.
func (q *RequestQueue) Pop() (string, bool) {
	if len(q.waiting) == 0 {
		return "", false
	}
	front := q.waiting[0]
	q.waiting = q.waiting[1:]
	return front, true
}

func (q *RequestQueue) Peek() (string, bool) {
	if len(q.waiting) == 0 {
		return "", false
	}
	return q.waiting[0], true
}

func (q *RequestQueue) Contains(username string) bool {
	for _, u := range q.waiting {
		if u == username {
			return true
		}
	}
	return false
}

func (q *RequestQueue) Len() int {
	return len(q.waiting)
}

func (q *RequestQueue) Usernames() []string {
	out := make([]string, len(q.waiting))
	copy(out, q.waiting)
	return out
}
