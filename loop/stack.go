package loop

import (
	"errors"
	"sync"
)

var ErrEmptyStack = errors.New("error: empty stack")

// Stack is a stack of block indices.
type Stack struct {
	sync.Mutex
	s []int
}

// NewStack creates a new Stack.
func NewStack() *Stack {
	return &Stack{s: []int{}}
}

// Push adds a block to the top of stack.
func (s *Stack) Push(i int) {
	s.Lock()
	defer s.Unlock()
	s.s = append(s.s, i)
}

// Pop removes a block from top of stack.
func (s *Stack) Pop() (int, error) {
	s.Lock()
	defer s.Unlock()

	size := len(s.s)
	if size == 0 {
		return -1, ErrEmptyStack
	}
	i := s.s[size-1]
	s.s = s.s[:size-1]
	return i, nil
}

// IsEmpty returns true if stack is empty.
func (s *Stack) IsEmpty() bool {
	s.Lock()
	defer s.Unlock()
	return len(s.s) == 0
}
