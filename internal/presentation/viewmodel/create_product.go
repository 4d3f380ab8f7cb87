// Package viewmodel holds presentation state for client front ends such as the
// CLI. It knows nothing about rendering.
package viewmodel

import (
	"context"
	"sync"

	"github.com/mrops-br/product-catalog/internal/app/usecase"
	"github.com/mrops-br/product-catalog/internal/domain"
)

const unexpectedErrorMessage = "An unexpected error occurred"

// CreateProductExecutor runs the create use case.
type CreateProductExecutor interface {
	Execute(ctx context.Context, input usecase.CreateProductInput) usecase.CreateProductOutput
}

// CreateProductState is what a front end renders. Error is empty when there
// is no error; Product is set after a success.
type CreateProductState struct {
	Loading bool
	Error   string
	Success bool
	Product *domain.Product
}

// Listener receives the state after every change.
type Listener func(CreateProductState)

type subscription struct {
	id       uint64
	listener Listener
}

// CreateProductViewModel tracks the progress of product creation and
// notifies subscribers in the order they subscribed. Overlapping Execute
// calls are allowed; the last one to finish decides the final state.
type CreateProductViewModel struct {
	create CreateProductExecutor

	mu     sync.Mutex
	state  CreateProductState
	subs   []subscription
	nextID uint64
}

func NewCreateProductViewModel(create CreateProductExecutor) *CreateProductViewModel {
	return &CreateProductViewModel{create: create}
}

// Execute runs the use case and returns its result unchanged.
func (vm *CreateProductViewModel) Execute(ctx context.Context, input usecase.CreateProductInput) usecase.CreateProductOutput {
	vm.update(func(s *CreateProductState) {
		s.Loading = true
	})

	result := vm.create.Execute(ctx, input)

	if result.IsRight() {
		product := result.RightValue().Product
		vm.update(func(s *CreateProductState) {
			*s = CreateProductState{Success: true, Product: product}
		})
		return result
	}

	// The detailed error stays on the returned result.
	vm.update(func(s *CreateProductState) {
		*s = CreateProductState{Error: unexpectedErrorMessage}
	})
	return result
}

// State returns a copy of the current state.
func (vm *CreateProductViewModel) State() CreateProductState {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

// Subscribe registers l and returns a function that removes it. Calling the
// returned function more than once is a no-op.
func (vm *CreateProductViewModel) Subscribe(l Listener) (unsubscribe func()) {
	vm.mu.Lock()
	vm.nextID++
	id := vm.nextID
	vm.subs = append(vm.subs, subscription{id: id, listener: l})
	vm.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { vm.remove(id) })
	}
}

func (vm *CreateProductViewModel) remove(id uint64) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	for i, s := range vm.subs {
		if s.id == id {
			vm.subs = append(vm.subs[:i:i], vm.subs[i+1:]...)
			return
		}
	}
}

// update applies fn under the lock, then notifies a snapshot of the
// subscribers outside it so listeners may call back into the view model.
func (vm *CreateProductViewModel) update(fn func(*CreateProductState)) {
	vm.mu.Lock()
	fn(&vm.state)
	state := vm.state
	subs := make([]subscription, len(vm.subs))
	copy(subs, vm.subs)
	vm.mu.Unlock()

	for _, s := range subs {
		s.listener(state)
	}
}
